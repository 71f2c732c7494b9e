package jobmem

import (
	"context"
	"sync"
	"time"

	"provenant/internal/domain"
)

// Store is the in-memory job store used when no database is configured.
// Mirrors the repository contract, including duplicate-create tolerance.
type Store struct {
	mu   sync.Mutex
	jobs map[string]domain.VerificationJob
}

func New() *Store {
	return &Store{jobs: make(map[string]domain.VerificationJob)}
}

func (s *Store) Create(ctx context.Context, job domain.VerificationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return nil
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.VerificationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := job
	return &out, nil
}

func (s *Store) Update(ctx context.Context, job domain.VerificationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.jobs[job.ID]
	if !ok {
		return domain.ErrNotFound
	}
	current.Status = job.Status
	current.Progress = job.Progress
	current.Result = job.Result
	current.Error = job.Error
	current.RetryCount = job.RetryCount
	current.StartedAt = job.StartedAt
	current.CompletedAt = job.CompletedAt
	s.jobs[job.ID] = current
	return nil
}

func (s *Store) SetProgress(ctx context.Context, id string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.Progress = progress
	s.jobs[id] = job
	return nil
}

func (s *Store) PruneTerminal(ctx context.Context, completedBefore, failedBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pruned int64
	for id, job := range s.jobs {
		if job.CompletedAt == nil {
			continue
		}
		switch job.Status {
		case domain.JobCompleted:
			if job.CompletedAt.Before(completedBefore) {
				delete(s.jobs, id)
				pruned++
			}
		case domain.JobFailed:
			if job.CompletedAt.Before(failedBefore) {
				delete(s.jobs, id)
				pruned++
			}
		}
	}
	return pruned, nil
}
