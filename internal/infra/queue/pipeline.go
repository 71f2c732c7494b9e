package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"provenant/internal/domain"
	"provenant/internal/infra/db"
	"provenant/internal/usecase"
)

// JobStore persists job records. The gorm repository implements it when a
// database is configured; jobmem.Store otherwise.
type JobStore interface {
	Create(ctx context.Context, job domain.VerificationJob) error
	Get(ctx context.Context, id string) (*domain.VerificationJob, error)
	Update(ctx context.Context, job domain.VerificationJob) error
	SetProgress(ctx context.Context, id string, progress int) error
	PruneTerminal(ctx context.Context, completedBefore, failedBefore time.Time) (int64, error)
}

const (
	defaultWorkers        = 3
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 2 * time.Second
	defaultDequeueWait    = 5 * time.Second
	defaultJanitorPeriod  = 10 * time.Minute
)

// Pipeline owns the job lifecycle: accept, enqueue, process with retries,
// persist outcomes, prune. Constructed once at startup and handed to the
// HTTP layer; there is no package-level queue state.
type Pipeline struct {
	Queue  Queue // nil means synchronous mode
	Jobs   JobStore
	Verify *usecase.VerifyContent
	Proof  *usecase.GenerateProof

	Workers            int
	MaxAttempts        int
	RetryBaseDelay     time.Duration
	CompletedRetention time.Duration
	FailedRetention    time.Duration
	Clock              func() time.Time

	wg sync.WaitGroup
}

// SubmitRequest is the transport-agnostic verification request.
type SubmitRequest struct {
	Type        domain.JobType
	Content     usecase.ContentSource
	ManifestURI string
	Target      usecase.RegistryTarget
}

// SubmitResult reports either a synchronous outcome or a queued job
// handle; Queued tells callers which of the two they got, so they know
// whether to poll.
type SubmitResult struct {
	Queued  bool
	Job     *domain.VerificationJob
	Verdict *domain.Verdict
	Proof   *domain.Proof
}

// Async reports whether a durable queue backend is available.
func (p *Pipeline) Async() bool {
	return p.Queue != nil && p.Jobs != nil
}

// Submit accepts a verification request. With a queue configured the job
// is durably recorded and queued; otherwise the same stages run inline
// and the result comes back directly.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.Type != domain.JobVerify && req.Type != domain.JobProof {
		return nil, fmt.Errorf("%w: unknown job type %q", domain.ErrInvalidRequest, req.Type)
	}
	// Shape validation happens here, at the submission boundary: a
	// malformed request must never become a queued job a worker then
	// fails.
	if err := req.verifyRequest().Validate(); err != nil {
		return nil, err
	}

	if !p.Async() {
		return p.runInline(ctx, req)
	}

	// Hashing is local and cheap; do it up front so the job record can
	// carry the hash instead of the file bytes.
	contentHash, err := req.Content.Digest(p.Verify.Hasher)
	if err != nil {
		return nil, err
	}

	jobID, err := db.NewUUID()
	if err != nil {
		return nil, err
	}
	registryAddress, rpcURL := req.Target.Endpoint()
	job := domain.VerificationJob{
		ID:              jobID,
		Type:            req.Type,
		ContentHash:     contentHash,
		ManifestURI:     req.ManifestURI,
		RegistryAddress: registryAddress,
		RPCURL:          rpcURL,
		Status:          domain.JobQueued,
		Progress:        domain.ProgressAccepted,
		CreatedAt:       p.now(),
	}
	if err := p.Jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}
	if err := p.Queue.Enqueue(ctx, req.Type, jobID); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return &SubmitResult{Queued: true, Job: &job}, nil
}

func (r SubmitRequest) verifyRequest() usecase.VerifyRequest {
	return usecase.VerifyRequest{
		Content:     r.Content,
		ManifestURI: r.ManifestURI,
		Target:      r.Target,
	}
}

func (p *Pipeline) runInline(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	verifyReq := req.verifyRequest()
	switch req.Type {
	case domain.JobProof:
		proof, err := p.Proof.Execute(ctx, verifyReq)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Proof: proof}, nil
	default:
		outcome, err := p.Verify.Execute(ctx, verifyReq)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Verdict: &outcome.Verdict}, nil
	}
}

// Job returns the current job record for polling.
func (p *Pipeline) Job(ctx context.Context, id string) (*domain.VerificationJob, error) {
	if p.Jobs == nil {
		return nil, domain.ErrNoQueue
	}
	return p.Jobs.Get(ctx, id)
}

// Start launches the worker pool and the retention janitor. Returns
// immediately; workers stop when ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) {
	if !p.Async() {
		return
	}
	workers := p.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx)
	}
	p.wg.Add(1)
	go p.janitorLoop(ctx)
}

// Wait blocks until all workers have exited.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) janitorLoop(ctx context.Context) {
	defer p.wg.Done()
	completed := p.CompletedRetention
	if completed <= 0 {
		completed = time.Hour
	}
	failed := p.FailedRetention
	if failed <= 0 {
		failed = 24 * time.Hour
	}
	ticker := time.NewTicker(defaultJanitorPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := p.now()
			_, _ = p.Jobs.PruneTerminal(ctx, now.Add(-completed), now.Add(-failed))
		}
	}
}

func (p *Pipeline) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now().UTC()
}

func marshalResult(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
