package jobmem

import (
	"context"
	"errors"
	"testing"
	"time"

	"provenant/internal/domain"
)

func seedJob(id string, status domain.JobStatus) domain.VerificationJob {
	return domain.VerificationJob{
		ID:          id,
		Type:        domain.JobVerify,
		ManifestURI: "ipfs://QmManifest",
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestCreateAndGet(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Create(ctx, seedJob("a", domain.JobQueued)); err != nil {
		t.Fatalf("create: %v", err)
	}
	job, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != domain.JobQueued {
		t.Fatalf("status = %s", job.Status)
	}
}

func TestCreate_DuplicateIsTolerated(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Create(ctx, seedJob("a", domain.JobQueued)); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := seedJob("a", domain.JobFailed)
	if err := store.Create(ctx, dup); err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	job, _ := store.Get(ctx, "a")
	if job.Status != domain.JobQueued {
		t.Fatal("duplicate create must not overwrite the original record")
	}
}

func TestGet_Missing(t *testing.T) {
	store := New()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	store := New()
	ctx := context.Background()
	store.Create(ctx, seedJob("a", domain.JobQueued))

	job, _ := store.Get(ctx, "a")
	now := time.Now().UTC()
	job.Status = domain.JobCompleted
	job.Progress = domain.ProgressDone
	job.Result = []byte(`{"status":"OK"}`)
	job.CompletedAt = &now
	if err := store.Update(ctx, *job); err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, _ := store.Get(ctx, "a")
	if updated.Status != domain.JobCompleted || updated.Progress != domain.ProgressDone {
		t.Fatalf("updated = %+v", updated)
	}
	if string(updated.Result) != `{"status":"OK"}` {
		t.Fatalf("result = %s", updated.Result)
	}
}

func TestUpdate_Missing(t *testing.T) {
	store := New()
	err := store.Update(context.Background(), seedJob("ghost", domain.JobFailed))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSetProgress(t *testing.T) {
	store := New()
	ctx := context.Background()
	store.Create(ctx, seedJob("a", domain.JobProcessing))

	if err := store.SetProgress(ctx, "a", domain.ProgressFetched); err != nil {
		t.Fatalf("set progress: %v", err)
	}
	job, _ := store.Get(ctx, "a")
	if job.Progress != domain.ProgressFetched {
		t.Fatalf("progress = %d, want %d", job.Progress, domain.ProgressFetched)
	}
}

func TestPruneTerminal(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.Add(-2 * time.Hour)
	recent := now.Add(-time.Minute)

	completed := seedJob("old-completed", domain.JobCompleted)
	completed.CompletedAt = &old
	failedOld := seedJob("old-failed", domain.JobFailed)
	failedOld.CompletedAt = &old
	completedRecent := seedJob("recent-completed", domain.JobCompleted)
	completedRecent.CompletedAt = &recent
	running := seedJob("running", domain.JobProcessing)

	for _, job := range []domain.VerificationJob{completed, failedOld, completedRecent, running} {
		store.Create(ctx, job)
	}

	// Completed jobs expire after an hour; failed ones are kept longer.
	pruned, err := store.PruneTerminal(ctx, now.Add(-time.Hour), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}
	if _, err := store.Get(ctx, "old-completed"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("old completed job should be pruned")
	}
	for _, id := range []string{"old-failed", "recent-completed", "running"} {
		if _, err := store.Get(ctx, id); err != nil {
			t.Fatalf("job %s should survive: %v", id, err)
		}
	}
}
