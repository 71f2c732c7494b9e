package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"provenant/internal/domain"
)

func TestNilDBGuards(t *testing.T) {
	ctx := context.Background()

	jobs := NewJobRepository(nil)
	if err := jobs.Create(ctx, domain.VerificationJob{ID: "a"}); !errors.Is(err, errDBUnavailable) {
		t.Fatalf("create err = %v", err)
	}
	if _, err := jobs.Get(ctx, "a"); !errors.Is(err, errDBUnavailable) {
		t.Fatalf("get err = %v", err)
	}
	if err := jobs.Update(ctx, domain.VerificationJob{ID: "a"}); !errors.Is(err, errDBUnavailable) {
		t.Fatalf("update err = %v", err)
	}
	if _, err := jobs.PruneTerminal(ctx, time.Now(), time.Now()); !errors.Is(err, errDBUnavailable) {
		t.Fatalf("prune err = %v", err)
	}

	ledger := NewLedgerRepository(nil)
	if err := ledger.Upsert(ctx, domain.VerificationRecord{}); !errors.Is(err, errDBUnavailable) {
		t.Fatalf("upsert err = %v", err)
	}
	if _, err := ledger.FindByContentHash(ctx, "0xabc"); !errors.Is(err, errDBUnavailable) {
		t.Fatalf("find err = %v", err)
	}
}

func TestJobModelRoundTrip(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	completed := started.Add(time.Second)
	job := domain.VerificationJob{
		ID:              "job-1",
		Type:            domain.JobProof,
		ContentHash:     "0xabc",
		ManifestURI:     "ipfs://QmManifest",
		RegistryAddress: "0xRegistry",
		RPCURL:          "https://rpc",
		Status:          domain.JobCompleted,
		Progress:        domain.ProgressDone,
		Result:          []byte(`{"version":"1.0"}`),
		RetryCount:      2,
		CreatedAt:       started.Add(-time.Minute),
		StartedAt:       &started,
		CompletedAt:     &completed,
	}

	got := modelToJob(jobToModel(job))
	if got.ID != job.ID || got.Type != job.Type || got.Status != job.Status {
		t.Fatalf("round trip changed identity fields: %+v", got)
	}
	if got.RetryCount != 2 || string(got.Result) != string(job.Result) {
		t.Fatalf("round trip changed outcome fields: %+v", got)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(started) {
		t.Fatalf("started at = %v", got.StartedAt)
	}
}

func TestNewUUID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewUUID()
		if err != nil {
			t.Fatalf("new uuid: %v", err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("id %q is not a v4 uuid", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
