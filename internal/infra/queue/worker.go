package queue

import (
	"context"
	"log"
	"time"

	"provenant/internal/domain"
	"provenant/internal/usecase"
)

func (p *Pipeline) workerLoop(ctx context.Context) {
	defer p.wg.Done()
	for ctx.Err() == nil {
		jobID, err := p.Queue.Dequeue(ctx, defaultDequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("queue dequeue: %v", err)
			sleepCtx(ctx, time.Second)
			continue
		}
		if jobID == "" {
			continue
		}
		p.process(ctx, jobID)
	}
}

// process claims one job and runs it to a terminal state. The record is
// looked up and updated, never re-created, so a redelivered id cannot
// spawn a duplicate.
func (p *Pipeline) process(ctx context.Context, jobID string) {
	job, err := p.Jobs.Get(ctx, jobID)
	if err != nil {
		log.Printf("job %s: load: %v", jobID, err)
		return
	}
	if job.Terminal() {
		return
	}

	startedAt := p.now()
	job.Status = domain.JobProcessing
	job.StartedAt = &startedAt
	if err := p.Jobs.Update(ctx, *job); err != nil {
		log.Printf("job %s: mark processing: %v", jobID, err)
		return
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	baseDelay := p.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultRetryBaseDelay
	}

	lastStage := job.Progress
	report := func(stage int) {
		lastStage = stage
		_ = p.Jobs.SetProgress(ctx, job.ID, stage)
	}

	var result []byte
	var runErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, runErr = p.runJob(ctx, *job, report)
		if runErr == nil {
			break
		}
		if !domain.Retryable(runErr) || attempt == maxAttempts-1 {
			break
		}
		job.RetryCount++
		if err := p.Jobs.Update(ctx, *job); err != nil {
			log.Printf("job %s: record retry: %v", jobID, err)
		}
		// Exponential backoff: base, 2x base, 4x base, ...
		if !sleepCtx(ctx, baseDelay<<attempt) {
			runErr = ctx.Err()
			break
		}
	}

	completedAt := p.now()
	job.CompletedAt = &completedAt
	if runErr != nil {
		job.Status = domain.JobFailed
		job.Error = runErr.Error()
		// Keep the last checkpoint the run actually reached; 100 is
		// reserved for runs that finished.
		job.Progress = lastStage
	} else {
		job.Status = domain.JobCompleted
		job.Result = result
		job.Progress = domain.ProgressDone
	}
	if err := p.Jobs.Update(ctx, *job); err != nil {
		log.Printf("job %s: finalize: %v", jobID, err)
	}
}

func (p *Pipeline) runJob(ctx context.Context, job domain.VerificationJob, report func(int)) ([]byte, error) {
	req := usecase.VerifyRequest{
		Content:     usecase.ContentFromHash(job.ContentHash),
		ManifestURI: job.ManifestURI,
		Progress:    report,
	}
	if job.RegistryAddress != "" {
		req.Target = usecase.SingleChain(job.RegistryAddress, job.RPCURL)
	} else {
		req.Target = usecase.CrossChain()
	}

	switch job.Type {
	case domain.JobProof:
		proof, err := p.Proof.Execute(ctx, req)
		if err != nil {
			return nil, err
		}
		return marshalResult(proof), nil
	default:
		outcome, err := p.Verify.Execute(ctx, req)
		if err != nil {
			return nil, err
		}
		return marshalResult(outcome.Verdict), nil
	}
}

// sleepCtx sleeps for d unless ctx ends first; reports whether the full
// sleep elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
