package domain

import (
	"context"
	"time"
)

// RateLimitDecision is the outcome of charging one submission against a
// caller's fixed-window budget.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter throttles submissions per (client, endpoint) pair: a caller
// hammering verify must not consume its own proof or resolve budget, and
// the window state for the pair lives inside the limiter.
type RateLimiter interface {
	Allow(ctx context.Context, client, endpoint string, limit int, window time.Duration) (RateLimitDecision, error)
}
