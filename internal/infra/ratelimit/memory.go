package ratelimit

import (
	"context"
	"sync"
	"time"

	"provenant/internal/domain"
)

const defaultMaxPairs = 10000

// limitKey identifies one caller's budget on one endpoint. Scoping the
// window to the pair keeps a burst against verify from draining the same
// caller's proof or resolve budget.
type limitKey struct {
	client   string
	endpoint string
}

type window struct {
	used    int
	resetAt time.Time
}

// MemoryLimiter is a fixed-window limiter for single-instance deployments
// and the fallback when redis is not configured.
type MemoryLimiter struct {
	mu       sync.Mutex
	clock    func() time.Time
	windows  map[limitKey]*window
	maxPairs int
}

func NewMemoryLimiter(maxPairs int) *MemoryLimiter {
	if maxPairs <= 0 {
		maxPairs = defaultMaxPairs
	}
	return &MemoryLimiter{
		clock:    time.Now,
		windows:  make(map[limitKey]*window),
		maxPairs: maxPairs,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, client, endpoint string, limit int, windowSize time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	key := limitKey{client: client, endpoint: endpoint}
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if !ok && len(m.windows) >= m.maxPairs {
			m.evict(now)
		}
		w = &window{resetAt: now.Add(windowSize)}
		m.windows[key] = w
	}

	decision := domain.RateLimitDecision{Limit: limit, ResetAt: w.resetAt}
	if w.used >= limit {
		return decision, nil
	}
	w.used++
	decision.Allowed = true
	decision.Remaining = limit - w.used
	return decision, nil
}

// evict drops expired windows, and failing that the live window closest to
// reset, so the map stays bounded under client-address churn.
func (m *MemoryLimiter) evict(now time.Time) {
	var (
		victim   limitKey
		earliest time.Time
		found    bool
	)
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
			continue
		}
		if !found || w.resetAt.Before(earliest) {
			victim, earliest, found = key, w.resetAt, true
		}
	}
	if len(m.windows) >= m.maxPairs && found {
		delete(m.windows, victim)
	}
}
