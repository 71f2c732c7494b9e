package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"provenant/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares one fixed window per (client, endpoint) pair across
// all instances. The counter and its expiry have to move together, hence
// the script.
type RedisLimiter struct {
	client *redis.Client
}

var fixedWindowScript = redis.NewScript(`
local used = redis.call("INCR", KEYS[1])
if used == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {used, redis.call("PTTL", KEYS[1])}
`)

func NewRedisLimiter(addr, password string, db int) (*RedisLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	return &RedisLimiter{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}, nil
}

// NewRedisLimiterWithClient reuses an existing connection, typically the
// queue's.
func NewRedisLimiterWithClient(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (r *RedisLimiter) Allow(ctx context.Context, client, endpoint string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = time.Second.Milliseconds()
	}
	key := fmt.Sprintf("ratelimit:%s:%s", client, endpoint)
	reply, err := fixedWindowScript.Run(ctx, r.client, []string{key}, windowMillis).Int64Slice()
	if err != nil {
		return domain.RateLimitDecision{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(reply) != 2 {
		return domain.RateLimitDecision{}, errors.New("unexpected rate limit script reply")
	}
	used, ttlMillis := reply[0], reply[1]
	resetAt := time.Now()
	if ttlMillis > 0 {
		resetAt = resetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	remaining := int64(limit) - used
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitDecision{
		Allowed:   used <= int64(limit),
		Limit:     limit,
		Remaining: int(remaining),
		ResetAt:   resetAt,
	}, nil
}
