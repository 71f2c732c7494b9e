package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"provenant/internal/domain"
)

const (
	keyVerify = "jobs:verify"
	keyProof  = "jobs:proof"
)

// Queue is the durable FIFO-with-priority backend. Verify jobs are served
// before proof jobs; proofs cost more and can wait.
type Queue interface {
	Enqueue(ctx context.Context, jobType domain.JobType, jobID string) error
	// Dequeue blocks up to wait and returns "" when nothing arrived.
	Dequeue(ctx context.Context, wait time.Duration) (string, error)
}

type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(addr, password string, db int) (*RedisQueue, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisQueue{client: client}, nil
}

// Client exposes the underlying connection so the binding/manifest cache
// can share it instead of opening a second one.
func (q *RedisQueue) Client() *redis.Client {
	return q.client
}

// Ping verifies the backend is reachable; the pipeline falls back to
// synchronous mode when it is not.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobType domain.JobType, jobID string) error {
	key, err := queueKey(jobType)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, key, jobID).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (string, error) {
	// BRPOP scans keys in argument order, which is what gives verify
	// jobs priority over proof jobs.
	result, err := q.client.BRPop(ctx, wait, keyVerify, keyProof).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	if len(result) != 2 {
		return "", errors.New("unexpected brpop response")
	}
	return result[1], nil
}

func queueKey(jobType domain.JobType) (string, error) {
	switch jobType {
	case domain.JobVerify:
		return keyVerify, nil
	case domain.JobProof:
		return keyProof, nil
	default:
		return "", fmt.Errorf("unknown job type %q", jobType)
	}
}
