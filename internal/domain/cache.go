package domain

import (
	"context"
	"time"
)

// KVCache is the shared key/value cache. Used for platform bindings and
// fetched manifest documents only; verdicts are recomputed every run so a
// stale cache can never mask an on-chain state change.
type KVCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
