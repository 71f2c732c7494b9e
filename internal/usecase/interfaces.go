package usecase

import (
	"context"

	"provenant/internal/domain"
)

type Hasher interface {
	HashFile(path string) (string, error)
	HashBytes(data []byte) string
}

type ManifestFetcher interface {
	Fetch(ctx context.Context, uri string) (*domain.Manifest, error)
}

// SignatureRecoverer recovers the signing address from a recoverable
// ECDSA signature over the manifest's content hash.
type SignatureRecoverer interface {
	Recover(signature, contentHash string) (string, error)
}

// RegistryReader reads the on-chain registry. rpcURL may be empty, in
// which case the implementation falls back to its configured default
// endpoint; callers can override it to verify against networks the
// deployment did not anticipate.
type RegistryReader interface {
	GetEntry(ctx context.Context, rpcURL, registryAddress, contentHash string) (domain.RegistryEntry, error)
	GetBinding(ctx context.Context, rpcURL, registryAddress, platform, platformID string) (domain.RegistryEntry, error)
	// FindRegistrationTx scans registration event logs for the content
	// hash. Best-effort: some providers restrict log ranges, so absence
	// is reported via ok=false, never as an error.
	FindRegistrationTx(ctx context.Context, rpcURL, registryAddress, contentHash string) (txHash string, ok bool)
	ChainID(ctx context.Context, rpcURL string) (int64, error)
}

type Ledger interface {
	Upsert(ctx context.Context, record domain.VerificationRecord) error
	FindByContentHash(ctx context.Context, contentHash string) ([]domain.VerificationRecord, error)
}
