package domain

import "errors"

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrRead            = errors.New("content unreadable")
	ErrFetch           = errors.New("manifest fetch failed")
	ErrParse           = errors.New("manifest parse failed")
	ErrRPC             = errors.New("chain rpc failed")
	ErrNotFound        = errors.New("not found")
	ErrAllChainsFailed = errors.New("all configured chains unreachable")
	// ErrPartialResolution means some chains answered empty while others
	// could not be queried: the entry may still live on an unreachable
	// chain, so this is never a definitive not-found.
	ErrPartialResolution = errors.New("resolution incomplete, some chains unreachable")
	ErrNoQueue           = errors.New("no queue configured")
)

// Retryable reports whether an error is a transport-level failure the job
// pipeline may retry. Malformed input and absent on-chain state never
// become valid by waiting.
func Retryable(err error) bool {
	return errors.Is(err, ErrFetch) ||
		errors.Is(err, ErrRPC) ||
		errors.Is(err, ErrAllChainsFailed) ||
		errors.Is(err, ErrPartialResolution)
}
