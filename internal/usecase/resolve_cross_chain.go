package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"provenant/internal/domain"
)

// CrossChainResolver walks the configured chain table in order and returns
// the first non-empty binding. Table order is the priority order: cheaper
// and faster RPCs belong first.
type CrossChainResolver struct {
	Targets  []domain.ChainTarget
	Registry RegistryReader

	// Cache holds resolved platform bindings under a TTL. Content-hash
	// resolution is never cached; only bindings, per the caching contract.
	Cache      domain.KVCache
	BindingTTL time.Duration
}

// ResolveEntry locates a registry entry by content hash across all
// configured chains. Returns domain.ErrNotFound only when every configured
// chain was reachable and answered empty; domain.ErrAllChainsFailed when no
// chain could be queried at all; domain.ErrPartialResolution when some
// chains answered empty but others were unreachable, since the entry may
// live on a chain that could not be asked.
func (r *CrossChainResolver) ResolveEntry(ctx context.Context, contentHash string) (*domain.CrossChainEntry, error) {
	return r.resolve(ctx, func(ctx context.Context, target domain.ChainTarget) (domain.RegistryEntry, error) {
		return r.Registry.GetEntry(ctx, target.RPCURL, target.RegistryAddress, contentHash)
	})
}

// ResolveBinding locates a platform binding by (platform, platformId).
func (r *CrossChainResolver) ResolveBinding(ctx context.Context, platform, platformID string) (*domain.CrossChainEntry, error) {
	if platform == "" || platformID == "" {
		return nil, domain.ErrInvalidRequest
	}
	cacheKey := "binding:" + platform + ":" + platformID
	if r.Cache != nil {
		if raw, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			var cached domain.CrossChainEntry
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	found, err := r.resolve(ctx, func(ctx context.Context, target domain.ChainTarget) (domain.RegistryEntry, error) {
		return r.Registry.GetBinding(ctx, target.RPCURL, target.RegistryAddress, platform, platformID)
	})
	if err != nil {
		return nil, err
	}
	if r.Cache != nil {
		if raw, err := json.Marshal(found); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, raw, r.BindingTTL)
		}
	}
	return found, nil
}

func (r *CrossChainResolver) resolve(ctx context.Context, lookup func(context.Context, domain.ChainTarget) (domain.RegistryEntry, error)) (*domain.CrossChainEntry, error) {
	var (
		attempted int
		failed    int
		lastErr   error
	)
	for _, target := range r.Targets {
		if !target.Configured() {
			continue
		}
		attempted++
		entry, err := lookup(ctx, target)
		if err != nil {
			failed++
			lastErr = err
			continue
		}
		if entry.Empty() {
			continue
		}
		return &domain.CrossChainEntry{
			RegistryEntry:   entry,
			ChainID:         target.ChainID,
			RegistryAddress: target.RegistryAddress,
		}, nil
	}
	if attempted == 0 {
		return nil, fmt.Errorf("%w: no chain targets configured", domain.ErrAllChainsFailed)
	}
	if failed == attempted {
		return nil, fmt.Errorf("%w: last error: %v", domain.ErrAllChainsFailed, lastErr)
	}
	if failed > 0 {
		return nil, fmt.Errorf("%w: %d of %d chains failed, last error: %v", domain.ErrPartialResolution, failed, attempted, lastErr)
	}
	return nil, domain.ErrNotFound
}

func (r *CrossChainResolver) targetFor(chainID int64) domain.ChainTarget {
	for _, target := range r.Targets {
		if target.ChainID == chainID {
			return target
		}
	}
	return domain.ChainTarget{}
}
