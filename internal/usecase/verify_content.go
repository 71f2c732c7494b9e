package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"provenant/internal/domain"
)

type VerifyRequest struct {
	Content     ContentSource
	ManifestURI string
	Target      RegistryTarget
	// Progress receives the checkpoint constants from domain as the run
	// advances. Optional; the job pipeline wires it to the job record.
	Progress func(int)
}

// Validate checks the request's shape without touching any dependency.
// The job pipeline runs it before a job record is created, so malformed
// requests are rejected at submission rather than by a worker.
func (r VerifyRequest) Validate() error {
	if r.ManifestURI == "" {
		return fmt.Errorf("%w: manifest uri is required", domain.ErrInvalidRequest)
	}
	if !r.Content.valid() {
		return fmt.Errorf("%w: content source is incomplete", domain.ErrInvalidRequest)
	}
	if !r.Target.valid() {
		return fmt.Errorf("%w: registry target is incomplete", domain.ErrInvalidRequest)
	}
	return nil
}

// VerifyOutcome carries the verdict plus where the entry was found, which
// the proof generator and the ledger both need.
type VerifyOutcome struct {
	Verdict         domain.Verdict
	Manifest        *domain.Manifest
	ChainID         int64
	RegistryAddress string
	RPCURL          string
}

// VerifyContent runs the five verification stages in order: hash, fetch,
// recover, lookup, persist. Transport failures propagate as typed errors
// ("verification could not be performed"); an absent on-chain entry is a
// FAIL verdict, not an error.
type VerifyContent struct {
	Hasher   Hasher
	Fetcher  ManifestFetcher
	Signer   SignatureRecoverer
	Registry RegistryReader
	Resolver *CrossChainResolver
	Ledger   Ledger
	Clock    func() time.Time
}

func (uc *VerifyContent) Execute(ctx context.Context, req VerifyRequest) (*VerifyOutcome, error) {
	report := req.Progress
	if report == nil {
		report = func(int) {}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Target.crossChain() && uc.Resolver == nil {
		return nil, fmt.Errorf("%w: no cross-chain table configured", domain.ErrInvalidRequest)
	}
	report(domain.ProgressAccepted)

	fileHash, err := req.Content.Digest(uc.Hasher)
	if err != nil {
		return nil, err
	}
	report(domain.ProgressHashed)

	manifest, err := uc.Fetcher.Fetch(ctx, req.ManifestURI)
	if err != nil {
		return nil, err
	}
	report(domain.ProgressFetched)

	signer, err := uc.Signer.Recover(manifest.Signature, manifest.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: recover signer: %v", domain.ErrParse, err)
	}
	report(domain.ProgressRecovered)

	entry, chainID, registryAddr, rpcURL, err := uc.lookupEntry(ctx, req, fileHash)
	if err != nil {
		return nil, err
	}
	report(domain.ProgressLookedUp)

	verdict := ComputeVerdict(fileHash, manifest, signer, entry, req.ManifestURI)

	if uc.Ledger != nil {
		record := domain.VerificationRecord{
			ContentHash:     verdict.FileHash,
			ManifestURI:     req.ManifestURI,
			RegistryAddress: registryAddr,
			ChainID:         chainID,
			Status:          verdict.Status,
			RecoveredSigner: verdict.RecoveredSigner,
			OnchainCreator:  entry.Creator,
			VerifiedAt:      uc.now(),
		}
		if err := uc.Ledger.Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("persist verification record: %w", err)
		}
	}
	report(domain.ProgressPersisted)

	return &VerifyOutcome{
		Verdict:         verdict,
		Manifest:        manifest,
		ChainID:         chainID,
		RegistryAddress: registryAddr,
		RPCURL:          rpcURL,
	}, nil
}

func (uc *VerifyContent) lookupEntry(ctx context.Context, req VerifyRequest, fileHash string) (domain.RegistryEntry, int64, string, string, error) {
	if req.Target.crossChain() {
		found, err := uc.Resolver.ResolveEntry(ctx, fileHash)
		if err == nil {
			target := uc.Resolver.targetFor(found.ChainID)
			return found.RegistryEntry, found.ChainID, found.RegistryAddress, target.RPCURL, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			// No chain holds an entry: the verdict reports it, the run
			// itself succeeded.
			return domain.RegistryEntry{}, 0, "", "", nil
		}
		return domain.RegistryEntry{}, 0, "", "", err
	}

	entry, err := uc.Registry.GetEntry(ctx, req.Target.rpcURL, req.Target.registryAddress, fileHash)
	if err != nil {
		return domain.RegistryEntry{}, 0, "", "", err
	}
	chainID, err := uc.Registry.ChainID(ctx, req.Target.rpcURL)
	if err != nil {
		// The entry read already succeeded; chain id is enrichment only.
		chainID = 0
	}
	return entry, chainID, req.Target.registryAddress, req.Target.rpcURL, nil
}

func (uc *VerifyContent) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock()
	}
	return time.Now().UTC()
}
