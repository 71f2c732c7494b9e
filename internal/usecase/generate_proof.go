package usecase

import (
	"context"
	"time"

	"provenant/internal/domain"
)

// GenerateProof runs a full verification and packages the outcome into the
// portable proof document, enriched with chain metadata and, best-effort,
// the registration transaction hash.
type GenerateProof struct {
	Verify   *VerifyContent
	Registry RegistryReader
	Clock    func() time.Time
}

func (uc *GenerateProof) Execute(ctx context.Context, req VerifyRequest) (*domain.Proof, error) {
	outcome, err := uc.Verify.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	verdict := outcome.Verdict
	proof := &domain.Proof{
		Version:     domain.ProofVersion,
		GeneratedAt: uc.now(),
		Network:     domain.ProofNetwork{ChainID: outcome.ChainID},
		Registry:    outcome.RegistryAddress,
		Content: domain.ProofContent{
			Hash: verdict.FileHash,
			File: req.Content.FileName(),
		},
		Manifest: domain.ProofManifest{
			URI:        req.ManifestURI,
			CreatorDID: outcome.Manifest.CreatorDID,
			Signature:  outcome.Manifest.Signature,
		},
		Onchain: domain.ProofOnchain{
			Creator:     verdict.OnchainEntry.Creator,
			ManifestURI: verdict.OnchainEntry.ManifestURI,
			Timestamp:   verdict.OnchainEntry.Timestamp,
		},
		Signature: domain.ProofSignature{
			Recovered: verdict.RecoveredSigner,
			Valid:     verdict.Checks.CreatorOK,
		},
		Checks: domain.ProofVerdictView{
			FileHashMatchesManifest:   verdict.Checks.ManifestHashOK,
			CreatorMatchesOnchain:     verdict.Checks.CreatorOK,
			ManifestURIMatchesOnchain: verdict.Checks.ManifestOK,
			Status:                    verdict.Status,
		},
	}

	// Non-blocking enrichment: a provider that cannot serve the log range
	// leaves tx out of the document rather than failing the proof.
	if outcome.RegistryAddress != "" && !verdict.OnchainEntry.Empty() {
		if txHash, ok := uc.Registry.FindRegistrationTx(ctx, outcome.RPCURL, outcome.RegistryAddress, verdict.FileHash); ok {
			proof.Tx = &domain.ProofTx{TxHash: txHash}
		}
	}
	return proof, nil
}

func (uc *GenerateProof) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock()
	}
	return time.Now().UTC()
}
