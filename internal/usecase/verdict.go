package usecase

import (
	"strings"

	"provenant/internal/domain"
)

// ComputeVerdict combines the file digest, the fetched manifest, the
// recovered signer, and the on-chain entry into the tri-state verdict.
// Pure function: identical inputs always yield an identical verdict.
//
// Precedence is fixed: a hash or signer failure is FAIL regardless of the
// URI check, and a URI mismatch alone downgrades to WARN, never FAIL.
// Reordering these would let the advisory URI signal mask a signature
// failure or the reverse.
func ComputeVerdict(fileHash string, manifest *domain.Manifest, recoveredSigner string, entry domain.RegistryEntry, presentedURI string) domain.Verdict {
	checks := domain.VerdictChecks{
		ManifestHashOK: domain.NormalizeDigest(manifest.ContentHash) == domain.NormalizeDigest(fileHash),
		CreatorOK:      !entry.Empty() && strings.EqualFold(entry.Creator, recoveredSigner),
		ManifestOK:     entry.ManifestURI == presentedURI,
	}

	status := domain.VerdictOK
	switch {
	case !checks.ManifestHashOK || !checks.CreatorOK:
		status = domain.VerdictFail
	case !checks.ManifestOK:
		status = domain.VerdictWarn
	}

	return domain.Verdict{
		Status:          status,
		FileHash:        domain.NormalizeDigest(fileHash),
		RecoveredSigner: recoveredSigner,
		OnchainEntry:    entry,
		Checks:          checks,
		NoEntry:         entry.Empty(),
	}
}
