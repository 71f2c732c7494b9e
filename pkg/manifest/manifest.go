// Package manifest builds and signs provenance manifests on the creator
// side. The verification service only ever reads manifests; this package
// exists so the CLI and tests can produce real signed documents.
package manifest

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"time"

	"provenant/internal/domain"
)

const DefaultVersion = "1.0"

type BuildInput struct {
	Version      string
	ContentHash  string
	ContentURI   string
	CreatorDID   string
	CreatedAt    time.Time
	Attestations []domain.Attestation
}

// Build assembles an unsigned manifest. The content hash must already be
// the sha256 digest of the content, 0x-prefixed.
func Build(input BuildInput) (domain.Manifest, error) {
	if !domain.ValidDigest(input.ContentHash) {
		return domain.Manifest{}, errors.New("content hash must be a 0x-prefixed 32-byte hex digest")
	}
	if input.CreatorDID == "" {
		return domain.Manifest{}, errors.New("creator did is required")
	}
	version := input.Version
	if version == "" {
		version = DefaultVersion
	}
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return domain.Manifest{
		Version:      version,
		Algorithm:    domain.DigestAlgorithm,
		ContentHash:  domain.NormalizeDigest(input.ContentHash),
		ContentURI:   input.ContentURI,
		CreatorDID:   input.CreatorDID,
		CreatedAt:    createdAt.UTC(),
		Attestations: input.Attestations,
	}, nil
}

// Sign fills the manifest's signature with an EIP-191 personal-sign
// signature over the content hash string, the same message a creator
// wallet signs at registration time.
func Sign(manifest domain.Manifest, key *ecdsa.PrivateKey) (domain.Manifest, error) {
	if key == nil {
		return domain.Manifest{}, errors.New("signing key is required")
	}
	if !domain.ValidDigest(manifest.ContentHash) {
		return domain.Manifest{}, errors.New("manifest content hash must be a 0x-prefixed 32-byte hex digest")
	}
	signature, err := SignContentHash(manifest.ContentHash, key)
	if err != nil {
		return domain.Manifest{}, err
	}
	manifest.Signature = signature
	return manifest, nil
}

func Marshal(manifest domain.Manifest) ([]byte, error) {
	return json.MarshalIndent(manifest, "", "  ")
}
