package domain

import (
	"regexp"
	"strings"
	"time"
)

const DigestAlgorithm = "sha256"

var hexDigestPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Manifest is the off-chain signed document asserting a content hash and
// creator identity. It is created by the content owner at registration time
// and read-only here.
type Manifest struct {
	Version      string        `json:"version"`
	Algorithm    string        `json:"algorithm"`
	ContentHash  string        `json:"content_hash"`
	ContentURI   string        `json:"content_uri,omitempty"`
	CreatorDID   string        `json:"creator_did"`
	CreatedAt    time.Time     `json:"created_at"`
	Signature    string        `json:"signature"`
	Attestations []Attestation `json:"attestations,omitempty"`
}

type Attestation struct {
	Type      string `json:"type"`
	Issuer    string `json:"issuer,omitempty"`
	Statement string `json:"statement,omitempty"`
}

// ValidDigest reports whether s is a 0x-prefixed 32-byte hex digest.
func ValidDigest(s string) bool {
	return hexDigestPattern.MatchString(s)
}

// NormalizeDigest lowercases a digest so comparisons are case-insensitive.
func NormalizeDigest(s string) string {
	return strings.ToLower(s)
}
