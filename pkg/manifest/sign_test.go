package manifest

import (
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"provenant/internal/domain"
	"provenant/internal/infra/chain"
)

const testDigest = "0x9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func TestBuild_DefaultsAndNormalization(t *testing.T) {
	upper := "0x9F86D081884C7D659A2FEAA0C55AD015A3BF4F1B2B0B822CD15D6C15B0F00A08"
	built, err := Build(BuildInput{
		ContentHash: upper,
		CreatorDID:  "did:pkh:eip155:1:0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if built.Version != DefaultVersion {
		t.Fatalf("version = %s, want %s", built.Version, DefaultVersion)
	}
	if built.Algorithm != domain.DigestAlgorithm {
		t.Fatalf("algorithm = %s", built.Algorithm)
	}
	if built.ContentHash != testDigest {
		t.Fatalf("content hash = %s, want lowercased digest", built.ContentHash)
	}
	if built.CreatedAt.IsZero() {
		t.Fatal("created_at should default to now")
	}
}

func TestBuild_RejectsBadInput(t *testing.T) {
	if _, err := Build(BuildInput{ContentHash: "deadbeef", CreatorDID: "did:x"}); err == nil {
		t.Fatal("expected error for malformed digest")
	}
	if _, err := Build(BuildInput{ContentHash: testDigest}); err == nil {
		t.Fatal("expected error for missing creator did")
	}
}

func TestSign_RoundTripsThroughRecoverer(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	built, err := Build(BuildInput{
		ContentHash: testDigest,
		CreatorDID:  "did:pkh:eip155:1:" + SignerAddress(key),
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	signed, err := Sign(built, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.Signature == "" {
		t.Fatal("signature not set")
	}

	recovered, err := chain.Recoverer{}.Recover(signed.Signature, signed.ContentHash)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if recovered != SignerAddress(key) {
		t.Fatalf("recovered %s, want %s", recovered, SignerAddress(key))
	}
}

func TestSign_RequiresKeyAndDigest(t *testing.T) {
	if _, err := Sign(domain.Manifest{ContentHash: testDigest}, nil); err == nil {
		t.Fatal("expected error for nil key")
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if _, err := Sign(domain.Manifest{ContentHash: "nope"}, key); err == nil {
		t.Fatal("expected error for malformed content hash")
	}
}

func TestParsePrivateKeyHex_AcceptsOptionalPrefix(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	raw := hex.EncodeToString(crypto.FromECDSA(key))

	parsed, err := ParsePrivateKeyHex("0x" + raw)
	if err != nil {
		t.Fatalf("parse with prefix: %v", err)
	}
	if SignerAddress(parsed) != SignerAddress(key) {
		t.Fatal("parsed key signs as a different address")
	}

	parsed, err = ParsePrivateKeyHex(raw)
	if err != nil {
		t.Fatalf("parse without prefix: %v", err)
	}
	if SignerAddress(parsed) != SignerAddress(key) {
		t.Fatal("parsed key signs as a different address")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	built, err := Build(BuildInput{
		ContentHash: testDigest,
		ContentURI:  "ipfs://QmContent",
		CreatorDID:  "did:x",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	payload, err := Marshal(built)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded domain.Manifest
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ContentHash != built.ContentHash || decoded.ContentURI != built.ContentURI {
		t.Fatalf("round trip changed the manifest: %+v", decoded)
	}
}
