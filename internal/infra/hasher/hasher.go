package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"provenant/internal/domain"
	"provenant/internal/usecase"
)

// Service computes content digests. The algorithm is fixed system-wide;
// changing it is a compatibility break, not a per-call option.
type Service struct{}

func (Service) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return hashReader(f)
}

func (Service) HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return "0x" + hex.EncodeToString(sum[:])
}

// hashReader streams so large uploads never get buffered whole.
func hashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}

var _ usecase.Hasher = Service{}

// Algorithm returns the fixed digest algorithm tag.
func Algorithm() string { return domain.DigestAlgorithm }
