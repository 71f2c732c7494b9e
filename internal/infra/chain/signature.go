package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"provenant/internal/usecase"
)

// Recoverer recovers the signing address from an EIP-191 personal-sign
// signature over the manifest's content hash string. This matches what
// creator wallets produce when they sign the hash at registration time.
type Recoverer struct{}

func (Recoverer) Recover(signature, contentHash string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return "", errors.New("signature must be 65 bytes")
	}
	// Wallets emit V as 27/28; secp256k1 recovery wants 0/1.
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	digest := accounts.TextHash([]byte(contentHash))
	pub, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

var _ usecase.SignatureRecoverer = Recoverer{}
