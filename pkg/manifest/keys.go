package manifest

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ParsePrivateKeyHex parses a secp256k1 private key from hex, with or
// without a 0x prefix.
func ParsePrivateKeyHex(value string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(value, "0x"))
}

// SignerAddress returns the checksummed address the key signs as.
func SignerAddress(key *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// SignContentHash produces an EIP-191 personal-sign signature over the
// content hash string. The recovery byte is emitted as 27/28, matching
// what wallets produce.
func SignContentHash(contentHash string, key *ecdsa.PrivateKey) (string, error) {
	digest := accounts.TextHash([]byte(contentHash))
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return "", err
	}
	if sig[crypto.RecoveryIDOffset] < 27 {
		sig[crypto.RecoveryIDOffset] += 27
	}
	return hexutil.Encode(sig), nil
}
