package usecase

import (
	"fmt"

	"provenant/internal/domain"
)

type contentKind int

const (
	contentByFile contentKind = iota + 1
	contentByBytes
	contentByHash
)

// ContentSource is the tagged file-vs-hash variant of a verification
// request. Constructing through the From* helpers keeps each path's
// required field enforced rather than branching on optional fields.
type ContentSource struct {
	kind contentKind
	path string
	data []byte
	hash string
}

func ContentFromFile(path string) ContentSource {
	return ContentSource{kind: contentByFile, path: path}
}

func ContentFromBytes(data []byte) ContentSource {
	return ContentSource{kind: contentByBytes, data: data}
}

func ContentFromHash(hash string) ContentSource {
	return ContentSource{kind: contentByHash, hash: hash}
}

func (s ContentSource) valid() bool {
	switch s.kind {
	case contentByFile:
		return s.path != ""
	case contentByBytes:
		return len(s.data) > 0
	case contentByHash:
		return domain.ValidDigest(s.hash)
	default:
		return false
	}
}

// FileName returns the original file name when the source is a file,
// for inclusion in proof documents.
func (s ContentSource) FileName() string {
	if s.kind == contentByFile {
		return s.path
	}
	return ""
}

// Digest resolves the source to a content digest, hashing through h when
// the source carries bytes rather than a precomputed hash.
func (s ContentSource) Digest(h Hasher) (string, error) {
	switch s.kind {
	case contentByFile:
		digest, err := h.HashFile(s.path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrRead, err)
		}
		return digest, nil
	case contentByBytes:
		return h.HashBytes(s.data), nil
	case contentByHash:
		return domain.NormalizeDigest(s.hash), nil
	default:
		return "", domain.ErrInvalidRequest
	}
}

type targetKind int

const (
	targetSingleChain targetKind = iota + 1
	targetCrossChain
)

// RegistryTarget is the tagged single-chain-vs-cross-chain variant.
type RegistryTarget struct {
	kind            targetKind
	registryAddress string
	rpcURL          string
}

func SingleChain(registryAddress, rpcURL string) RegistryTarget {
	return RegistryTarget{kind: targetSingleChain, registryAddress: registryAddress, rpcURL: rpcURL}
}

func CrossChain() RegistryTarget {
	return RegistryTarget{kind: targetCrossChain}
}

func (t RegistryTarget) crossChain() bool { return t.kind == targetCrossChain }

// Endpoint exposes the single-chain coordinates for persistence; both are
// empty for cross-chain targets, which is how a stored job round-trips
// back into the right variant.
func (t RegistryTarget) Endpoint() (registryAddress, rpcURL string) {
	return t.registryAddress, t.rpcURL
}

func (t RegistryTarget) valid() bool {
	switch t.kind {
	case targetSingleChain:
		return t.registryAddress != ""
	case targetCrossChain:
		return true
	default:
		return false
	}
}
