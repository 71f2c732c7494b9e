package domain

import "strings"

const zeroAddress = "0x0000000000000000000000000000000000000000"

// RegistryEntry is the on-chain record keyed by content hash. A zero
// creator address means no entry exists; the contract uses it as the
// absence sentinel rather than reverting.
type RegistryEntry struct {
	Creator     string
	ContentHash string
	ManifestURI string
	Timestamp   uint64
}

// Empty reports whether the entry is the contract's absence sentinel.
func (e RegistryEntry) Empty() bool {
	return e.Creator == "" || strings.EqualFold(e.Creator, zeroAddress)
}

// ChainTarget is one row of the ordered cross-chain resolution table:
// a chain, the RPC endpoint to reach it, and the registry deployed there.
type ChainTarget struct {
	ChainID         int64
	RPCURL          string
	RegistryAddress string
}

// Configured reports whether the target can actually be queried. Targets
// without an RPC endpoint are listed for documentation but skipped.
func (t ChainTarget) Configured() bool {
	return t.RPCURL != "" && t.RegistryAddress != ""
}

// CrossChainEntry is a resolution result: the entry plus where it was
// found. Never persisted as its own record.
type CrossChainEntry struct {
	RegistryEntry
	ChainID         int64
	RegistryAddress string
}
