package domain

import "time"

type VerdictStatus string

const (
	VerdictOK   VerdictStatus = "OK"
	VerdictWarn VerdictStatus = "WARN"
	VerdictFail VerdictStatus = "FAIL"
)

type VerdictChecks struct {
	ManifestHashOK bool `json:"manifestHashOk"`
	CreatorOK      bool `json:"creatorOk"`
	ManifestOK     bool `json:"manifestOk"`
}

// Verdict is the tri-state outcome of one verification run. Derived data:
// every run recomputes it fresh and it is never cached.
type Verdict struct {
	Status          VerdictStatus `json:"status"`
	FileHash        string        `json:"fileHash"`
	RecoveredSigner string        `json:"recoveredSigner"`
	OnchainEntry    RegistryEntry `json:"onchain"`
	Checks          VerdictChecks `json:"checks"`
	// NoEntry distinguishes "no on-chain registration" from a signer
	// mismatch; both surface as creatorOk=false.
	NoEntry bool `json:"noEntry,omitempty"`
}

// Proof is the portable archival document for offline re-verification.
// Its shape is a wire contract and must stay stable.
type Proof struct {
	Version     string           `json:"version"`
	GeneratedAt time.Time        `json:"generated_at"`
	Network     ProofNetwork     `json:"network"`
	Registry    string           `json:"registry"`
	Content     ProofContent     `json:"content"`
	Manifest    ProofManifest    `json:"manifest"`
	Onchain     ProofOnchain     `json:"onchain"`
	Signature   ProofSignature   `json:"signature"`
	Tx          *ProofTx         `json:"tx,omitempty"`
	Checks      ProofVerdictView `json:"verification"`
}

type ProofNetwork struct {
	ChainID int64 `json:"chainId"`
}

type ProofContent struct {
	Hash string `json:"hash"`
	File string `json:"file,omitempty"`
}

type ProofManifest struct {
	URI        string `json:"uri"`
	CreatorDID string `json:"creator_did"`
	Signature  string `json:"signature"`
}

type ProofOnchain struct {
	Creator     string `json:"creator"`
	ManifestURI string `json:"manifestURI"`
	Timestamp   uint64 `json:"timestamp"`
}

type ProofSignature struct {
	Recovered string `json:"recovered"`
	Valid     bool   `json:"valid"`
}

type ProofTx struct {
	TxHash string `json:"txHash"`
}

type ProofVerdictView struct {
	FileHashMatchesManifest   bool          `json:"fileHashMatchesManifest"`
	CreatorMatchesOnchain     bool          `json:"creatorMatchesOnchain"`
	ManifestURIMatchesOnchain bool          `json:"manifestURIMatchesOnchain"`
	Status                    VerdictStatus `json:"status"`
}

const ProofVersion = "1.0"

// VerificationRecord is one ledger row: the persisted outcome of a run,
// upserted by content hash so repeat verifications do not pile up rows.
type VerificationRecord struct {
	ContentHash     string
	ManifestURI     string
	RegistryAddress string
	ChainID         int64
	Status          VerdictStatus
	RecoveredSigner string
	OnchainCreator  string
	VerifiedAt      time.Time
}
