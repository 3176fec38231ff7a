package core

// PublicKeyLength is the byte length of a normalized ed25519 public key.
const PublicKeyLength = 32

// SignatureLength is the byte length of an ed25519 signature.
const SignatureLength = 64

// PublicKeyMaterial is a normalized 32-byte public key.
type PublicKeyMaterial [PublicKeyLength]byte

// AuthScheme tags the signature scheme of an authenticator. Additional
// schemes extend the enum without changing call sites.
type AuthScheme uint8

const (
	// AuthSchemeEd25519 is the single currently supported scheme.
	AuthSchemeEd25519 AuthScheme = 0
)

// UnsignedTransaction is a fully built but unsigned call. Each submission
// attempt builds its own instance; a fallback rebuild produces a new value
// because the fee-payer flag participates in the canonical encoding.
type UnsignedTransaction struct {
	Sender                  Address
	Intent                  CallIntent
	FeePayer                bool // true when a sponsor will cover the fee
	SequenceNumber          uint64
	MaxGasAmount            uint64
	GasUnitPrice            uint64
	ExpirationTimestampSecs uint64
	ChainID                 uint8
}

// RawSignature is a signature produced by exactly one signer over exactly
// one digest. It is never reused across digests.
type RawSignature struct {
	Signer Address
	Bytes  []byte
}

// Authenticator is the chain-verifiable bundle of public key and signature
// attached to a transaction to prove sender authorization. It is valid only
// for the digest it was produced over.
type Authenticator struct {
	Scheme    AuthScheme
	PublicKey PublicKeyMaterial
	Signature []byte
}

// SponsorshipResponse is the sponsorship backend's structured reply. It is
// transient and never persisted by this service.
type SponsorshipResponse struct {
	Success          bool   `json:"success"`
	TransactionHash  string `json:"transactionHash,omitempty"`
	FallbackRequired bool   `json:"fallbackRequired,omitempty"`
	Error            string `json:"error,omitempty"`
	Reason           string `json:"reason,omitempty"`
	DailyUsed        int    `json:"dailyUsed,omitempty"`
	DailyLimit       int    `json:"dailyLimit,omitempty"`
}

// SponsorshipStatus reports an address's standing with the sponsorship
// backend. The backend is the single source of truth for these counters;
// they must not be cached or decremented locally.
type SponsorshipStatus struct {
	Success    bool `json:"success"`
	DailyUsed  int  `json:"dailyUsed"`
	DailyLimit int  `json:"dailyLimit"`
	Remaining  int  `json:"remaining"`
	Enabled    bool `json:"enabled"`
}

// SubmissionOutcome is the single terminal artifact returned to callers.
type SubmissionOutcome struct {
	Hash      string `json:"transaction_hash"`
	Sponsored bool   `json:"sponsored"`
	GasUsed   uint64 `json:"gas_used,omitempty"`
	FeeOcta   string `json:"fee_octa,omitempty"`
}

// OutcomeEvent is published once per confirmed call so downstream consumers
// can react without polling the ledger.
type OutcomeEvent struct {
	AttemptID       string `json:"attempt_id"`
	Sender          string `json:"sender"`
	Function        string `json:"function"`
	TransactionHash string `json:"transaction_hash"`
	Sponsored       bool   `json:"sponsored"`
	Success         bool   `json:"success"`
	AbortReason     string `json:"abort_reason,omitempty"`
	FeeOcta         string `json:"fee_octa,omitempty"`
}
