package core

import "errors"

var (
	// ErrBuildFailed is returned when the sender's account state cannot be
	// resolved while constructing a transaction
	ErrBuildFailed = errors.New("transaction build failed")

	// ErrSignerUnavailable is returned when no signer is bound to the active
	// session, or the bound signer is missing required key material
	ErrSignerUnavailable = errors.New("signer unavailable")

	// ErrInvalidKeyMaterial is returned when a public key has the wrong
	// length after normalization
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrInvalidSignature is returned when a signature has the wrong length
	// or is not valid hex
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNetwork is returned on transport failure talking to the ledger
	ErrNetwork = errors.New("network error")

	// ErrSponsorshipDenied is returned when the sponsorship backend rejects
	// a transaction without requesting fallback
	ErrSponsorshipDenied = errors.New("sponsorship denied")

	// ErrExecutionFailed is returned when a transaction reached the ledger
	// but its execution aborted
	ErrExecutionFailed = errors.New("chain execution failed")

	// ErrInvalidIntent is returned when a call intent cannot be encoded
	ErrInvalidIntent = errors.New("invalid call intent")

	// ErrDuplicateSubmission is returned when an idempotency key has already
	// been used
	ErrDuplicateSubmission = errors.New("duplicate submission")
)
