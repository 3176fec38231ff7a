package ports

import (
	"context"

	"github.com/pollux-labs/garuda/core"
)

// Signer is the capability bound to the active wallet session. Exactly one
// of the two concrete capability sets is bound at a time; callers dispatch
// with a type switch rather than forcing both shapes into one contract.
type Signer interface {
	// Address returns the account the signer signs for.
	Address() core.Address
}

// NativeSigner is a signer co-located with its key material (the browser
// extension model). It owns digest computation and authenticator assembly
// internally and returns a ready authenticator, along with the transaction
// it actually signed.
type NativeSigner interface {
	Signer

	SignTransaction(ctx context.Context, tx *core.UnsignedTransaction, asFeePayer bool) (*core.Authenticator, *core.UnsignedTransaction, error)
}

// CustodialSigner delegates signing to a remote service that holds the key.
// It signs a caller-supplied digest and returns only the raw signature; the
// caller combines it with the separately-known public key to assemble the
// authenticator.
type CustodialSigner interface {
	Signer

	// PublicKeyHex returns the account's public key as hex, in whatever
	// form the custody service reported it (normalization is the caller's
	// job).
	PublicKeyHex() string

	SignDigest(ctx context.Context, address core.Address, digest core.SigningDigest) (*core.RawSignature, error)
}
