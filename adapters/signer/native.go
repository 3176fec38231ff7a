package signer

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/pollux-labs/garuda/core"
	"github.com/pollux-labs/garuda/ports"
)

// LocalKeySigner is a NativeSigner holding its ed25519 key in process, the
// server-side analog of a browser-extension wallet. It computes the digest,
// signs, and assembles the authenticator itself.
type LocalKeySigner struct {
	priv    ed25519.PrivateKey
	public  core.PublicKeyMaterial
	address core.Address
}

// NewLocalKeySigner creates a native signer from an ed25519 private key.
// The account address is derived from the public key.
func NewLocalKeySigner(priv ed25519.PrivateKey) (*LocalKeySigner, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes", core.ErrSignerUnavailable, ed25519.PrivateKeySize)
	}

	var pk core.PublicKeyMaterial
	copy(pk[:], priv.Public().(ed25519.PublicKey))

	return &LocalKeySigner{
		priv:    priv,
		public:  pk,
		address: core.DeriveAddress(pk),
	}, nil
}

// Address returns the account the signer signs for.
func (s *LocalKeySigner) Address() core.Address {
	return s.address
}

// SignTransaction signs the transaction's digest and returns the assembled
// authenticator together with the transaction it signed.
func (s *LocalKeySigner) SignTransaction(ctx context.Context, tx *core.UnsignedTransaction, asFeePayer bool) (*core.Authenticator, *core.UnsignedTransaction, error) {
	digest, err := core.ComputeDigest(tx)
	if err != nil {
		return nil, nil, err
	}

	sig := &core.RawSignature{
		Signer: s.address,
		Bytes:  ed25519.Sign(s.priv, digest[:]),
	}

	auth, err := core.AssembleAuthenticator(s.public[:], sig)
	if err != nil {
		return nil, nil, err
	}
	return auth, tx, nil
}

var _ ports.NativeSigner = (*LocalKeySigner)(nil)
