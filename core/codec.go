package core

import (
	"crypto/ed25519"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fardream/go-bcs/bcs"
	"golang.org/x/crypto/sha3"
)

// rawTransactionSalt is the domain separator mixed into every signing
// digest. Signatures over bytes salted this way cannot be replayed as
// signatures over any other message family.
const rawTransactionSalt = "GARUDA::RawTransaction"

// SigningDigest is the fixed-length hash a signature is produced over.
type SigningDigest [32]byte

// Hex returns the 0x-prefixed hex form of the digest.
func (d SigningDigest) Hex() string {
	return hexutil.Encode(d[:])
}

// Wire shapes for the canonical BCS encoding. The ledger verifies against
// exactly these bytes, so submission and signing must both go through
// EncodeTransaction.
type wireEntryFunction struct {
	ModuleAddress Address
	ModuleName    string
	FunctionName  string
	TypeArgs      []string
	Args          [][]byte
}

type wireTransaction struct {
	Sender                  Address
	SequenceNumber          uint64
	Payload                 wireEntryFunction
	MaxGasAmount            uint64
	GasUnitPrice            uint64
	ExpirationTimestampSecs uint64
	ChainID                 uint8
	FeePayer                bool
}

type wireAuthenticator struct {
	Scheme    uint8
	PublicKey PublicKeyMaterial
	Signature []byte
}

// EncodeTransaction produces the canonical BCS encoding of a transaction.
func EncodeTransaction(tx *UnsignedTransaction) ([]byte, error) {
	fn, err := ParseFunctionID(tx.Intent.Function)
	if err != nil {
		return nil, err
	}

	args := make([][]byte, 0, len(tx.Intent.Args))
	for n, arg := range tx.Intent.Args {
		enc, err := EncodeArgument(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", n, err)
		}
		args = append(args, enc)
	}

	wire := wireTransaction{
		Sender:         tx.Sender,
		SequenceNumber: tx.SequenceNumber,
		Payload: wireEntryFunction{
			ModuleAddress: fn.ModuleAddress,
			ModuleName:    fn.ModuleName,
			FunctionName:  fn.FunctionName,
			TypeArgs:      tx.Intent.TypeArgs,
			Args:          args,
		},
		MaxGasAmount:            tx.MaxGasAmount,
		GasUnitPrice:            tx.GasUnitPrice,
		ExpirationTimestampSecs: tx.ExpirationTimestampSecs,
		ChainID:                 tx.ChainID,
		FeePayer:                tx.FeePayer,
	}

	enc, err := bcs.Marshal(&wire)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}
	return enc, nil
}

// EncodeArgument BCS-encodes a single entry-function argument. The accepted
// set is uint8/16/32/64, bool, string, Address, []byte, and homogeneous
// vectors of those (as []any).
func EncodeArgument(v any) ([]byte, error) {
	switch x := v.(type) {
	case uint8, uint16, uint32, uint64, bool, string, Address, []byte:
		return bcs.Marshal(x)
	case []any:
		out := appendULEB128(nil, uint64(len(x)))
		for _, item := range x {
			enc, err := EncodeArgument(item)
			if err != nil {
				return nil, err
			}
			out = append(out, enc...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported argument type %T", ErrInvalidIntent, v)
	}
}

func appendULEB128(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// ComputeDigest derives the signing digest for a built transaction: the
// SHA3-256 of the salted canonical encoding. Pure function of its input.
func ComputeDigest(tx *UnsignedTransaction) (SigningDigest, error) {
	enc, err := EncodeTransaction(tx)
	if err != nil {
		return SigningDigest{}, err
	}

	prefix := sha3.Sum256([]byte(rawTransactionSalt))
	msg := make([]byte, 0, len(prefix)+len(enc))
	msg = append(msg, prefix[:]...)
	msg = append(msg, enc...)
	return SigningDigest(sha3.Sum256(msg)), nil
}

// AssembleAuthenticator wraps a normalized public key and a raw signature
// into the authenticator shape the ledger verifies. Length rejection here
// indicates an upstream normalization defect, not a user-facing error.
func AssembleAuthenticator(publicKey []byte, sig *RawSignature) (*Authenticator, error) {
	if len(publicKey) != PublicKeyLength {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyMaterial, len(publicKey), PublicKeyLength)
	}
	if sig == nil || len(sig.Bytes) != SignatureLength {
		got := 0
		if sig != nil {
			got = len(sig.Bytes)
		}
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSignature, got, SignatureLength)
	}

	auth := &Authenticator{
		Scheme:    AuthSchemeEd25519,
		Signature: append([]byte(nil), sig.Bytes...),
	}
	copy(auth.PublicKey[:], publicKey)
	return auth, nil
}

// EncodeAuthenticator produces the canonical BCS encoding of an
// authenticator, matching the wire format the ledger and the sponsorship
// backend expect.
func EncodeAuthenticator(a *Authenticator) ([]byte, error) {
	wire := wireAuthenticator{
		Scheme:    uint8(a.Scheme),
		PublicKey: a.PublicKey,
		Signature: a.Signature,
	}
	return bcs.Marshal(&wire)
}

// VerifyAuthenticator reports whether the authenticator's signature is valid
// over the given digest.
func VerifyAuthenticator(a *Authenticator, digest SigningDigest) bool {
	if a == nil || a.Scheme != AuthSchemeEd25519 {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(a.PublicKey[:]), digest[:], a.Signature)
}
