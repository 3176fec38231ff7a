package core

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// AddressLength is the byte length of an account address.
const AddressLength = 32

// Address is a 32-byte account address.
type Address [AddressLength]byte

// ParseAddress parses a hex account address. Short forms such as "0x1" are
// left-padded to 32 bytes.
func ParseAddress(s string) (Address, error) {
	var addr Address

	h := strings.TrimPrefix(strings.ToLower(s), "0x")
	if h == "" {
		return addr, fmt.Errorf("empty address")
	}
	if len(h)%2 != 0 {
		h = "0" + h
	}

	raw, err := hex.DecodeString(h)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(raw) > AddressLength {
		return addr, fmt.Errorf("address %q exceeds %d bytes", s, AddressLength)
	}

	copy(addr[AddressLength-len(raw):], raw)
	return addr, nil
}

// Hex returns the 0x-prefixed full-length hex form of the address.
func (a Address) Hex() string {
	return hexutil.Encode(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// DeriveAddress computes the account address owned by an ed25519 public key:
// the SHA3-256 of the key bytes followed by the scheme byte.
func DeriveAddress(pk PublicKeyMaterial) Address {
	preimage := make([]byte, 0, len(pk)+1)
	preimage = append(preimage, pk[:]...)
	preimage = append(preimage, byte(AuthSchemeEd25519))
	return Address(sha3.Sum256(preimage))
}
