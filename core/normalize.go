package core

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// NormalizePublicKey normalizes a hex public key to its 64-character form.
// A 66-character input carries a leading scheme/version byte, which is
// stripped; this is a format-compatibility rule, not a cryptographic
// operation. A 64-character input passes through unchanged.
func NormalizePublicKey(s string) (string, error) {
	h := strings.ToLower(strings.TrimPrefix(s, "0x"))
	if len(h) == 2*(PublicKeyLength+1) {
		h = h[2:]
	}
	if len(h) != 2*PublicKeyLength {
		return "", fmt.Errorf("%w: %d hex characters", ErrInvalidKeyMaterial, len(h))
	}
	if _, err := hex.DecodeString(h); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return h, nil
}

// PublicKeyFromHex normalizes and decodes a hex public key.
func PublicKeyFromHex(s string) (PublicKeyMaterial, error) {
	var pk PublicKeyMaterial

	h, err := NormalizePublicKey(s)
	if err != nil {
		return pk, err
	}
	raw, _ := hex.DecodeString(h)
	copy(pk[:], raw)
	return pk, nil
}

// NormalizeSignature strips an optional 0x prefix from a hex signature. No
// other transformation is applied.
func NormalizeSignature(s string) string {
	return strings.TrimPrefix(s, "0x")
}

// SignatureFromHex decodes a hex signature, rejecting anything that is not
// exactly 64 bytes.
func SignatureFromHex(s string) ([]byte, error) {
	raw, err := hex.DecodeString(NormalizeSignature(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(raw) != SignatureLength {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSignature, len(raw), SignatureLength)
	}
	return raw, nil
}
