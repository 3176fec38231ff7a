package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pollux-labs/garuda/core"
	"github.com/pollux-labs/garuda/ports"
)

// AudienceRawHash is the JWT audience for raw-hash signing requests.
const AudienceRawHash = "signer:raw-hash"

const requestTokenTTL = 30 * time.Second

// RemoteSigner is a CustodialSigner that delegates to a signing service
// holding the key material. Each request carries a short-lived HS256 bearer
// token minted from the shared API secret.
type RemoteSigner struct {
	baseURL   string
	apiSecret []byte
	client    *http.Client

	address      core.Address
	publicKeyHex string
}

// NewRemoteSigner creates a custodial signer for one account. publicKeyHex
// is the key the custody service reported at wallet creation; it may be
// empty, in which case signing fails with ErrSignerUnavailable.
func NewRemoteSigner(baseURL, apiSecret string, address core.Address, publicKeyHex string, client *http.Client) *RemoteSigner {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RemoteSigner{
		baseURL:      baseURL,
		apiSecret:    []byte(apiSecret),
		client:       client,
		address:      address,
		publicKeyHex: publicKeyHex,
	}
}

// Address returns the account the signer signs for.
func (s *RemoteSigner) Address() core.Address {
	return s.address
}

// PublicKeyHex returns the account's public key as reported by the custody
// service.
func (s *RemoteSigner) PublicKeyHex() string {
	return s.publicKeyHex
}

type signRawHashRequest struct {
	Address   string `json:"address"`
	ChainType string `json:"chainType"`
	Hash      string `json:"hash"`
}

type signRawHashResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error,omitempty"`
}

// SignDigest asks the custody service to sign a digest and returns the raw
// signature. The authenticator is assembled by the caller.
func (s *RemoteSigner) SignDigest(ctx context.Context, address core.Address, digest core.SigningDigest) (*core.RawSignature, error) {
	if s.address.IsZero() || s.publicKeyHex == "" {
		return nil, fmt.Errorf("%w: custodial signer is missing address or public key", core.ErrSignerUnavailable)
	}

	token, err := s.requestToken(address)
	if err != nil {
		return nil, fmt.Errorf("failed to mint request token: %w", err)
	}

	body, err := json.Marshal(signRawHashRequest{
		Address:   address.Hex(),
		ChainType: "move",
		Hash:      digest.Hex(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/sign-raw-hash", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: signing service unreachable: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	var parsed signRawHashResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed signing response: %v", core.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != "" {
			return nil, fmt.Errorf("signing service rejected request: %s", parsed.Error)
		}
		return nil, fmt.Errorf("signing service returned status %d", resp.StatusCode)
	}

	raw, err := core.SignatureFromHex(parsed.Signature)
	if err != nil {
		return nil, err
	}

	return &core.RawSignature{Signer: address, Bytes: raw}, nil
}

// requestToken mints the short-lived bearer token authenticating one
// signing request.
func (s *RemoteSigner) requestToken(address core.Address) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   address.Hex(),
		ID:        uuid.New().String(),
		Audience:  jwt.ClaimStrings{AudienceRawHash},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(requestTokenTTL)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.apiSecret)
}

var _ ports.CustodialSigner = (*RemoteSigner)(nil)
