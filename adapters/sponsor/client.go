package sponsor

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pollux-labs/garuda/core"
	"github.com/pollux-labs/garuda/ports"
)

// Client talks to the sponsorship backend. Transport failures never surface
// as errors from SponsorTransaction: they synthesize a fallback-required
// response so that every sponsorship failure mode, backend-reported or
// transport-level, funnels through the same fallback signal.
type Client struct {
	baseURL string
	network string
	client  *http.Client
}

// NewClient creates a sponsorship client for the given backend and network
// ("testnet" or "mainnet").
func NewClient(baseURL, network string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, network: network, client: client}
}

type sponsorRequest struct {
	SerializedTransaction string `json:"serializedTransaction"`
	SenderSignature       string `json:"senderSignature"`
	SenderAddress         string `json:"senderAddress"`
	Network               string `json:"network"`
}

// fallbackResponse is the synthesized reply for any transport-level failure.
func fallbackResponse() *core.SponsorshipResponse {
	return &core.SponsorshipResponse{
		Success:          false,
		FallbackRequired: true,
		Error:            "network error",
	}
}

// SponsorTransaction posts a serialized transaction and authenticator for
// sponsored submission and parses the backend's structured response.
func (c *Client) SponsorTransaction(ctx context.Context, serializedTx, serializedAuth []byte, sender core.Address) (*core.SponsorshipResponse, error) {
	body, err := json.Marshal(sponsorRequest{
		SerializedTransaction: hex.EncodeToString(serializedTx),
		SenderSignature:       hex.EncodeToString(serializedAuth),
		SenderAddress:         sender.Hex(),
		Network:               c.network,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sponsor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sponsor-transaction", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create sponsor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fallbackResponse(), nil
	}
	defer resp.Body.Close()

	// The backend reports denials and fallbacks with a structured body even
	// on non-2xx statuses; an unparseable body is treated as transport
	// failure.
	var parsed core.SponsorshipResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fallbackResponse(), nil
	}
	return &parsed, nil
}

// Status fetches an address's sponsorship standing. Unlike
// SponsorTransaction this is not on the fallback path, so transport
// failures are returned as errors.
func (c *Client) Status(ctx context.Context, address core.Address) (*core.SponsorshipStatus, error) {
	q := url.Values{}
	q.Set("address", address.Hex())
	q.Set("network", c.network)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sponsorship-status?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sponsorship backend returned status %d", resp.StatusCode)
	}

	var parsed core.SponsorshipStatus
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed status response: %v", core.ErrNetwork, err)
	}
	return &parsed, nil
}

var _ ports.Sponsor = (*Client)(nil)
