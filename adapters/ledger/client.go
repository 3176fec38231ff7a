package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pollux-labs/garuda/core"
	"github.com/pollux-labs/garuda/ports"
)

// Client talks to a ledger node's REST surface: account state, transaction
// submission, and transaction-by-hash lookup.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a ledger client for the node at baseURL.
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, client: client}
}

type accountResponse struct {
	SequenceNumber string `json:"sequence_number"`
}

// Account fetches the on-chain state needed to build a transaction. An
// account the ledger does not know (e.g. never funded) is an error the
// builder surfaces as ErrBuildFailed.
func (c *Client) Account(ctx context.Context, address core.Address) (*ports.AccountState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/accounts/"+address.Hex(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create account request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("account %s not found on ledger", address.Hex())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ledger returned status %d for account %s", resp.StatusCode, address.Hex())
	}

	var parsed accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed account response: %v", core.ErrNetwork, err)
	}

	seq, err := strconv.ParseUint(parsed.SequenceNumber, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed sequence number %q: %w", parsed.SequenceNumber, err)
	}

	return &ports.AccountState{SequenceNumber: seq}, nil
}

type submitRequest struct {
	RawTransaction string `json:"raw_transaction"`
	Authenticator  string `json:"authenticator"`
}

type submitResponse struct {
	Hash    string `json:"hash"`
	Message string `json:"message,omitempty"`
}

// Submit sends an assembled transaction straight to the ledger. The
// transaction and authenticator are serialized with the same canonical
// encoding the signature was produced over.
func (c *Client) Submit(ctx context.Context, tx *core.UnsignedTransaction, auth *core.Authenticator) (string, error) {
	txBytes, err := core.EncodeTransaction(tx)
	if err != nil {
		return "", err
	}
	authBytes, err := core.EncodeAuthenticator(auth)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(submitRequest{
		RawTransaction: hex.EncodeToString(txBytes),
		Authenticator:  hex.EncodeToString(authBytes),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: malformed submission response: %v", core.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		// Surface the ledger's rejection reason verbatim.
		if parsed.Message != "" {
			return "", fmt.Errorf("ledger rejected transaction: %s", parsed.Message)
		}
		return "", fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}

	return parsed.Hash, nil
}

type transactionResponse struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
	GasUsed  string `json:"gas_used"`
}

// TransactionByHash looks up a transaction's status. A hash the ledger has
// not seen yet reports as pending.
func (c *Client) TransactionByHash(ctx context.Context, hash string) (*ports.TransactionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/transactions/by_hash/"+hash, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &ports.TransactionStatus{Pending: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ledger returned status %d for transaction %s", resp.StatusCode, hash)
	}

	var parsed transactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed transaction response: %v", core.ErrNetwork, err)
	}

	if parsed.Type == "pending_transaction" {
		return &ports.TransactionStatus{Pending: true}, nil
	}

	status := &ports.TransactionStatus{Success: parsed.Success}
	if !parsed.Success {
		status.AbortReason = parsed.VMStatus
	}
	if parsed.GasUsed != "" {
		if gas, err := strconv.ParseUint(parsed.GasUsed, 10, 64); err == nil {
			status.GasUsed = gas
		}
	}
	return status, nil
}

var _ ports.Ledger = (*Client)(nil)
