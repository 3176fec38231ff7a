package ports

import (
	"context"

	"github.com/pollux-labs/garuda/core"
)

// AccountState is the ledger-assigned state needed to build a transaction.
type AccountState struct {
	SequenceNumber uint64
}

// TransactionStatus is the ledger's view of a submitted transaction.
// Pending means no terminal status has been reached yet. A terminal status
// with Success false means the transaction was accepted into the ledger but
// its execution aborted.
type TransactionStatus struct {
	Pending     bool
	Success     bool
	AbortReason string
	GasUsed     uint64
}

// Ledger is the chain node surface this service consumes: account state for
// sequencing, direct submission, and status by hash.
type Ledger interface {
	Account(ctx context.Context, address core.Address) (*AccountState, error)

	// Submit sends an assembled transaction straight to the ledger and
	// returns its hash. Ledger rejections are surfaced verbatim.
	Submit(ctx context.Context, tx *core.UnsignedTransaction, auth *core.Authenticator) (string, error)

	TransactionByHash(ctx context.Context, hash string) (*TransactionStatus, error)
}
