package ports

import (
	"context"

	"github.com/pollux-labs/garuda/core"
)

// Sponsor is the sponsorship backend surface. Implementations must funnel
// every failure mode, backend-reported or transport-level, into the
// response's fallback signal rather than returning transport errors: the
// orchestrator treats the response as the single fallback contract.
type Sponsor interface {
	SponsorTransaction(ctx context.Context, serializedTx, serializedAuth []byte, sender core.Address) (*core.SponsorshipResponse, error)

	Status(ctx context.Context, address core.Address) (*core.SponsorshipStatus, error)
}
