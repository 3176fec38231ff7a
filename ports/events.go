package ports

import (
	"context"

	"github.com/pollux-labs/garuda/core"
)

// EventPublisher publishes submission outcomes for downstream consumers
type EventPublisher interface {
	PublishOutcome(ctx context.Context, event *core.OutcomeEvent) error
}
