package ports

import (
	"context"
	"time"
)

// Store reserves idempotency keys so retried HTTP requests cannot submit
// the same intent twice.
type Store interface {
	// Reserve claims a key for the given TTL. It returns false when the key
	// is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
