package store

import (
	"context"
	"sync"
	"time"

	"github.com/pollux-labs/garuda/ports"
)

// MemoryStore is an in-memory implementation of the Store interface
type MemoryStore struct {
	reserved map[string]time.Time
	mu       sync.Mutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() ports.Store {
	return &MemoryStore{
		reserved: make(map[string]time.Time),
	}
}

// Reserve claims an idempotency key until its expiry. Expired entries are
// reclaimed lazily on the next reservation attempt.
func (s *MemoryStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiry, exists := s.reserved[key]; exists && now.Before(expiry) {
		return false, nil
	}

	s.reserved[key] = now.Add(ttl)
	return true, nil
}
