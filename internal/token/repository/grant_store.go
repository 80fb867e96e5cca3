package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
)

// GrantStore is an in-memory registry of pending authorization grants,
// keyed by the SHA-256 hash of the authorization code.
type GrantStore struct {
	mu     sync.Mutex
	grants map[string]*domain.Grant
}

// NewGrantStore creates an empty grant store.
func NewGrantStore() *GrantStore {
	return &GrantStore{
		grants: make(map[string]*domain.Grant),
	}
}

// Create stores a new grant.
func (s *GrantStore) Create(ctx context.Context, grant *domain.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *grant
	s.grants[grant.CodeHash] = &clone
	return nil
}

// Consume atomically retrieves and deletes a grant by code hash, enforcing
// single use: a second Consume for the same hash returns ErrGrantNotFound
// no matter how the first exchange attempt ended.
func (s *GrantStore) Consume(ctx context.Context, codeHash string) (*domain.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[codeHash]
	if !ok {
		return nil, domain.ErrGrantNotFound
	}
	delete(s.grants, codeHash)

	clone := *grant
	return &clone, nil
}

// DeleteExpired removes all grants past their expiry at the given instant.
// Returns the number of grants removed.
func (s *GrantStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for hash, grant := range s.grants {
		if grant.Expired(now) {
			delete(s.grants, hash)
			removed++
		}
	}
	return removed, nil
}
