package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
)

// TokenStore is an in-memory registry of issued tokens with a secondary
// index from token hash to token ID for validation lookups.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]*domain.Token
	byHash map[string]uuid.UUID
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[uuid.UUID]*domain.Token),
		byHash: make(map[string]uuid.UUID),
	}
}

// Create stores a new token.
func (s *TokenStore) Create(ctx context.Context, token *domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *token
	s.tokens[token.ID] = &clone
	s.byHash[token.TokenHash] = token.ID
	return nil
}

// GetByHash retrieves a token by its SHA-256 hash.
// Returns ErrTokenNotFound if absent.
func (s *TokenStore) GetByHash(ctx context.Context, tokenHash string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[tokenHash]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	token := s.tokens[id]

	clone := *token
	return &clone, nil
}

// Revoke marks a token revoked at the given instant. Revoking an unknown or
// already-revoked token is a no-op, making the operation idempotent.
func (s *TokenStore) Revoke(ctx context.Context, tokenID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok || token.RevokedAt != nil {
		return nil
	}
	revokedAt := at
	token.RevokedAt = &revokedAt
	return nil
}

// DeleteExpired removes all tokens past their expiry at the given instant.
// Returns the number of tokens removed.
func (s *TokenStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, token := range s.tokens {
		if token.Expired(now) {
			delete(s.byHash, token.TokenHash)
			delete(s.tokens, id)
			removed++
		}
	}
	return removed, nil
}
