// Package repository provides in-memory, lock-protected stores for the token
// authority. Each store guards its own state with an RWMutex so unrelated
// stores never contend, and no store method performs I/O.
package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
)

// ClientStore is an in-memory registry of registered clients.
type ClientStore struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*domain.Client
}

// NewClientStore creates an empty client store.
func NewClientStore() *ClientStore {
	return &ClientStore{
		clients: make(map[uuid.UUID]*domain.Client),
	}
}

// Create stores a new client.
func (s *ClientStore) Create(ctx context.Context, client *domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[client.ID] = cloneClient(client)
	return nil
}

// Update replaces an existing client. Returns ErrClientNotFound if absent.
func (s *ClientStore) Update(ctx context.Context, client *domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client.ID]; !ok {
		return domain.ErrClientNotFound
	}
	s.clients[client.ID] = cloneClient(client)
	return nil
}

// Get retrieves a client by ID. Returns ErrClientNotFound if absent.
func (s *ClientStore) Get(ctx context.Context, clientID uuid.UUID) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[clientID]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	return cloneClient(client), nil
}

// cloneClient copies a client so callers never share the stored instance.
func cloneClient(c *domain.Client) *domain.Client {
	clone := *c
	clone.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	clone.Scopes = append([]string(nil), c.Scopes...)
	clone.GrantTypes = append([]domain.GrantType(nil), c.GrantTypes...)
	return &clone
}
