// Package repository provides the in-memory stores backing the certificate
// authority: issued certificates keyed by agent and the revoked serial set.
package repository

import (
	"context"
	"sync"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/domain"
)

// CertStore is an in-memory registry of the latest issued certificate per
// agent. Issuing a new certificate for an agent supersedes the previous one.
type CertStore struct {
	mu    sync.RWMutex
	certs map[string]*domain.AgentCertificate
}

// NewCertStore creates an empty certificate store.
func NewCertStore() *CertStore {
	return &CertStore{
		certs: make(map[string]*domain.AgentCertificate),
	}
}

// Put stores the certificate as the agent's current one, replacing any
// previous certificate for the same agent.
func (s *CertStore) Put(ctx context.Context, cert *domain.AgentCertificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *cert
	s.certs[cert.AgentID] = &clone
	return nil
}

// Get retrieves the agent's current certificate.
// Returns ErrCertificateNotFound if the agent has no certificate.
func (s *CertStore) Get(ctx context.Context, agentID string) (*domain.AgentCertificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, ok := s.certs[agentID]
	if !ok {
		return nil, domain.ErrCertificateNotFound
	}

	clone := *cert
	return &clone, nil
}

// List returns a snapshot of every agent's current certificate.
func (s *CertStore) List(ctx context.Context) ([]*domain.AgentCertificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certs := make([]*domain.AgentCertificate, 0, len(s.certs))
	for _, cert := range s.certs {
		clone := *cert
		certs = append(certs, &clone)
	}
	return certs, nil
}

// RevocationStore is an in-memory set of revoked certificate serial numbers.
// Serials are never removed: revocation is permanent for the process lifetime.
type RevocationStore struct {
	mu      sync.RWMutex
	serials map[int64]struct{}
}

// NewRevocationStore creates an empty revocation store.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{
		serials: make(map[int64]struct{}),
	}
}

// Revoke adds the serial to the revoked set. Revoking an already-revoked
// serial is a no-op, making the operation idempotent.
func (s *RevocationStore) Revoke(ctx context.Context, serial int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.serials[serial] = struct{}{}
	return nil
}

// IsRevoked reports whether the serial is on the revoked set.
func (s *RevocationStore) IsRevoked(ctx context.Context, serial int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.serials[serial]
	return ok, nil
}
