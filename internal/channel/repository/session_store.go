// Package repository provides the in-memory stores backing the secure
// channel: the session map and the bounded replay cache.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
)

// SessionStore is an in-memory registry of open sessions keyed by target
// agent. Mutations for a target are serialized by the store lock.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
	}
}

// Put records the session for its target, replacing any existing one.
func (s *SessionStore) Put(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *session
	s.sessions[session.TargetAgentID] = &clone
	return nil
}

// Get retrieves the session for the target.
// Returns ErrSessionNotFound if absent.
func (s *SessionStore) Get(ctx context.Context, targetAgentID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[targetAgentID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	clone := *session
	return &clone, nil
}

// RecordActivity bumps the message count and last-activity timestamp for the
// target's session. Called only after the transport reported success.
func (s *SessionStore) RecordActivity(ctx context.Context, targetAgentID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[targetAgentID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.MessageCount++
	session.LastActivityAt = at
	return nil
}

// Delete marks the target's session inactive and removes it. Deleting an
// unknown target is a no-op, making close idempotent.
func (s *SessionStore) Delete(ctx context.Context, targetAgentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[targetAgentID]
	if !ok {
		return nil
	}
	session.IsActive = false
	delete(s.sessions, targetAgentID)
	return nil
}

// ListActive returns a snapshot of all active sessions.
func (s *SessionStore) ListActive(ctx context.Context) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if !session.IsActive {
			continue
		}
		clone := *session
		sessions = append(sessions, &clone)
	}
	return sessions, nil
}
