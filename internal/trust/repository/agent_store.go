// Package repository provides the in-memory stores backing the trust
// service: the agent registry and the security metrics store.
package repository

import (
	"context"
	"sync"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
)

// AgentStore is an in-memory registry of registered agents keyed by agent ID.
// It doubles as the channel layer's directory for endpoint resolution.
type AgentStore struct {
	mu     sync.RWMutex
	agents map[string]*domain.Agent
}

// NewAgentStore creates an empty agent store.
func NewAgentStore() *AgentStore {
	return &AgentStore{
		agents: make(map[string]*domain.Agent),
	}
}

// Create stores a new agent. Returns ErrAgentExists if the ID is taken.
func (s *AgentStore) Create(ctx context.Context, agent *domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[agent.AgentID]; ok {
		return domain.ErrAgentExists
	}

	clone := *agent
	s.agents[agent.AgentID] = &clone
	return nil
}

// Get retrieves an agent by ID. Returns ErrAgentNotFound if absent.
func (s *AgentStore) Get(ctx context.Context, agentID string) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agents[agentID]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}

	clone := *agent
	return &clone, nil
}

// Resolve returns the agent's message endpoint base URL.
func (s *AgentStore) Resolve(ctx context.Context, agentID string) (string, error) {
	agent, err := s.Get(ctx, agentID)
	if err != nil {
		return "", err
	}
	return agent.BaseURL, nil
}
