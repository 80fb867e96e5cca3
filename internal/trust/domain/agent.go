// Package domain defines the trust service's domain models: registered
// agents, the security policy, operation results, and audit events.
package domain

import (
	"time"

	"github.com/google/uuid"

	caDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/domain"
)

// AgentInfo is the registration input for a new agent.
type AgentInfo struct {
	Name         string
	BaseURL      string
	RedirectURIs []string
	Subject      caDomain.SubjectInfo
}

// Agent is a registered agent: the link between its trust-layer identity and
// its OAuth client.
type Agent struct {
	AgentID      string
	ClientID     uuid.UUID
	BaseURL      string
	RegisteredAt time.Time
}

// OAuthEndpoints are the endpoints a registered agent authenticates against.
type OAuthEndpoints struct {
	AuthorizeURL string `json:"authorize_url"`
	TokenURL     string `json:"token_url"`
}
