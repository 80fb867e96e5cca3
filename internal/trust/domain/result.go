package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RegisterAgentResult is the outcome of an agent registration. The client
// secret and private key appear exactly once, here.
type RegisterAgentResult struct {
	Success        bool           `json:"success"`
	AgentID        string         `json:"agent_id,omitempty"`
	ClientID       uuid.UUID      `json:"client_id,omitempty"`
	ClientSecret   string         `json:"client_secret,omitempty"`
	CertificatePEM string         `json:"certificate_pem,omitempty"`
	PrivateKeyPEM  string         `json:"private_key_pem,omitempty"`
	OAuthEndpoints OAuthEndpoints `json:"oauth_endpoints"`
	ErrorCode      string         `json:"error_code,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// AuthenticationResult is the outcome of an authentication attempt. Failures
// carry only a stable error code and category, never internal detail.
type AuthenticationResult struct {
	Success     bool      `json:"success"`
	ClientID    uuid.UUID `json:"client_id,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
	TokenType   string    `json:"token_type,omitempty"`
	ExpiresIn   int64     `json:"expires_in,omitempty"`
	MFARequired bool      `json:"mfa_required"`
	ErrorCode   string    `json:"error_code,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// ChannelResult is the outcome of a channel establishment.
type ChannelResult struct {
	Success       bool      `json:"success"`
	ConnectionID  string    `json:"connection_id,omitempty"`
	HasTLS        bool      `json:"has_tls"`
	EstablishedAt time.Time `json:"established_at,omitzero"`
	ErrorCode     string    `json:"error_code,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// MessageResult is the outcome of a secure message send.
type MessageResult struct {
	Success   bool            `json:"success"`
	MessageID string          `json:"message_id,omitempty"`
	Encrypted bool            `json:"encrypted"`
	Timestamp time.Time       `json:"timestamp"`
	Response  json.RawMessage `json:"response,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// HealthState classifies a health check outcome.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// HealthResult is the outcome of a health check against a target agent.
type HealthResult struct {
	TargetAgentID string      `json:"target_agent_id"`
	State         HealthState `json:"state"`
	Latency       int64       `json:"latency_ms"`
	CheckedAt     time.Time   `json:"checked_at"`
	ErrorCode     string      `json:"error_code,omitempty"`
}
