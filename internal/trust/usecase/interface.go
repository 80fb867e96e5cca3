// Package usecase defines business logic interfaces for the trust service.
package usecase

import (
	"context"
	"encoding/json"

	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
)

// AgentStore defines persistence operations for registered agents.
type AgentStore interface {
	// Create stores a new agent. Returns ErrAgentExists if the ID is taken.
	Create(ctx context.Context, agent *trustDomain.Agent) error

	// Get retrieves an agent by ID. Returns ErrAgentNotFound if absent.
	Get(ctx context.Context, agentID string) (*trustDomain.Agent, error)
}

// MetricsStore accumulates security counters and the recent event log.
type MetricsStore interface {
	RecordSuccess(ctx context.Context, agentID string)
	RecordFailure(ctx context.Context, agentID string, errorCode string)
	RecordBlocked(ctx context.Context, agentID string, errorCode string)
	AppendEvent(ctx context.Context, event trustDomain.SecurityEvent)
	Snapshot(ctx context.Context) *trustDomain.SecurityMetrics
}

// AuthenticateInput carries an authentication attempt and the request
// attributes the security policy inspects.
type AuthenticateInput struct {
	ClientID      string
	ClientSecret  string
	SecurityLevel channelDomain.SecurityLevel
	SourceIP      string
	UserAgent     string
}

// Service is the trust layer's orchestrating facade. It is the only layer
// that converts typed errors into structured results; every failure is still
// audited and counted.
type Service interface {
	// RegisterAgent registers an agent with the token authority and, when
	// the policy enables mTLS, issues its certificate.
	RegisterAgent(ctx context.Context, info *trustDomain.AgentInfo) *trustDomain.RegisterAgentResult

	// AuthenticateAgent enforces the security policy, then delegates to the
	// token authority. Policy violations never touch authority state.
	AuthenticateAgent(ctx context.Context, input *AuthenticateInput) *trustDomain.AuthenticationResult

	// EstablishSecureChannel opens a secure channel to the target.
	EstablishSecureChannel(
		ctx context.Context,
		targetAgentID string,
		level channelDomain.SecurityLevel,
	) *trustDomain.ChannelResult

	// SendSecureMessage sends a message over an established channel.
	SendSecureMessage(
		ctx context.Context,
		targetAgentID string,
		messageType channelDomain.MessageType,
		payload json.RawMessage,
		opts channelDomain.SendOptions,
	) *trustDomain.MessageResult

	// PerformHealthCheck probes the target agent and classifies the outcome
	// by success and latency.
	PerformHealthCheck(ctx context.Context, targetAgentID string) *trustDomain.HealthResult

	// SecurityMetrics returns the aggregated counter snapshot.
	SecurityMetrics(ctx context.Context) *trustDomain.SecurityMetrics
}
