// Package usecase defines business logic interfaces for the secure channel.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	caService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/service"
	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
)

// SessionStore defines persistence operations for open sessions.
type SessionStore interface {
	// Put records the session for its target, replacing any existing one.
	Put(ctx context.Context, session *channelDomain.Session) error

	// Get retrieves the session for the target. Returns ErrSessionNotFound if absent.
	Get(ctx context.Context, targetAgentID string) (*channelDomain.Session, error)

	// RecordActivity bumps message count and last activity for the target.
	RecordActivity(ctx context.Context, targetAgentID string, at time.Time) error

	// Delete removes the target's session. Idempotent on unknown targets.
	Delete(ctx context.Context, targetAgentID string) error

	// ListActive returns a snapshot of all active sessions.
	ListActive(ctx context.Context) ([]*channelDomain.Session, error)
}

// ReplayGuard tracks processed envelope IDs.
type ReplayGuard interface {
	// Seen reports whether the message ID was already processed.
	Seen(ctx context.Context, messageID string) bool

	// Record marks the message ID as processed.
	Record(ctx context.Context, messageID string)
}

// TokenIssuer mints bearer tokens for outbound sessions.
type TokenIssuer interface {
	ClientCredentials(
		ctx context.Context,
		clientID uuid.UUID,
		clientSecret string,
		scope string,
	) (*tokenDomain.TokenPair, error)
}

// CertificateProvider builds validated TLS material for an agent. Used for
// high-security sessions only.
type CertificateProvider interface {
	TLSMaterial(ctx context.Context, agentID string, serverName string) (*caService.TLSMaterial, error)
}

// AgentDirectory resolves a target agent to its message endpoint.
type AgentDirectory interface {
	Resolve(ctx context.Context, agentID string) (baseURL string, err error)
}

// Handler processes a dispatched inbound message and returns response data.
type Handler func(ctx context.Context, envelope *channelDomain.Envelope, payload []byte) (json.RawMessage, error)

// Channel defines the secure channel's operations: session lifecycle and
// signed, optionally encrypted message exchange with replay protection.
type Channel interface {
	// SetCredentials installs the OAuth client identity used to open
	// sessions. Open fails with a state error until credentials are set.
	SetCredentials(clientID uuid.UUID, clientSecret string)

	// Open establishes a session with the target. For high security the
	// whole operation fails unless mTLS material validates for both sides;
	// the session is recorded only after every step succeeded.
	Open(
		ctx context.Context,
		targetAgentID string,
		level channelDomain.SecurityLevel,
	) (*channelDomain.Session, error)

	// Send signs, optionally encrypts, and delivers a message over an open
	// session. Fails with a state error without an active session.
	Send(
		ctx context.Context,
		targetAgentID string,
		messageType channelDomain.MessageType,
		payload json.RawMessage,
		opts channelDomain.SendOptions,
	) (*channelDomain.Response, error)

	// Receive verifies and dispatches an inbound envelope: replay check,
	// then signature, then decryption, then the handler for its type.
	Receive(ctx context.Context, envelope *channelDomain.Envelope) (*channelDomain.Response, error)

	// RegisterHandler installs the handler for a known message type.
	RegisterHandler(messageType channelDomain.MessageType, handler Handler) error

	// Close marks the target's session inactive and removes it. Idempotent.
	Close(ctx context.Context, targetAgentID string) error

	// Status returns the read-only projection of the target's session.
	Status(ctx context.Context, targetAgentID string) (*channelDomain.SessionStatus, error)

	// ListActive returns projections of all active sessions.
	ListActive(ctx context.Context) ([]*channelDomain.SessionStatus, error)
}
