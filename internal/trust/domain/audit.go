package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a security event.
type EventType string

const (
	EventAgentRegistered    EventType = "agent_registered"
	EventAuthentication     EventType = "authentication"
	EventPolicyViolation    EventType = "policy_violation"
	EventChannelEstablished EventType = "channel_established"
	EventMessageSent        EventType = "message_sent"
	EventHealthCheck        EventType = "health_check"
	EventCertificateRevoked EventType = "certificate_revoked"
)

// SecurityEvent is one audit entry. The signature covers the canonical form
// of every other field; a stored event that fails verification was tampered
// with after the fact.
type SecurityEvent struct {
	ID        uuid.UUID
	Type      EventType
	AgentID   string
	Success   bool
	ErrorCode string
	Detail    string
	CreatedAt time.Time
	Signature []byte
}

// SecurityMetrics is the read-only counter snapshot exposed to callers.
type SecurityMetrics struct {
	TotalRequests int64            `json:"total_requests"`
	Successes     int64            `json:"successes"`
	Failures      int64            `json:"failures"`
	Blocked       int64            `json:"blocked"`
	ByErrorCode   map[string]int64 `json:"by_error_code"`
	ByAgent       map[string]int64 `json:"by_agent"`
	RecentEvents  []SecurityEvent  `json:"recent_events"`
}
