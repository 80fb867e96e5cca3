package domain

import (
	"crypto/tls"
	"time"
)

// Session is an established channel to a target agent. A session exists only
// after every step of the opening handshake succeeded; callers never observe
// a partially opened session.
type Session struct {
	TargetAgentID   string
	SecurityLevel   SecurityLevel
	BearerToken     string
	TLSClientConfig *tls.Config // nil below SecurityLevelHigh
	EstablishedAt   time.Time
	LastActivityAt  time.Time
	MessageCount    int64
	IsActive        bool
}

// SessionStatus is the read-only projection returned by status queries.
type SessionStatus struct {
	TargetAgentID  string
	SecurityLevel  SecurityLevel
	EstablishedAt  time.Time
	LastActivityAt time.Time
	MessageCount   int64
	IsActive       bool
}
