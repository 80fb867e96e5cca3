// Package service provides supporting machinery for the trust service:
// audit event signing and per-client rate limiting.
package service

import (
	"context"

	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
)

// AuditSigner signs and verifies security events so tampering with stored
// audit history is detectable.
type AuditSigner interface {
	// Sign generates the HMAC-SHA256 signature for the event.
	Sign(event *trustDomain.SecurityEvent) ([]byte, error)

	// Verify checks the event's signature. Returns ErrSignatureInvalid if
	// the event was altered after signing.
	Verify(event *trustDomain.SecurityEvent) error
}

// RateLimiter throttles operations per key.
type RateLimiter interface {
	// Allow reports whether one more operation for the key fits the limit.
	Allow(key string) bool

	// StartCleanup removes stale per-key limiters on the given interval
	// until the context is cancelled.
	StartCleanup(ctx context.Context)
}
