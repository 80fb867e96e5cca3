package domain

import (
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

// Secure channel errors.
var (
	// ErrSessionNotFound indicates no session exists for the target agent.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")

	// ErrNoActiveSession indicates a send was attempted without an open,
	// active session for the target.
	ErrNoActiveSession = errors.Wrap(errors.ErrState, "no active connection")

	// ErrSignatureInvalid indicates an envelope signature failed verification.
	ErrSignatureInvalid = errors.Wrap(errors.ErrSecurity, "envelope signature invalid")

	// ErrEnvelopeReplayed indicates the envelope ID was already processed.
	ErrEnvelopeReplayed = errors.Wrap(errors.ErrReplay, "envelope already processed")

	// ErrEnvelopeStale indicates the envelope timestamp falls outside the
	// accepted clock-skew window.
	ErrEnvelopeStale = errors.Wrap(errors.ErrSecurity, "envelope timestamp outside accepted window")

	// ErrUnknownMessageType indicates the envelope type is outside the
	// closed handler set.
	ErrUnknownMessageType = errors.Wrap(errors.ErrValidation, "unknown message type")
)
