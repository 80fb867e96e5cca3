// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrValidation indicates the input data is malformed or fails validation.
	ErrValidation = errors.New("validation failed")

	// ErrAuthentication indicates bad credentials or an expired, unknown,
	// or revoked token or authorization code.
	ErrAuthentication = errors.New("authentication failed")

	// ErrSecurity indicates a signature, certificate, or chain-of-trust failure.
	ErrSecurity = errors.New("security check failed")

	// ErrReplay indicates a message with an already-seen id was received.
	ErrReplay = errors.New("message replay detected")

	// ErrRateLimit indicates a security policy rate threshold was exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrState indicates an operation was attempted without the required prior
	// state (e.g., sending a message without an open session).
	ErrState = errors.New("invalid state")

	// ErrTransport indicates an I/O failure in the transport collaborator.
	ErrTransport = errors.New("transport failure")

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Code returns a stable machine-readable code for the error's category.
// Authentication and security failures deliberately map to a category code
// rather than the underlying detail.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrAuthentication):
		return "authentication_error"
	case errors.Is(err, ErrSecurity):
		return "security_error"
	case errors.Is(err, ErrReplay):
		return "replay_error"
	case errors.Is(err, ErrRateLimit):
		return "rate_limit_error"
	case errors.Is(err, ErrState):
		return "state_error"
	case errors.Is(err, ErrTimeout):
		return "timeout_error"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}
