package domain

import (
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

// Token authority errors.
var (
	// ErrClientNotFound indicates a client with the specified ID was not found.
	ErrClientNotFound = errors.Wrap(errors.ErrNotFound, "client not found")

	// ErrGrantNotFound indicates an authorization code was unknown or already consumed.
	ErrGrantNotFound = errors.Wrap(errors.ErrNotFound, "authorization grant not found")

	// ErrTokenNotFound indicates a token with the specified hash was not found.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")

	// ErrInvalidCredentials is returned for any unknown client, wrong secret,
	// or invalid/expired/revoked code or token. A single error for all of these
	// prevents enumeration of registered clients.
	ErrInvalidCredentials = errors.Wrap(errors.ErrAuthentication, "invalid credentials")

	// ErrClientInactive indicates the client exists but has been deactivated.
	ErrClientInactive = errors.Wrap(errors.ErrAuthentication, "client is not active")

	// ErrGrantTypeNotAllowed indicates the client is not registered for the
	// requested grant flow.
	ErrGrantTypeNotAllowed = errors.Wrap(errors.ErrAuthentication, "grant type not allowed")
)
