package domain

import (
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

// Trust service errors.
var (
	// ErrAgentNotFound indicates no agent is registered under the ID.
	ErrAgentNotFound = errors.Wrap(errors.ErrNotFound, "agent not found")

	// ErrAgentExists indicates the agent ID is already registered.
	ErrAgentExists = errors.Wrap(errors.ErrValidation, "agent already registered")

	// ErrIPNotAllowed indicates the source IP failed the allow-list.
	ErrIPNotAllowed = errors.Wrap(errors.ErrSecurity, "source ip not allowed")

	// ErrUserAgentNotAllowed indicates the user agent failed the allow-list.
	ErrUserAgentNotAllowed = errors.Wrap(errors.ErrSecurity, "user agent not allowed")

	// ErrRateLimited indicates the client exceeded the policy rate limit.
	ErrRateLimited = errors.Wrap(errors.ErrRateLimit, "too many authentication attempts")

	// ErrSignatureInvalid indicates an audit event signature failed verification.
	ErrSignatureInvalid = errors.Wrap(errors.ErrSecurity, "audit event signature invalid")
)
