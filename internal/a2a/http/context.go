package http

import (
	"context"

	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
)

// contextKey is a private type for context keys defined in this package.
type contextKey string

// identityContextKey is the context key for the authenticated token identity.
const identityContextKey contextKey = "identity"

// ContextWithIdentity returns a new context carrying the authenticated identity.
func ContextWithIdentity(ctx context.Context, identity *tokenDomain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext extracts the authenticated identity from the context.
// Returns false if no identity is present.
func IdentityFromContext(ctx context.Context) (*tokenDomain.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*tokenDomain.Identity)
	return identity, ok
}
