// Package usecase defines business logic interfaces for the token authority.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
)

// ClientStore defines persistence operations for registered clients.
type ClientStore interface {
	// Create stores a new client in the store.
	Create(ctx context.Context, client *tokenDomain.Client) error

	// Update modifies an existing client. Returns ErrClientNotFound if absent.
	Update(ctx context.Context, client *tokenDomain.Client) error

	// Get retrieves a client by ID. Returns ErrClientNotFound if absent.
	Get(ctx context.Context, clientID uuid.UUID) (*tokenDomain.Client, error)
}

// GrantStore defines persistence operations for authorization grants.
type GrantStore interface {
	// Create stores a new grant.
	Create(ctx context.Context, grant *tokenDomain.Grant) error

	// Consume atomically retrieves and deletes a grant by code hash.
	// Returns ErrGrantNotFound for unknown or already-consumed codes.
	Consume(ctx context.Context, codeHash string) (*tokenDomain.Grant, error)

	// DeleteExpired removes grants past their expiry, returning the count removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// TokenStore defines persistence operations for issued tokens.
type TokenStore interface {
	// Create stores a new token.
	Create(ctx context.Context, token *tokenDomain.Token) error

	// GetByHash retrieves a token by hash. Returns ErrTokenNotFound if absent.
	GetByHash(ctx context.Context, tokenHash string) (*tokenDomain.Token, error)

	// Revoke marks a token revoked. Idempotent on unknown tokens.
	Revoke(ctx context.Context, tokenID uuid.UUID, at time.Time) error

	// DeleteExpired removes tokens past their expiry, returning the count removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Authority defines the token authority's operations: OAuth2-style client
// registration, PKCE-protected code issuance and exchange, token validation,
// revocation, and expiry sweeping.
type Authority interface {
	// RegisterClient registers a new client with a generated secret.
	// The plain secret is only returned once.
	RegisterClient(
		ctx context.Context,
		input *tokenDomain.RegisterClientInput,
	) (*tokenDomain.RegisterClientOutput, error)

	// Authorize validates the client and redirect URI and issues a single-use
	// authorization code bound to the supplied PKCE challenge.
	Authorize(ctx context.Context, input *tokenDomain.AuthorizeInput) (*tokenDomain.AuthorizeOutput, error)

	// ExchangeCode consumes an authorization code and mints a linked
	// access/refresh token pair. The code is invalid afterwards regardless of
	// the exchange outcome.
	ExchangeCode(ctx context.Context, input *tokenDomain.ExchangeCodeInput) (*tokenDomain.TokenPair, error)

	// Refresh rotates a refresh token: the presented pair is revoked and a new
	// pair is minted for the same client and scope.
	Refresh(ctx context.Context, refreshToken string) (*tokenDomain.TokenPair, error)

	// ClientCredentials mints a token pair directly from client credentials.
	// Used by secure channels when opening a session.
	ClientCredentials(
		ctx context.Context,
		clientID uuid.UUID,
		clientSecret string,
		scope string,
	) (*tokenDomain.TokenPair, error)

	// Validate resolves an access token to the identity it was issued to.
	// Expired, revoked, and unknown tokens all fail with an authentication error.
	Validate(ctx context.Context, accessToken string) (*tokenDomain.Identity, error)

	// Revoke revokes a token and its linked sibling. Idempotent on unknown tokens.
	Revoke(ctx context.Context, plainToken string) error

	// RevokeClient deactivates a client so it can no longer authenticate.
	// The client record is preserved for audit history.
	RevokeClient(ctx context.Context, clientID uuid.UUID) error

	// SweepExpired removes expired grants and tokens, returning counts removed.
	SweepExpired(ctx context.Context) (grants int, tokens int, err error)

	// StartSweeper runs SweepExpired on the configured interval until the
	// context is cancelled. It never blocks a foreground request.
	StartSweeper(ctx context.Context)
}
