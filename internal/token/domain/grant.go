package domain

import (
	"time"

	"github.com/google/uuid"
)

// Grant is a single-use authorization code bound to a client, redirect URI,
// and PKCE challenge. A grant that has been consumed or has passed ExpiresAt
// is permanently invalid.
type Grant struct {
	CodeHash      string // SHA-256 hash of the authorization code
	ClientID      uuid.UUID
	RedirectURI   string
	Scope         string
	CodeChallenge string // PKCE S256 challenge the verifier must hash to
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Expired reports whether the grant is past its expiry at the given instant.
func (g *Grant) Expired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// AuthorizeInput contains the parameters for an authorization request.
type AuthorizeInput struct {
	ClientID      uuid.UUID
	RedirectURI   string
	Scope         string
	CodeChallenge string // PKCE S256 challenge, required
}

// AuthorizeOutput contains the issued single-use code and the authorization
// URL the caller redirects to.
type AuthorizeOutput struct {
	Code             string
	AuthorizationURL string
	ExpiresAt        time.Time
}

// ExchangeCodeInput contains the parameters for exchanging an authorization
// code for a token pair.
type ExchangeCodeInput struct {
	Code         string
	ClientID     uuid.UUID
	ClientSecret string
	RedirectURI  string
	CodeVerifier string
}
