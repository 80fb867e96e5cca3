package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Token is an issued access or refresh token, stored hashed at rest.
// Access and refresh tokens are minted as linked pairs: LinkedID points at
// the sibling so revocation can cascade across the pair.
type Token struct {
	ID        uuid.UUID
	TokenHash string
	ClientID  uuid.UUID
	Scope     string
	Kind      TokenKind
	ExpiresAt time.Time
	RevokedAt *time.Time
	LinkedID  uuid.UUID // sibling token of the pair (uuid.Nil if unlinked)
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Revoked reports whether the token has been revoked.
func (t *Token) Revoked() bool {
	return t.RevokedAt != nil
}

// TokenPair is the result of minting tokens: the plain access and refresh
// tokens, returned exactly once.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string // always "Bearer"
	ExpiresIn    int    // access token lifetime in seconds
	Scope        string
}

// Identity is the validated identity behind an access token. It is the value
// every inbound request check resolves to.
type Identity struct {
	ClientID  uuid.UUID
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SplitScopes converts a space-separated scope string into its parts.
func SplitScopes(scope string) []string {
	return strings.Fields(scope)
}
