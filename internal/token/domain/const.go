// Package domain defines the token authority's domain models.
// It covers registered OAuth2 clients, single-use authorization grants with
// PKCE binding, and linked access/refresh token pairs.
package domain

// GrantType identifies an OAuth2 grant flow a client is allowed to use.
type GrantType string

const (
	// AuthorizationCodeGrant is the PKCE-protected authorization code flow.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a new token pair.
	RefreshTokenGrant GrantType = "refresh_token"

	// ClientCredentialsGrant exchanges client credentials directly for a token
	// pair. Secure channels use this grant when opening a session.
	ClientCredentialsGrant GrantType = "client_credentials"
)

// TokenKind distinguishes short-lived access tokens from long-lived refresh tokens.
type TokenKind string

const (
	// AccessToken is a short-lived bearer credential presented on every request.
	AccessToken TokenKind = "access"

	// RefreshToken is a long-lived credential used only to mint new pairs.
	RefreshToken TokenKind = "refresh"
)

// DefaultScope is granted to clients registered without explicit scopes.
const DefaultScope = "a2a:message"

// DefaultGrantTypes are granted to clients registered without explicit grant types.
var DefaultGrantTypes = []GrantType{
	AuthorizationCodeGrant,
	RefreshTokenGrant,
	ClientCredentialsGrant,
}
