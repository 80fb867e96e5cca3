package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Client represents a registered OAuth2 client identity for an agent.
// Clients authenticate with a secret and are never hard-deleted: revocation
// deactivates the record so its history stays auditable.
type Client struct {
	ID           uuid.UUID   // Unique identifier (UUIDv7)
	Secret       string      //nolint:gosec // hashed client secret (not plaintext)
	Name         string      // Human-readable client name
	RedirectURIs []string    // Registered redirect URIs for the authorization code flow
	Scopes       []string    // Scopes the client may request
	GrantTypes   []GrantType // Grant flows the client may use
	IsActive     bool        // Whether the client can authenticate
	CreatedAt    time.Time
}

// HasRedirectURI reports whether uri is one of the client's registered redirect URIs.
// Comparison is exact; partial or prefix matches are rejected.
func (c *Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// HasGrantType reports whether the client is allowed to use the given grant flow.
func (c *Client) HasGrantType(grantType GrantType) bool {
	return slices.Contains(c.GrantTypes, grantType)
}

// RegisterClientInput contains the parameters for registering a new client.
// The client secret is always generated server-side and cannot be supplied.
type RegisterClientInput struct {
	Name         string      // Human-readable name for identifying the client
	RedirectURIs []string    // Redirect URIs, at least one required
	Scopes       []string    // Requested scopes (DefaultScope when empty)
	GrantTypes   []GrantType // Requested grant flows (DefaultGrantTypes when empty)
}

// RegisterClientOutput contains the result of registering a client.
// SECURITY: PlainSecret is only returned once and is never retrievable again.
type RegisterClientOutput struct {
	ClientID    uuid.UUID   // Unique identifier for the registered client
	PlainSecret string      // Plain text secret (transmit securely, never log)
	Scopes      []string    // Effective scopes after defaulting
	GrantTypes  []GrantType // Effective grant flows after defaulting
}
