package dto

import (
	"time"

	"github.com/google/uuid"

	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
)

// RegisterAgentResponse contains the result of a successful agent registration.
// The client secret and private key appear here exactly once.
type RegisterAgentResponse struct {
	AgentID        string                     `json:"agent_id"`
	ClientID       uuid.UUID                  `json:"client_id"`
	ClientSecret   string                     `json:"client_secret"`
	CertificatePEM string                     `json:"certificate_pem,omitempty"`
	PrivateKeyPEM  string                     `json:"private_key_pem,omitempty"`
	OAuthEndpoints trustDomain.OAuthEndpoints `json:"oauth_endpoints"`
}

// AuthorizeResponse contains the issued single-use authorization code.
type AuthorizeResponse struct {
	Code             string    `json:"code"`
	AuthorizationURL string    `json:"authorization_url"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// TokenResponse contains an issued token pair in OAuth2 wire form.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	AgentID string `json:"agent_id"`
}
