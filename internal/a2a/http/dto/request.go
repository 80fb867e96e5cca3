// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/validation"
)

// Grant type values accepted by the token endpoint.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeClientCredentials = "client_credentials"
)

// RegisterAgentRequest contains the parameters for registering a new agent.
type RegisterAgentRequest struct {
	Name         string   `json:"name"`
	BaseURL      string   `json:"base_url"`
	RedirectURIs []string `json:"redirect_uris"`
	Organization string   `json:"organization"`
	Country      string   `json:"country"`
}

// Validate checks if the register agent request is valid.
func (r *RegisterAgentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.AgentID,
			validation.Length(1, 255),
		),
		validation.Field(&r.BaseURL,
			validation.Required,
			customValidation.RedirectURI,
		),
		validation.Field(&r.RedirectURIs,
			validation.Required,
			validation.Each(customValidation.RedirectURI),
		),
		validation.Field(&r.Organization,
			validation.Length(0, 255),
		),
		validation.Field(&r.Country,
			validation.Length(0, 2),
		),
	)
}

// AuthorizeRequest contains the parameters for requesting an authorization code.
type AuthorizeRequest struct {
	ClientID      string `json:"client_id"`
	RedirectURI   string `json:"redirect_uri"`
	Scope         string `json:"scope"`
	CodeChallenge string `json:"code_challenge"`
}

// Validate checks if the authorize request is valid.
func (r *AuthorizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ClientID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.RedirectURI,
			validation.Required,
			customValidation.RedirectURI,
		),
		validation.Field(&r.CodeChallenge,
			validation.Required,
			customValidation.NoWhitespace,
			validation.Length(43, 128),
		),
	)
}

// TokenRequest contains the parameters for the token endpoint. The required
// fields depend on the grant type.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// Validate checks if the token request is valid for its grant type.
func (r *TokenRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.GrantType,
			validation.Required,
			validation.In(
				GrantTypeAuthorizationCode,
				GrantTypeRefreshToken,
				GrantTypeClientCredentials,
			),
		),
	)
	if err != nil {
		return err
	}

	switch r.GrantType {
	case GrantTypeAuthorizationCode:
		return validation.ValidateStruct(r,
			validation.Field(&r.Code, validation.Required, customValidation.NoWhitespace),
			validation.Field(&r.ClientID, validation.Required, customValidation.NotBlank),
			validation.Field(&r.ClientSecret, validation.Required, customValidation.NotBlank),
			validation.Field(&r.RedirectURI, validation.Required, customValidation.RedirectURI),
			validation.Field(&r.CodeVerifier, validation.Required, validation.Length(43, 128)),
		)
	case GrantTypeRefreshToken:
		return validation.ValidateStruct(r,
			validation.Field(&r.RefreshToken, validation.Required, customValidation.NoWhitespace),
		)
	case GrantTypeClientCredentials:
		return validation.ValidateStruct(r,
			validation.Field(&r.ClientID, validation.Required, customValidation.NotBlank),
			validation.Field(&r.ClientSecret, validation.Required, customValidation.NotBlank),
		)
	}

	return nil
}
