package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/a2a/http/dto"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/httputil"
	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
	tokenUseCase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/usecase"
	customValidation "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/validation"
)

// OAuthHandler handles HTTP requests for the OAuth2 authorization and token
// endpoints. It coordinates with the token authority.
type OAuthHandler struct {
	tokens tokenUseCase.Authority
	logger *slog.Logger
}

// NewOAuthHandler creates a new OAuth handler with required dependencies.
func NewOAuthHandler(tokens tokenUseCase.Authority, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		tokens: tokens,
		logger: logger,
	}
}

// AuthorizeHandler issues a single-use authorization code bound to a PKCE
// challenge.
// POST /oauth/authorize
// Returns 201 Created with the code and its expiry.
func (h *OAuthHandler) AuthorizeHandler(c *gin.Context) {
	var req dto.AuthorizeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid client_id format: must be a valid UUID"),
			h.logger)
		return
	}

	output, err := h.tokens.Authorize(c.Request.Context(), &tokenDomain.AuthorizeInput{
		ClientID:      clientID,
		RedirectURI:   req.RedirectURI,
		Scope:         req.Scope,
		CodeChallenge: req.CodeChallenge,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.AuthorizeResponse{
		Code:             output.Code,
		AuthorizationURL: output.AuthorizationURL,
		ExpiresAt:        output.ExpiresAt,
	}

	c.JSON(http.StatusCreated, response)
}

// TokenHandler mints token pairs for the three supported grant types.
// POST /oauth/token
// Returns 200 OK with the token pair.
func (h *OAuthHandler) TokenHandler(c *gin.Context) {
	var req dto.TokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	var pair *tokenDomain.TokenPair
	var err error

	switch req.GrantType {
	case dto.GrantTypeAuthorizationCode:
		pair, err = h.exchangeCode(c, &req)
	case dto.GrantTypeRefreshToken:
		pair, err = h.tokens.Refresh(c.Request.Context(), req.RefreshToken)
	case dto.GrantTypeClientCredentials:
		pair, err = h.clientCredentials(c, &req)
	}
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		Scope:        pair.Scope,
	}

	c.JSON(http.StatusOK, response)
}

func (h *OAuthHandler) exchangeCode(c *gin.Context, req *dto.TokenRequest) (*tokenDomain.TokenPair, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, customValidation.WrapValidationError(
			fmt.Errorf("invalid client_id format: must be a valid UUID"))
	}

	return h.tokens.ExchangeCode(c.Request.Context(), &tokenDomain.ExchangeCodeInput{
		Code:         req.Code,
		ClientID:     clientID,
		ClientSecret: req.ClientSecret,
		RedirectURI:  req.RedirectURI,
		CodeVerifier: req.CodeVerifier,
	})
}

func (h *OAuthHandler) clientCredentials(c *gin.Context, req *dto.TokenRequest) (*tokenDomain.TokenPair, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, customValidation.WrapValidationError(
			fmt.Errorf("invalid client_id format: must be a valid UUID"))
	}

	scope := req.Scope
	if scope == "" {
		scope = tokenDomain.DefaultScope
	}

	return h.tokens.ClientCredentials(c.Request.Context(), clientID, req.ClientSecret, scope)
}
