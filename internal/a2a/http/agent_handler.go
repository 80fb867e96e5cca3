// Package http provides HTTP handlers for the agent trust API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/a2a/http/dto"
	caDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/domain"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/httputil"
	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
	trustUseCase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/usecase"
	customValidation "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/validation"
)

// AgentHandler handles HTTP requests for agent registration and security
// metrics. It coordinates with the trust service.
type AgentHandler struct {
	trustService trustUseCase.Service
	logger       *slog.Logger
}

// NewAgentHandler creates a new agent handler with required dependencies.
func NewAgentHandler(trustService trustUseCase.Service, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{
		trustService: trustService,
		logger:       logger,
	}
}

// RegisterAgentHandler registers a new agent with the trust layer.
// POST /v1/agents - No authentication required (this is the onboarding endpoint).
// Returns 201 Created with the client secret and, when mTLS is enabled, the
// certificate material. Both appear in this response exactly once.
func (h *AgentHandler) RegisterAgentHandler(c *gin.Context) {
	var req dto.RegisterAgentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	info := &trustDomain.AgentInfo{
		Name:         req.Name,
		BaseURL:      req.BaseURL,
		RedirectURIs: req.RedirectURIs,
		Subject: caDomain.SubjectInfo{
			Organization: req.Organization,
			Country:      req.Country,
		},
	}

	result := h.trustService.RegisterAgent(c.Request.Context(), info)
	if !result.Success {
		c.JSON(httputil.StatusForCode(result.ErrorCode), httputil.ErrorResponse{
			Error:   result.ErrorCode,
			Message: result.Error,
		})
		return
	}

	response := dto.RegisterAgentResponse{
		AgentID:        result.AgentID,
		ClientID:       result.ClientID,
		ClientSecret:   result.ClientSecret,
		CertificatePEM: result.CertificatePEM,
		PrivateKeyPEM:  result.PrivateKeyPEM,
		OAuthEndpoints: result.OAuthEndpoints,
	}

	c.JSON(http.StatusCreated, response)
}

// SecurityMetricsHandler returns the aggregated security counter snapshot.
// GET /v1/metrics/security - Requires authentication.
func (h *AgentHandler) SecurityMetricsHandler(c *gin.Context) {
	metrics := h.trustService.SecurityMetrics(c.Request.Context())
	c.JSON(http.StatusOK, metrics)
}
