package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	channelUseCase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/usecase"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/httputil"
	customValidation "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/validation"
)

// MessageHandler handles inbound secure envelopes from peer agents.
type MessageHandler struct {
	channel channelUseCase.Channel
	logger  *slog.Logger
}

// NewMessageHandler creates a new message handler with required dependencies.
func NewMessageHandler(channel channelUseCase.Channel, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		channel: channel,
		logger:  logger,
	}
}

// ReceiveMessageHandler verifies and dispatches an inbound envelope.
// POST /a2a/message - Requires bearer authentication.
// Replay, signature, and decryption failures are rejected before any handler
// runs; the envelope id is only remembered after successful dispatch.
func (h *MessageHandler) ReceiveMessageHandler(c *gin.Context) {
	var envelope channelDomain.Envelope

	if err := c.ShouldBindJSON(&envelope); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	err := validation.Errors{
		"id":    validation.Validate(envelope.ID, validation.Required, customValidation.NotBlank),
		"from":  validation.Validate(envelope.From, validation.Required, customValidation.AgentID),
		"to":    validation.Validate(envelope.To, validation.Required, customValidation.AgentID),
		"type":  validation.Validate(string(envelope.Type), validation.Required),
		"nonce": validation.Validate(envelope.Nonce, validation.Required, customValidation.NoWhitespace),
	}.Filter()
	if err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	response, err := h.channel.Receive(c.Request.Context(), &envelope)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, response)
}
