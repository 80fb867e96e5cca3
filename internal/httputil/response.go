// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HandleErrorGin maps domain errors to HTTP status codes and returns a JSON
// response. Authentication and security failures carry only the stable error
// code and category; full detail goes to the log.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var errorResponse ErrorResponse

	switch {
	case apperrors.Is(err, apperrors.ErrValidation):
		statusCode = http.StatusUnprocessableEntity
		errorResponse = ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		}

	case apperrors.Is(err, apperrors.ErrAuthentication):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "authentication_error",
			Message: "Authentication failed",
		}

	case apperrors.Is(err, apperrors.ErrSecurity):
		statusCode = http.StatusForbidden
		errorResponse = ErrorResponse{
			Error:   "security_error",
			Message: "Security check failed",
		}

	case apperrors.Is(err, apperrors.ErrReplay):
		statusCode = http.StatusConflict
		errorResponse = ErrorResponse{
			Error:   "replay_error",
			Message: "Message was already processed",
		}

	case apperrors.Is(err, apperrors.ErrRateLimit):
		statusCode = http.StatusTooManyRequests
		errorResponse = ErrorResponse{
			Error:   "rate_limit_error",
			Message: "Too many requests",
		}

	case apperrors.Is(err, apperrors.ErrState):
		statusCode = http.StatusConflict
		errorResponse = ErrorResponse{
			Error:   "state_error",
			Message: "Operation not allowed in current state",
		}

	case apperrors.Is(err, apperrors.ErrTimeout):
		statusCode = http.StatusGatewayTimeout
		errorResponse = ErrorResponse{
			Error:   "timeout_error",
			Message: "Operation timed out",
		}

	case apperrors.Is(err, apperrors.ErrTransport):
		statusCode = http.StatusBadGateway
		errorResponse = ErrorResponse{
			Error:   "transport_error",
			Message: "Delivery to the target agent failed",
		}

	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		errorResponse = ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		}

	default:
		// For unknown/internal errors, don't expose details to the client
		statusCode = http.StatusInternalServerError
		errorResponse = ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		}
	}

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// StatusForCode maps a stable error code, as produced by apperrors.Code, to
// the HTTP status HandleErrorGin would use for the matching error.
func StatusForCode(code string) int {
	switch code {
	case "validation_error":
		return http.StatusUnprocessableEntity
	case "authentication_error":
		return http.StatusUnauthorized
	case "security_error":
		return http.StatusForbidden
	case "replay_error":
		return http.StatusConflict
	case "rate_limit_error":
		return http.StatusTooManyRequests
	case "state_error":
		return http.StatusConflict
	case "timeout_error":
		return http.StatusGatewayTimeout
	case "transport_error":
		return http.StatusBadGateway
	case "not_found":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON
// or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}
