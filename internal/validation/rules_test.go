package validation

import (
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

func TestNotBlank(t *testing.T) {
	assert.NoError(t, validation.Validate("agent-a", NotBlank))
	assert.Error(t, validation.Validate("   ", NotBlank))
}

func TestAgentID(t *testing.T) {
	valid := []string{"agent-a", "payment.gateway", "a", "Agent_01"}
	for _, s := range valid {
		assert.NoError(t, validation.Validate(s, AgentID), s)
	}

	invalid := []string{"-agent", "agent-", "agent a", "agent/a", ""}
	for _, s := range invalid {
		if s == "" {
			// empty strings are skipped by rule semantics; NotBlank covers them
			continue
		}
		assert.Error(t, validation.Validate(s, AgentID), s)
	}
}

func TestRedirectURI(t *testing.T) {
	assert.NoError(t, validation.Validate("https://agent.example.com/callback", RedirectURI))
	assert.NoError(t, validation.Validate("http://localhost:8080/cb", RedirectURI))

	assert.Error(t, validation.Validate("ftp://agent.example.com", RedirectURI))
	assert.Error(t, validation.Validate("/relative/path", RedirectURI))
	assert.Error(t, validation.Validate("https://agent.example.com/cb#fragment", RedirectURI))
}

func TestWrapValidationError(t *testing.T) {
	err := WrapValidationError(validation.Validate("   ", NotBlank))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	assert.Nil(t, WrapValidationError(nil))
}
