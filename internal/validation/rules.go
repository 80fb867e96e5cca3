// Package validation provides custom validation rules for the application.
package validation

import (
	"net/url"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

var (
	// agentIDRegex restricts agent identifiers to DNS-label-safe characters
	// so they can be embedded in certificate subjects and SANs.
	agentIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-_.]{0,62}[a-zA-Z0-9])?$`)
)

// WrapValidationError wraps validation errors as domain ErrValidation.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrValidation, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// AgentID validates agent identifiers used in certificates and sessions.
var AgentID = validation.NewStringRuleWithError(
	func(s string) bool {
		return agentIDRegex.MatchString(s)
	},
	validation.NewError("validation_agent_id", "must contain only letters, digits, '-', '_' or '.'"),
)

// RedirectURI validates that a string is an absolute http(s) URL without a fragment.
var RedirectURI = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.Parse(s)
		if err != nil {
			return false
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
		return u.Host != "" && u.Fragment == ""
	},
	validation.NewError("validation_redirect_uri", "must be an absolute http(s) URL without a fragment"),
)
