package domain

import (
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

// Certificate authority errors.
var (
	// ErrCertificateNotFound indicates no certificate is recorded for the agent.
	ErrCertificateNotFound = errors.Wrap(errors.ErrNotFound, "certificate not found")

	// ErrCertificateInvalid indicates the certificate failed parsing, chain
	// verification, validity window, or subject checks.
	ErrCertificateInvalid = errors.Wrap(errors.ErrSecurity, "certificate invalid")

	// ErrCertificateRevoked indicates the certificate's serial is on the revoked set.
	ErrCertificateRevoked = errors.Wrap(errors.ErrSecurity, "certificate revoked")

	// ErrSubjectMismatch indicates the certificate subject does not match the
	// claimed agent identity.
	ErrSubjectMismatch = errors.Wrap(errors.ErrSecurity, "certificate subject mismatch")
)
