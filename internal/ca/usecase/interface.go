// Package usecase defines business logic interfaces for the certificate authority.
package usecase

import (
	"context"

	caDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/domain"
	caService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/service"
)

// CertStore defines persistence operations for issued certificates.
type CertStore interface {
	// Put stores the certificate as the agent's current one, replacing any
	// previous certificate for the same agent.
	Put(ctx context.Context, cert *caDomain.AgentCertificate) error

	// Get retrieves the agent's current certificate.
	// Returns ErrCertificateNotFound if absent.
	Get(ctx context.Context, agentID string) (*caDomain.AgentCertificate, error)

	// List returns a snapshot of every agent's current certificate.
	List(ctx context.Context) ([]*caDomain.AgentCertificate, error)
}

// RevocationStore defines persistence operations for revoked serial numbers.
type RevocationStore interface {
	// Revoke adds the serial to the revoked set. Idempotent.
	Revoke(ctx context.Context, serial int64) error

	// IsRevoked reports whether the serial is on the revoked set.
	IsRevoked(ctx context.Context, serial int64) (bool, error)
}

// Authority defines the certificate authority's operations: leaf issuance,
// validation against the private root, revocation, and status queries.
type Authority interface {
	// Issue creates a fresh key pair and leaf certificate for the agent,
	// superseding any previous certificate. The plain private key is only
	// returned once; at rest it is wrapped by the keystore.
	Issue(
		ctx context.Context,
		agentID string,
		subject caDomain.SubjectInfo,
	) (*caDomain.IssueCertificateOutput, error)

	// Validate checks a PEM-encoded certificate against the root: subject
	// identity, chain of trust, validity window, and the revoked set.
	Validate(ctx context.Context, certPEM []byte, agentID string) error

	// TLSMaterial builds client and server TLS configs from the agent's
	// current certificate, unwrapping the stored key through the keystore.
	TLSMaterial(ctx context.Context, agentID string, serverName string) (*caService.TLSMaterial, error)

	// Revoke adds the agent's current certificate serial to the revoked set.
	Revoke(ctx context.Context, agentID string) error

	// Status returns the computed lifecycle status of the agent's certificate.
	Status(ctx context.Context, agentID string) (*caDomain.CertificateStatus, error)

	// ListAll returns the computed status of every agent's current certificate.
	ListAll(ctx context.Context) ([]*caDomain.CertificateStatus, error)

	// RootCertificatePEM returns the authority's root certificate for
	// distribution to agents that need to pin the trust anchor.
	RootCertificatePEM() []byte
}
