// Package usecase implements business logic orchestration for the certificate authority.
package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	validation "github.com/jellydator/validation"

	caDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/domain"
	caService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/service"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	appvalidation "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/validation"
)

// rootValidityMultiple keeps the root outlasting every leaf it signs.
const rootValidityMultiple = 4

// authority implements the Authority interface around a process-lifetime root
// identity. Serial numbers are monotonic: serial 1 is the root itself.
type authority struct {
	config     *config.Config
	root       *caService.RootIdentity
	issuer     caService.Issuer
	keystore   caService.Keystore
	certStore  CertStore
	revocation RevocationStore
	lastSerial atomic.Int64
	logger     *slog.Logger
}

// NewAuthority generates the root identity and creates the certificate
// authority over it. The root private key never leaves this process.
func NewAuthority(
	cfg *config.Config,
	issuer caService.Issuer,
	keystore caService.Keystore,
	certStore CertStore,
	revocation RevocationStore,
	logger *slog.Logger,
) (Authority, error) {
	leafValidity := time.Duration(cfg.CertValidityDays) * 24 * time.Hour
	root, err := issuer.GenerateRoot(cfg.CACommonName, leafValidity*rootValidityMultiple)
	if err != nil {
		return nil, err
	}

	a := &authority{
		config:     cfg,
		root:       root,
		issuer:     issuer,
		keystore:   keystore,
		certStore:  certStore,
		revocation: revocation,
		logger:     logger,
	}
	a.lastSerial.Store(1)

	logger.Info("certificate authority initialized",
		slog.String("common_name", cfg.CACommonName),
		slog.Int("cert_validity_days", cfg.CertValidityDays),
	)
	return a, nil
}

// Issue creates a fresh key pair and leaf certificate for the agent.
//
// Security Notes:
//   - The plain private key is only returned once; the stored copy is wrapped
//     by the keystore.
//   - A superseded certificate stays verifiable until it expires or is
//     revoked. Re-issuance is not revocation.
func (a *authority) Issue(
	ctx context.Context,
	agentID string,
	subject caDomain.SubjectInfo,
) (*caDomain.IssueCertificateOutput, error) {
	err := validation.Errors{
		"agent_id": validation.Validate(agentID, validation.Required, appvalidation.AgentID),
	}.Filter()
	if err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	serial := a.lastSerial.Add(1)
	validity := time.Duration(a.config.CertValidityDays) * 24 * time.Hour

	leaf, err := a.issuer.IssueLeaf(a.root, agentID, subject, serial, validity)
	if err != nil {
		return nil, err
	}

	wrappedKey, err := a.keystore.Wrap(ctx, leaf.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	cert := &caDomain.AgentCertificate{
		AgentID:          agentID,
		SerialNumber:     serial,
		CertificatePEM:   leaf.CertificatePEM,
		WrappedKeyPEM:    wrappedKey,
		CACertificatePEM: a.root.CertificatePEM,
		IssuedAt:         leaf.NotBefore,
		ExpiresAt:        leaf.NotAfter,
	}
	if err := a.certStore.Put(ctx, cert); err != nil {
		return nil, err
	}

	a.logger.Info("certificate issued",
		slog.String("agent_id", agentID),
		slog.Int64("serial", serial),
		slog.Time("expires_at", cert.ExpiresAt),
	)

	return &caDomain.IssueCertificateOutput{
		Certificate:   cert,
		PrivateKeyPEM: leaf.PrivateKeyPEM,
	}, nil
}

// Validate checks a certificate against the root and the revoked set. The
// revocation check runs last so a forged certificate never reaches it.
func (a *authority) Validate(ctx context.Context, certPEM []byte, agentID string) error {
	cert, err := a.issuer.Verify(a.root, certPEM, agentID)
	if err != nil {
		a.logger.Warn("certificate validation failed",
			slog.String("agent_id", agentID),
			slog.String("error", err.Error()),
		)
		return err
	}

	revoked, err := a.revocation.IsRevoked(ctx, cert.SerialNumber.Int64())
	if err != nil {
		return err
	}
	if revoked {
		a.logger.Warn("revoked certificate presented",
			slog.String("agent_id", agentID),
			slog.Int64("serial", cert.SerialNumber.Int64()),
		)
		return caDomain.ErrCertificateRevoked
	}
	return nil
}

// TLSMaterial builds TLS configs from the agent's current certificate. The
// stored key is unwrapped only for the lifetime of this call.
func (a *authority) TLSMaterial(
	ctx context.Context,
	agentID string,
	serverName string,
) (*caService.TLSMaterial, error) {
	cert, err := a.certStore.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if err := a.Validate(ctx, cert.CertificatePEM, agentID); err != nil {
		return nil, err
	}

	keyPEM, err := a.keystore.Unwrap(ctx, cert.WrappedKeyPEM)
	if err != nil {
		return nil, err
	}

	return caService.BuildTLSMaterial(a.root.CertificatePEM, cert.CertificatePEM, keyPEM, serverName)
}

// Revoke adds the agent's current certificate serial to the revoked set.
// Revoking an already-revoked certificate is a no-op.
func (a *authority) Revoke(ctx context.Context, agentID string) error {
	cert, err := a.certStore.Get(ctx, agentID)
	if err != nil {
		return err
	}

	if err := a.revocation.Revoke(ctx, cert.SerialNumber); err != nil {
		return err
	}

	a.logger.Info("certificate revoked",
		slog.String("agent_id", agentID),
		slog.Int64("serial", cert.SerialNumber),
	)
	return nil
}

// Status returns the computed lifecycle status of the agent's certificate.
func (a *authority) Status(ctx context.Context, agentID string) (*caDomain.CertificateStatus, error) {
	cert, err := a.certStore.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return a.statusOf(ctx, cert)
}

// ListAll returns the computed status of every agent's current certificate.
func (a *authority) ListAll(ctx context.Context) ([]*caDomain.CertificateStatus, error) {
	certs, err := a.certStore.List(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]*caDomain.CertificateStatus, 0, len(certs))
	for _, cert := range certs {
		status, err := a.statusOf(ctx, cert)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// RootCertificatePEM returns the authority's root certificate.
func (a *authority) RootCertificatePEM() []byte {
	return a.root.CertificatePEM
}

func (a *authority) statusOf(
	ctx context.Context,
	cert *caDomain.AgentCertificate,
) (*caDomain.CertificateStatus, error) {
	revoked, err := a.revocation.IsRevoked(ctx, cert.SerialNumber)
	if err != nil {
		return nil, err
	}

	gracePeriod := time.Duration(a.config.CertGracePeriodDays) * 24 * time.Hour
	return &caDomain.CertificateStatus{
		AgentID:      cert.AgentID,
		SerialNumber: cert.SerialNumber,
		Status:       cert.StatusAt(time.Now().UTC(), gracePeriod),
		IssuedAt:     cert.IssuedAt,
		ExpiresAt:    cert.ExpiresAt,
		Revoked:      revoked,
	}, nil
}
