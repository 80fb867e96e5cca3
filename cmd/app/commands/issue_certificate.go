package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/app"
	caDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/domain"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
)

// RunIssueCertificate issues a fresh mTLS certificate for an agent and prints
// the PEM material. The private key is printed exactly once.
func RunIssueCertificate(
	ctx context.Context,
	agentID string,
	organization string,
	country string,
	format string,
	io IOTuple,
) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("issuing certificate", slog.String("agent_id", agentID))

	defer closeContainer(container, logger)

	authority, err := container.CertificateAuthority()
	if err != nil {
		return fmt.Errorf("failed to initialize certificate authority: %w", err)
	}

	output, err := authority.Issue(ctx, agentID, caDomain.SubjectInfo{
		Organization: organization,
		Country:      country,
	})
	if err != nil {
		return fmt.Errorf("failed to issue certificate: %w", err)
	}

	if format == "json" {
		writeJSON(io.Writer, map[string]any{
			"agent_id":        output.Certificate.AgentID,
			"serial_number":   output.Certificate.SerialNumber,
			"certificate_pem": string(output.Certificate.CertificatePEM),
			"private_key_pem": string(output.PrivateKeyPEM),
			"ca_pem":          string(output.Certificate.CACertificatePEM),
			"expires_at":      output.Certificate.ExpiresAt,
		})
	} else {
		fmt.Fprintf(io.Writer, "Certificate issued for %s (serial %d, expires %s)\n",
			output.Certificate.AgentID,
			output.Certificate.SerialNumber,
			output.Certificate.ExpiresAt.Format("2006-01-02"),
		)
		fmt.Fprintf(io.Writer, "\nCertificate:\n%s", output.Certificate.CertificatePEM)
		fmt.Fprintf(io.Writer, "\nPrivate Key:\n%s", output.PrivateKeyPEM)
		fmt.Fprintf(io.Writer, "\nCA Certificate:\n%s", output.Certificate.CACertificatePEM)
	}

	logger.Info("certificate issued",
		slog.String("agent_id", output.Certificate.AgentID),
		slog.Int64("serial_number", output.Certificate.SerialNumber),
	)

	return nil
}
