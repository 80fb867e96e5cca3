package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/app"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
)

// RunRevokeCertificate revokes the current certificate of an agent.
func RunRevokeCertificate(ctx context.Context, agentID string, io IOTuple) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("revoking certificate", slog.String("agent_id", agentID))

	defer closeContainer(container, logger)

	authority, err := container.CertificateAuthority()
	if err != nil {
		return fmt.Errorf("failed to initialize certificate authority: %w", err)
	}

	if err := authority.Revoke(ctx, agentID); err != nil {
		return fmt.Errorf("failed to revoke certificate: %w", err)
	}

	fmt.Fprintf(io.Writer, "Certificate for %s revoked\n", agentID)

	logger.Info("certificate revoked", slog.String("agent_id", agentID))

	return nil
}
