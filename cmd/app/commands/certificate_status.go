package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/app"
	caDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/domain"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
)

// RunCertificateStatus prints the lifecycle status of one agent's certificate,
// or of every certificate when agentID is empty. Stores are process-local; a
// standalone invocation inspects a fresh container, not a running server's
// state.
func RunCertificateStatus(ctx context.Context, agentID string, format string, io IOTuple) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	defer closeContainer(container, logger)

	authority, err := container.CertificateAuthority()
	if err != nil {
		return fmt.Errorf("failed to initialize certificate authority: %w", err)
	}

	var statuses []*caDomain.CertificateStatus
	if agentID == "" {
		statuses, err = authority.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to list certificates: %w", err)
		}
	} else {
		status, err := authority.Status(ctx, agentID)
		if err != nil {
			return fmt.Errorf("failed to get certificate status: %w", err)
		}
		statuses = append(statuses, status)
	}

	if format == "json" {
		writeJSON(io.Writer, statuses)
		return nil
	}

	if len(statuses) == 0 {
		fmt.Fprintln(io.Writer, "No certificates issued")
		return nil
	}

	for _, status := range statuses {
		revoked := ""
		if status.Revoked {
			revoked = " (revoked)"
		}
		fmt.Fprintf(io.Writer, "%s: serial %d, %s%s, expires %s\n",
			status.AgentID,
			status.SerialNumber,
			status.Status,
			revoked,
			status.ExpiresAt.Format("2006-01-02"),
		)
	}

	logger.Debug("certificate status reported", slog.Int("count", len(statuses)))

	return nil
}
