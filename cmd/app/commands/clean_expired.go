package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/app"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
)

// RunCleanExpired removes expired authorization codes and tokens once and
// prints the counts removed. Stores are process-local; a standalone
// invocation sweeps a fresh container, not a running server's state.
func RunCleanExpired(ctx context.Context, format string, io IOTuple) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("cleaning expired grants and tokens")

	defer closeContainer(container, logger)

	authority, err := container.TokenAuthority()
	if err != nil {
		return fmt.Errorf("failed to initialize token authority: %w", err)
	}

	grants, tokens, err := authority.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep expired entries: %w", err)
	}

	if format == "json" {
		writeJSON(io.Writer, map[string]int{
			"grants_removed": grants,
			"tokens_removed": tokens,
		})
	} else {
		fmt.Fprintf(io.Writer, "Removed %d expired grants and %d expired tokens\n", grants, tokens)
	}

	logger.Info("cleanup completed",
		slog.Int("grants_removed", grants),
		slog.Int("tokens_removed", tokens),
	)

	return nil
}
