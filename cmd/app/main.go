// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

// version is the application version, set at build time.
var version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:     "a2a-trust",
		Usage:    "Agent-to-agent trust layer",
		Version:  version,
		Commands: getCommands(version),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
