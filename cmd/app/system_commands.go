package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/cmd/app/commands"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "clean-expired",
			Usage: "Remove expired authorization codes and tokens",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format (text or json)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCleanExpired(ctx, cmd.String("format"), commands.DefaultIO())
			},
		},
	}
}
