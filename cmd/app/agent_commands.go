package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/cmd/app/commands"
)

func getAgentCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "register-agent",
			Usage: "Register a new agent and print its credentials",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Agent identifier (e.g., payment-agent)",
				},
				&cli.StringFlag{
					Name:     "base-url",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Externally reachable base URL of the agent",
				},
				&cli.StringFlag{
					Name:     "redirect-uris",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Comma-separated OAuth redirect URIs",
				},
				&cli.StringFlag{
					Name:    "organization",
					Aliases: []string{"o"},
					Value:   "",
					Usage:   "Certificate subject organization",
				},
				&cli.StringFlag{
					Name:    "country",
					Aliases: []string{"c"},
					Value:   "",
					Usage:   "Certificate subject country (two-letter code)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format (text or json)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunRegisterAgent(
					ctx,
					cmd.String("name"),
					cmd.String("base-url"),
					cmd.String("redirect-uris"),
					cmd.String("organization"),
					cmd.String("country"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
	}
}
