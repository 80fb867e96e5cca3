package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/cmd/app/commands"
)

func getCertificateCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "issue-certificate",
			Usage: "Issue a fresh mTLS certificate for an agent",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "agent-id",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Agent identifier",
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
				return commands.RunIssueCertificate(
					ctx,
					cmd.String("agent-id"),
					cmd.String("organization"),
					cmd.String("country"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "revoke-certificate",
			Usage: "Revoke the current certificate of an agent",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "agent-id",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Agent identifier",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunRevokeCertificate(ctx, cmd.String("agent-id"), commands.DefaultIO())
			},
		},
		{
			Name:  "certificate-status",
			Usage: "Show certificate lifecycle status",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "agent-id",
					Aliases: []string{"a"},
					Value:   "",
					Usage:   "Agent identifier (all agents when omitted)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format (text or json)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCertificateStatus(
					ctx,
					cmd.String("agent-id"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
	}
}
