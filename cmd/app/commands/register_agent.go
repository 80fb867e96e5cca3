package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/app"
	caDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/domain"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
)

// RunRegisterAgent registers a new agent with the trust layer and prints its
// credentials. The client secret and private key are printed exactly once.
func RunRegisterAgent(
	ctx context.Context,
	name string,
	baseURL string,
	redirectURIsStr string,
	organization string,
	country string,
	format string,
	io IOTuple,
) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("registering agent", slog.String("name", name))

	defer closeContainer(container, logger)

	redirectURIs := splitAndTrim(redirectURIsStr)
	if len(redirectURIs) == 0 {
		return fmt.Errorf("at least one redirect URI is required")
	}

	trustSvc, err := container.TrustService()
	if err != nil {
		return fmt.Errorf("failed to initialize trust service: %w", err)
	}

	result := trustSvc.RegisterAgent(ctx, &trustDomain.AgentInfo{
		Name:         name,
		BaseURL:      baseURL,
		RedirectURIs: redirectURIs,
		Subject: caDomain.SubjectInfo{
			Organization: organization,
			Country:      country,
		},
	})
	if !result.Success {
		return fmt.Errorf("failed to register agent: %s (%s)", result.Error, result.ErrorCode)
	}

	if format == "json" {
		writeJSON(io.Writer, result)
	} else {
		fmt.Fprintf(io.Writer, "Agent registered successfully\n")
		fmt.Fprintf(io.Writer, "Agent ID:      %s\n", result.AgentID)
		fmt.Fprintf(io.Writer, "Client ID:     %s\n", result.ClientID)
		fmt.Fprintf(io.Writer, "Client Secret: %s\n", result.ClientSecret)
		fmt.Fprintf(io.Writer, "Authorize URL: %s\n", result.OAuthEndpoints.AuthorizeURL)
		fmt.Fprintf(io.Writer, "Token URL:     %s\n", result.OAuthEndpoints.TokenURL)
		if result.CertificatePEM != "" {
			fmt.Fprintf(io.Writer, "\nCertificate:\n%s", result.CertificatePEM)
			fmt.Fprintf(io.Writer, "\nPrivate Key:\n%s", result.PrivateKeyPEM)
		}
		fmt.Fprintf(io.Writer, "\nStore the client secret securely - it cannot be retrieved again.\n")
	}

	logger.Info("agent registered",
		slog.String("agent_id", result.AgentID),
		slog.String("client_id", result.ClientID.String()),
	)

	return nil
}

// splitAndTrim splits a comma-separated list and drops blank entries.
func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
