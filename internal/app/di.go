// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	a2aHTTP "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/a2a/http"
	caRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/repository"
	caService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/service"
	caUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/usecase"
	channelRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/repository"
	channelService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/service"
	channelUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/usecase"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/http"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/metrics"
	tokenRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/repository"
	tokenService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/service"
	tokenUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/usecase"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/transport"
	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
	trustRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/repository"
	trustService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/service"
	trustUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/usecase"
)

// rateLimitCleanupInterval is how often stale per-client limiters are removed.
const rateLimitCleanupInterval = 10 * time.Minute

// securityEventCapacity bounds the in-memory security event log.
const securityEventCapacity = 1000

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern - components are created on
// first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	metricsProvider *metrics.Provider
	keystore        caService.Keystore
	sender          transport.Sender

	// Repositories
	replayCache *channelRepository.ReplayCache
	agentStore  *trustRepository.AgentStore

	// Services
	rateLimiter trustService.RateLimiter

	// Use Cases
	tokenAuthority tokenUsecase.Authority
	caAuthority    caUsecase.Authority
	channel        channelUsecase.Channel
	trustSvc       trustUsecase.Service

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags
	loggerInit          sync.Once
	metricsProviderInit sync.Once
	keystoreInit        sync.Once
	senderInit          sync.Once
	replayCacheInit     sync.Once
	agentStoreInit      sync.Once
	rateLimiterInit     sync.Once
	tokenAuthorityInit  sync.Once
	caAuthorityInit     sync.Once
	channelInit         sync.Once
	trustSvcInit        sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in
// configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MetricsProvider returns the Prometheus metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metrics_provider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metrics_provider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// Keystore returns the private key keystore. It opens the configured keeper,
// or a passthrough keystore when no keeper URI is set.
func (c *Container) Keystore() (caService.Keystore, error) {
	var err error
	c.keystoreInit.Do(func() {
		if c.config.KeeperURI == "" {
			c.keystore = caService.NewPassthroughKeystore()
			return
		}
		c.keystore, err = caService.NewKeystore(context.Background(), c.config.KeeperURI)
		if err != nil {
			c.initErrors["keystore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keystore"]; exists {
		return nil, storedErr
	}
	return c.keystore, nil
}

// Sender returns the outbound envelope transport.
func (c *Container) Sender() transport.Sender {
	c.senderInit.Do(func() {
		c.sender = transport.NewHTTPSender(c.config.AgentID, c.config.SendTimeout)
	})
	return c.sender
}

// ReplayCache returns the inbound message replay cache.
func (c *Container) ReplayCache() *channelRepository.ReplayCache {
	c.replayCacheInit.Do(func() {
		c.replayCache = channelRepository.NewReplayCache(
			c.config.ReplayCacheTTL,
			c.config.ReplayCacheCapacity,
			c.config.ReplayCacheTTL,
			c.Logger(),
		)
	})
	return c.replayCache
}

// AgentStore returns the registered agent store. It doubles as the channel's
// agent directory.
func (c *Container) AgentStore() *trustRepository.AgentStore {
	c.agentStoreInit.Do(func() {
		c.agentStore = trustRepository.NewAgentStore()
	})
	return c.agentStore
}

// RateLimiter returns the per-client rate limiter.
func (c *Container) RateLimiter() trustService.RateLimiter {
	c.rateLimiterInit.Do(func() {
		c.rateLimiter = trustService.NewRateLimiter(
			c.config.RateLimitRequestsPerSec,
			c.config.RateLimitBurst,
			rateLimitCleanupInterval,
		)
	})
	return c.rateLimiter
}

// TokenAuthority returns the OAuth2 token authority.
func (c *Container) TokenAuthority() (tokenUsecase.Authority, error) {
	c.tokenAuthorityInit.Do(func() {
		c.tokenAuthority = tokenUsecase.NewAuthority(
			c.config,
			tokenRepository.NewClientStore(),
			tokenRepository.NewGrantStore(),
			tokenRepository.NewTokenStore(),
			tokenService.NewSecretService(),
			tokenService.NewTokenService(),
			c.Logger(),
		)
	})
	return c.tokenAuthority, nil
}

// CertificateAuthority returns the private certificate authority.
func (c *Container) CertificateAuthority() (caUsecase.Authority, error) {
	var err error
	c.caAuthorityInit.Do(func() {
		var keystore caService.Keystore
		keystore, err = c.Keystore()
		if err != nil {
			c.initErrors["ca_authority"] = fmt.Errorf("failed to get keystore for certificate authority: %w", err)
			return
		}

		c.caAuthority, err = caUsecase.NewAuthority(
			c.config,
			caService.NewIssuer(),
			keystore,
			caRepository.NewCertStore(),
			caRepository.NewRevocationStore(),
			c.Logger(),
		)
		if err != nil {
			c.initErrors["ca_authority"] = fmt.Errorf("failed to create certificate authority: %w", err)
		}
	})
	if storedErr, exists := c.initErrors["ca_authority"]; exists {
		return nil, storedErr
	}
	return c.caAuthority, nil
}

// Channel returns the secure channel.
func (c *Container) Channel() (channelUsecase.Channel, error) {
	c.channelInit.Do(func() {
		// Replayed envelope IDs must outlive the window in which a skewed
		// timestamp is still accepted.
		if c.config.ReplayCacheTTL < c.config.ClockSkewWindow {
			c.initErrors["channel"] = fmt.Errorf(
				"replay cache ttl %s is shorter than the clock skew window %s",
				c.config.ReplayCacheTTL, c.config.ClockSkewWindow,
			)
			return
		}

		masterKey, err := base64.StdEncoding.DecodeString(c.config.ChannelMasterKey)
		if err != nil {
			c.initErrors["channel"] = fmt.Errorf("failed to decode channel master key: %w", err)
			return
		}

		keyring, err := channelService.NewKeyring(masterKey)
		if err != nil {
			c.initErrors["channel"] = fmt.Errorf("failed to create keyring: %w", err)
			return
		}

		tokenAuthority, err := c.TokenAuthority()
		if err != nil {
			c.initErrors["channel"] = fmt.Errorf("failed to get token authority for channel: %w", err)
			return
		}

		caAuthority, err := c.CertificateAuthority()
		if err != nil {
			c.initErrors["channel"] = fmt.Errorf("failed to get certificate authority for channel: %w", err)
			return
		}

		c.channel = channelUsecase.NewChannel(
			c.config,
			channelRepository.NewSessionStore(),
			c.ReplayCache(),
			tokenAuthority,
			caAuthority,
			c.AgentStore(),
			keyring,
			channelService.NewEnvelopeSigner(),
			channelService.NewPayloadSealer(),
			c.Sender(),
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["channel"]; exists {
		return nil, storedErr
	}
	return c.channel, nil
}

// TrustService returns the trust service facade. When metrics are enabled it
// is wrapped with operation metrics recording.
func (c *Container) TrustService() (trustUsecase.Service, error) {
	c.trustSvcInit.Do(func() {
		auditKey, err := base64.StdEncoding.DecodeString(c.config.AuditKey)
		if err != nil {
			c.initErrors["trust_service"] = fmt.Errorf("failed to decode audit key: %w", err)
			return
		}

		auditSigner, err := trustService.NewAuditSigner(auditKey)
		if err != nil {
			c.initErrors["trust_service"] = fmt.Errorf("failed to create audit signer: %w", err)
			return
		}

		tokenAuthority, err := c.TokenAuthority()
		if err != nil {
			c.initErrors["trust_service"] = fmt.Errorf("failed to get token authority for trust service: %w", err)
			return
		}

		caAuthority, err := c.CertificateAuthority()
		if err != nil {
			c.initErrors["trust_service"] = fmt.Errorf("failed to get certificate authority for trust service: %w", err)
			return
		}

		channel, err := c.Channel()
		if err != nil {
			c.initErrors["trust_service"] = fmt.Errorf("failed to get channel for trust service: %w", err)
			return
		}

		service := trustUsecase.NewService(
			c.config,
			trustDomain.PolicyFromConfig(c.config),
			tokenAuthority,
			caAuthority,
			channel,
			c.AgentStore(),
			trustRepository.NewMetricsStore(securityEventCapacity),
			auditSigner,
			c.RateLimiter(),
			c.Logger(),
		)

		operationMetrics, err := c.initOperationMetrics()
		if err != nil {
			c.initErrors["trust_service"] = fmt.Errorf("failed to create operation metrics: %w", err)
			return
		}

		c.trustSvc = trustUsecase.NewMetricsService(service, operationMetrics)
	})
	if storedErr, exists := c.initErrors["trust_service"]; exists {
		return nil, storedErr
	}
	return c.trustSvc, nil
}

// HTTPServer returns the agent-facing API server.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		logger := c.Logger()

		trustSvc, err := c.TrustService()
		if err != nil {
			c.initErrors["http_server"] = fmt.Errorf("failed to get trust service for http server: %w", err)
			return
		}

		tokenAuthority, err := c.TokenAuthority()
		if err != nil {
			c.initErrors["http_server"] = fmt.Errorf("failed to get token authority for http server: %w", err)
			return
		}

		channel, err := c.Channel()
		if err != nil {
			c.initErrors["http_server"] = fmt.Errorf("failed to get channel for http server: %w", err)
			return
		}

		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["http_server"] = fmt.Errorf("failed to get metrics provider for http server: %w", err)
			return
		}

		handlers := http.Handlers{
			Agents:         a2aHTTP.NewAgentHandler(trustSvc, logger),
			OAuth:          a2aHTTP.NewOAuthHandler(tokenAuthority, logger),
			Messages:       a2aHTTP.NewMessageHandler(channel, logger),
			Authentication: a2aHTTP.AuthenticationMiddleware(tokenAuthority, logger),
		}

		if provider != nil {
			c.httpServer = http.NewServer(c.config, logger, handlers, provider.MeterProvider())
		} else {
			c.httpServer = http.NewServer(c.config, logger, handlers, nil)
		}
	})
	if storedErr, exists := c.initErrors["http_server"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus scrape server, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metrics_server"] = fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
			return
		}
		if provider == nil {
			return
		}

		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metrics_server"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown releases container resources: the keystore and the metrics
// provider. Safe to call even when components were never initialized.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.keystore != nil {
		if err := c.keystore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close keystore: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown metrics provider: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container shutdown: %v", errs)
	}
	return nil
}

// initLogger creates and configures a structured logger based on the log
// level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initOperationMetrics creates the operation metrics recorder, falling back
// to a no-op implementation when metrics are disabled.
func (c *Container) initOperationMetrics() (metrics.OperationMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpOperationMetrics(), nil
	}
	return metrics.NewOperationMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}
