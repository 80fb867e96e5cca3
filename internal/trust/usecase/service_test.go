package usecase

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	caRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/repository"
	caService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/service"
	caUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/usecase"
	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	channelRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/repository"
	channelService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/service"
	channelUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/usecase"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	tokenRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/repository"
	tokenService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/service"
	tokenUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/usecase"
	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
	trustRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/repository"
	trustService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/service"
)

// fakeSecretService avoids Argon2id cost in tests; comparisons are plain equality.
type fakeSecretService struct{}

func (f *fakeSecretService) GenerateSecret() (string, string, error) {
	return "plain-secret", "hashed:plain-secret", nil
}

func (f *fakeSecretService) HashSecret(plainSecret string) (string, error) {
	return "hashed:" + plainSecret, nil
}

func (f *fakeSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	return "hashed:"+plainSecret == hashedSecret
}

// loopbackSender short-circuits the transport: every send is delivered to
// the local channel's receive path, so replay and crypto behavior are
// exercised end to end.
type loopbackSender struct {
	channel  channelUsecase.Channel
	captured []*channelDomain.Envelope
}

func (l *loopbackSender) Send(
	ctx context.Context,
	baseURL string,
	bearerToken string,
	tlsConfig *tls.Config,
	envelope *channelDomain.Envelope,
) (*channelDomain.Response, error) {
	l.captured = append(l.captured, envelope)
	return l.channel.Receive(ctx, envelope)
}

func testConfig() *config.Config {
	return &config.Config{
		AgentID:                     "payment-agent",
		AgentBaseURL:                "https://payment-agent.example.com",
		AccessTokenExpiration:       time.Hour,
		RefreshTokenExpiration:      24 * time.Hour,
		AuthorizationCodeExpiration: 10 * time.Minute,
		SweepInterval:               time.Minute,
		CACommonName:                "Agent Trust Root CA",
		CertValidityDays:            365,
		CertGracePeriodDays:         30,
		ReplayCacheTTL:              time.Minute,
		ReplayCacheCapacity:         1000,
		ClockSkewWindow:             30 * time.Second,
		SendTimeout:                 time.Second,
		MTLSEnabled:                 true,
		HealthDegradedThreshold:     500 * time.Millisecond,
		RateLimitEnabled:            true,
		RateLimitRequestsPerSec:     100,
		RateLimitBurst:              100,
	}
}

type trustFixture struct {
	service Service
	channel channelUsecase.Channel
	certs   caUsecase.Authority
	sender  *loopbackSender
	signer  trustService.AuditSigner
	metrics *trustRepository.MetricsStore
}

func newTrustFixture(t *testing.T, cfg *config.Config) *trustFixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens := tokenUsecase.NewAuthority(
		cfg,
		tokenRepository.NewClientStore(),
		tokenRepository.NewGrantStore(),
		tokenRepository.NewTokenStore(),
		&fakeSecretService{},
		tokenService.NewTokenService(),
		logger,
	)

	certificates, err := caUsecase.NewAuthority(
		cfg,
		caService.NewIssuer(),
		caService.NewPassthroughKeystore(),
		caRepository.NewCertStore(),
		caRepository.NewRevocationStore(),
		logger,
	)
	require.NoError(t, err)

	keyring, err := channelService.NewKeyring([]byte("channel-master-key-for-tests-0001"))
	require.NoError(t, err)

	agentStore := trustRepository.NewAgentStore()
	sender := &loopbackSender{}
	channel := channelUsecase.NewChannel(
		cfg,
		channelRepository.NewSessionStore(),
		channelRepository.NewReplayCache(cfg.ReplayCacheTTL, cfg.ReplayCacheCapacity, time.Minute, logger),
		tokens,
		certificates,
		agentStore,
		keyring,
		channelService.NewEnvelopeSigner(),
		channelService.NewPayloadSealer(),
		sender,
		logger,
	)
	sender.channel = channel

	auditSigner, err := trustService.NewAuditSigner([]byte("audit-signing-key-for-tests-00001"))
	require.NoError(t, err)

	metricsStore := trustRepository.NewMetricsStore(100)
	svc := NewService(
		cfg,
		trustDomain.PolicyFromConfig(cfg),
		tokens,
		certificates,
		channel,
		agentStore,
		metricsStore,
		auditSigner,
		trustService.NewRateLimiter(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, time.Minute),
		logger,
	)

	return &trustFixture{
		service: svc,
		channel: channel,
		certs:   certificates,
		sender:  sender,
		signer:  auditSigner,
		metrics: metricsStore,
	}
}

func registerLocalAgent(t *testing.T, fx *trustFixture) *trustDomain.RegisterAgentResult {
	t.Helper()
	result := fx.service.RegisterAgent(context.Background(), &trustDomain.AgentInfo{
		Name:         "payment-agent",
		BaseURL:      "https://payment-agent.example.com",
		RedirectURIs: []string{"https://payment-agent.example.com/callback"},
	})
	require.True(t, result.Success)
	return result
}

func TestService_RegisterAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_WithCertificate", func(t *testing.T) {
		fx := newTrustFixture(t, nil)

		result := registerLocalAgent(t, fx)

		assert.Equal(t, "payment-agent", result.AgentID)
		assert.NotEmpty(t, result.ClientSecret)
		assert.NotEmpty(t, result.CertificatePEM)
		assert.NotEmpty(t, result.PrivateKeyPEM)
		assert.Equal(t, "https://payment-agent.example.com/oauth/token", result.OAuthEndpoints.TokenURL)
	})

	t.Run("Success_NoCertificateWithoutMTLS", func(t *testing.T) {
		cfg := testConfig()
		cfg.MTLSEnabled = false
		fx := newTrustFixture(t, cfg)

		result := registerLocalAgent(t, fx)

		assert.Empty(t, result.CertificatePEM)
		assert.Empty(t, result.PrivateKeyPEM)
	})

	t.Run("Error_MissingRedirectURIs", func(t *testing.T) {
		fx := newTrustFixture(t, nil)

		result := fx.service.RegisterAgent(ctx, &trustDomain.AgentInfo{
			Name:    "payment-agent",
			BaseURL: "https://payment-agent.example.com",
		})

		assert.False(t, result.Success)
		assert.Equal(t, "validation_error", result.ErrorCode)
	})

	t.Run("Error_DuplicateAgent", func(t *testing.T) {
		fx := newTrustFixture(t, nil)
		registered := registerLocalAgent(t, fx)
		status, err := fx.certs.Status(ctx, "payment-agent")
		require.NoError(t, err)

		result := fx.service.RegisterAgent(ctx, &trustDomain.AgentInfo{
			Name:         "payment-agent",
			BaseURL:      "https://payment-agent.example.com",
			RedirectURIs: []string{"https://payment-agent.example.com/callback"},
		})

		assert.False(t, result.Success)
		assert.Equal(t, "validation_error", result.ErrorCode)

		// The rejected attempt created no client and superseded no
		// certificate; the original credentials remain intact.
		after, err := fx.certs.Status(ctx, "payment-agent")
		require.NoError(t, err)
		assert.Equal(t, status.SerialNumber, after.SerialNumber)

		auth := fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: registered.ClientSecret,
		})
		assert.True(t, auth.Success)
	})
}

func TestService_AuthenticateAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ValidCredentials", func(t *testing.T) {
		fx := newTrustFixture(t, nil)
		registered := registerLocalAgent(t, fx)

		result := fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: registered.ClientSecret,
		})

		require.True(t, result.Success)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.False(t, result.MFARequired)
	})

	t.Run("Success_MFARequiredSurfaced", func(t *testing.T) {
		cfg := testConfig()
		cfg.MFARequired = true
		fx := newTrustFixture(t, cfg)
		registered := registerLocalAgent(t, fx)

		result := fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: registered.ClientSecret,
		})

		require.True(t, result.Success)
		assert.True(t, result.MFARequired)
	})

	t.Run("Error_WrongSecret", func(t *testing.T) {
		fx := newTrustFixture(t, nil)
		registered := registerLocalAgent(t, fx)

		result := fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: "wrong-secret",
		})

		assert.False(t, result.Success)
		assert.Empty(t, result.AccessToken)
		assert.Equal(t, "authentication_error", result.ErrorCode)
	})

	t.Run("Error_BlockedIPNeverReachesAuthority", func(t *testing.T) {
		cfg := testConfig()
		cfg.AllowedIPs = "10.0.0.1"
		fx := newTrustFixture(t, cfg)
		registered := registerLocalAgent(t, fx)

		blocked := fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: registered.ClientSecret,
			SourceIP:     "192.168.1.50",
		})

		assert.False(t, blocked.Success)
		assert.Equal(t, "security_error", blocked.ErrorCode)

		// The same credentials still work from an allowed address.
		allowed := fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: registered.ClientSecret,
			SourceIP:     "10.0.0.1",
		})
		assert.True(t, allowed.Success)

		snapshot := fx.service.SecurityMetrics(ctx)
		assert.Equal(t, int64(1), snapshot.Blocked)
	})

	t.Run("Error_BlockedUserAgent", func(t *testing.T) {
		cfg := testConfig()
		cfg.AllowedUserAgents = "trust-agent/1.0"
		fx := newTrustFixture(t, cfg)
		registered := registerLocalAgent(t, fx)

		result := fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: registered.ClientSecret,
			UserAgent:    "curl/8.0",
		})

		assert.False(t, result.Success)
		assert.Equal(t, "security_error", result.ErrorCode)
	})

	t.Run("Error_RateLimited", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimitRequestsPerSec = 0.001
		cfg.RateLimitBurst = 2
		fx := newTrustFixture(t, cfg)
		registered := registerLocalAgent(t, fx)

		input := &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: registered.ClientSecret,
		}
		assert.True(t, fx.service.AuthenticateAgent(ctx, input).Success)
		assert.True(t, fx.service.AuthenticateAgent(ctx, input).Success)

		limited := fx.service.AuthenticateAgent(ctx, input)
		assert.False(t, limited.Success)
		assert.Equal(t, "rate_limit_error", limited.ErrorCode)
	})

	t.Run("Error_MalformedClientID", func(t *testing.T) {
		fx := newTrustFixture(t, nil)

		result := fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     "not-a-uuid",
			ClientSecret: "whatever",
		})

		assert.False(t, result.Success)
		assert.Equal(t, "validation_error", result.ErrorCode)
	})
}

func TestService_SecureMessaging(t *testing.T) {
	ctx := context.Background()
	payload := json.RawMessage(`{"amount":1000,"currency":"THB"}`)

	t.Run("Scenario_RegisterAuthenticateChannelEncryptReplay", func(t *testing.T) {
		fx := newTrustFixture(t, nil)

		registered := registerLocalAgent(t, fx)

		auth := fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: registered.ClientSecret,
		})
		require.True(t, auth.Success)

		channel := fx.service.EstablishSecureChannel(ctx, "payment-agent", channelDomain.SecurityLevelHigh)
		require.True(t, channel.Success)
		assert.True(t, channel.HasTLS)
		assert.NotEmpty(t, channel.ConnectionID)

		first := fx.service.SendSecureMessage(
			ctx, "payment-agent", channelDomain.MessageTypePaymentRequest, payload,
			channelDomain.SendOptions{Encrypt: true},
		)
		require.True(t, first.Success)
		assert.True(t, first.Encrypted)
		assert.NotEmpty(t, first.MessageID)

		second := fx.service.SendSecureMessage(
			ctx, "payment-agent", channelDomain.MessageTypePaymentRequest, payload,
			channelDomain.SendOptions{Encrypt: true},
		)
		require.True(t, second.Success)
		assert.NotEqual(t, first.MessageID, second.MessageID)

		// Replaying the exact envelope object is rejected on receive.
		replayed := fx.sender.captured[len(fx.sender.captured)-1]
		_, err := fx.channel.Receive(ctx, replayed)
		assert.Error(t, err)
	})

	t.Run("Error_SendWithoutChannel", func(t *testing.T) {
		fx := newTrustFixture(t, nil)
		registerLocalAgent(t, fx)

		result := fx.service.SendSecureMessage(
			ctx, "payment-agent", channelDomain.MessageTypePaymentRequest, payload,
			channelDomain.SendOptions{},
		)

		assert.False(t, result.Success)
		assert.Equal(t, "state_error", result.ErrorCode)
	})

	t.Run("Error_ChannelToUnknownAgent", func(t *testing.T) {
		fx := newTrustFixture(t, nil)
		registerLocalAgent(t, fx)

		result := fx.service.EstablishSecureChannel(ctx, "ghost-agent", channelDomain.SecurityLevelHigh)

		assert.False(t, result.Success)
		assert.Equal(t, "security_error", result.ErrorCode)
	})
}

func TestService_PerformHealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Healthy", func(t *testing.T) {
		fx := newTrustFixture(t, nil)
		registerLocalAgent(t, fx)
		require.True(t, fx.service.EstablishSecureChannel(ctx, "payment-agent", channelDomain.SecurityLevelStandard).Success)

		result := fx.service.PerformHealthCheck(ctx, "payment-agent")

		assert.Equal(t, trustDomain.HealthStateHealthy, result.State)
		assert.Empty(t, result.ErrorCode)
	})

	t.Run("Error_UnhealthyWithoutSession", func(t *testing.T) {
		fx := newTrustFixture(t, nil)
		registerLocalAgent(t, fx)

		result := fx.service.PerformHealthCheck(ctx, "payment-agent")

		assert.Equal(t, trustDomain.HealthStateUnhealthy, result.State)
		assert.Equal(t, "state_error", result.ErrorCode)
	})
}

func TestService_SecurityMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CountersAndSignedEvents", func(t *testing.T) {
		fx := newTrustFixture(t, nil)
		registered := registerLocalAgent(t, fx)

		fx.service.AuthenticateAgent(ctx, &AuthenticateInput{
			ClientID:     registered.ClientID.String(),
			ClientSecret: "wrong-secret",
		})

		snapshot := fx.service.SecurityMetrics(ctx)

		assert.Equal(t, int64(2), snapshot.TotalRequests)
		assert.Equal(t, int64(1), snapshot.Successes)
		assert.Equal(t, int64(1), snapshot.Failures)
		assert.Equal(t, int64(1), snapshot.ByErrorCode["authentication_error"])
		require.Len(t, snapshot.RecentEvents, 2)

		for i := range snapshot.RecentEvents {
			assert.NoError(t, fx.signer.Verify(&snapshot.RecentEvents[i]))
		}
	})

	t.Run("Success_SnapshotIsACopy", func(t *testing.T) {
		fx := newTrustFixture(t, nil)
		registerLocalAgent(t, fx)

		first := fx.service.SecurityMetrics(ctx)
		first.ByAgent["payment-agent"] = 999

		second := fx.service.SecurityMetrics(ctx)
		assert.NotEqual(t, int64(999), second.ByAgent["payment-agent"])
	})
}
