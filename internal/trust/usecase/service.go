// Package usecase implements the trust service orchestration.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	caUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/usecase"
	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	channelUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/usecase"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
	tokenUsecase "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/usecase"
	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
	trustService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/service"
	appvalidation "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/validation"
)

// service implements the Service interface. It owns no domain state of its
// own beyond the agent registry and metrics; everything else is delegated to
// the authorities and the channel.
type service struct {
	config       *config.Config
	policy       *trustDomain.SecurityPolicy
	tokens       tokenUsecase.Authority
	certificates caUsecase.Authority
	channel      channelUsecase.Channel
	agentStore   AgentStore
	metricsStore MetricsStore
	auditSigner  trustService.AuditSigner
	rateLimiter  trustService.RateLimiter
	logger       *slog.Logger
}

// NewService creates a new trust service with the provided dependencies.
func NewService(
	cfg *config.Config,
	policy *trustDomain.SecurityPolicy,
	tokens tokenUsecase.Authority,
	certificates caUsecase.Authority,
	channel channelUsecase.Channel,
	agentStore AgentStore,
	metricsStore MetricsStore,
	auditSigner trustService.AuditSigner,
	rateLimiter trustService.RateLimiter,
	logger *slog.Logger,
) Service {
	return &service{
		config:       cfg,
		policy:       policy,
		tokens:       tokens,
		certificates: certificates,
		channel:      channel,
		agentStore:   agentStore,
		metricsStore: metricsStore,
		auditSigner:  auditSigner,
		rateLimiter:  rateLimiter,
		logger:       logger,
	}
}

// RegisterAgent registers an agent with the token authority and, when the
// policy enables mTLS, issues its certificate. Registering the local agent
// also installs the channel's client credentials.
func (s *service) RegisterAgent(
	ctx context.Context,
	info *trustDomain.AgentInfo,
) *trustDomain.RegisterAgentResult {
	err := validation.Errors{
		"name":          validation.Validate(info.Name, validation.Required, appvalidation.AgentID),
		"base_url":      validation.Validate(info.BaseURL, validation.Required, appvalidation.RedirectURI),
		"redirect_uris": validation.Validate(info.RedirectURIs, validation.Required),
	}.Filter()
	if err != nil {
		return s.failRegister(ctx, info.Name, appvalidation.WrapValidationError(err))
	}

	// Duplicate names are rejected before any client or certificate exists,
	// so a failed registration leaves no orphaned credentials behind.
	if _, err := s.agentStore.Get(ctx, info.Name); err == nil {
		return s.failRegister(ctx, info.Name, trustDomain.ErrAgentExists)
	}

	clientOut, err := s.tokens.RegisterClient(ctx, &tokenDomain.RegisterClientInput{
		Name:         info.Name,
		RedirectURIs: info.RedirectURIs,
	})
	if err != nil {
		return s.failRegister(ctx, info.Name, err)
	}

	result := &trustDomain.RegisterAgentResult{
		Success:      true,
		AgentID:      info.Name,
		ClientID:     clientOut.ClientID,
		ClientSecret: clientOut.PlainSecret,
		OAuthEndpoints: trustDomain.OAuthEndpoints{
			AuthorizeURL: s.config.AgentBaseURL + "/oauth/authorize",
			TokenURL:     s.config.AgentBaseURL + "/oauth/token",
		},
	}

	if s.policy.MTLSEnabled {
		certOut, err := s.certificates.Issue(ctx, info.Name, info.Subject)
		if err != nil {
			return s.failRegister(ctx, info.Name, err)
		}
		result.CertificatePEM = string(certOut.Certificate.CertificatePEM)
		result.PrivateKeyPEM = string(certOut.PrivateKeyPEM)
	}

	agent := &trustDomain.Agent{
		AgentID:      info.Name,
		ClientID:     clientOut.ClientID,
		BaseURL:      info.BaseURL,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.agentStore.Create(ctx, agent); err != nil {
		return s.failRegister(ctx, info.Name, err)
	}

	if info.Name == s.config.AgentID {
		s.channel.SetCredentials(clientOut.ClientID, clientOut.PlainSecret)
	}

	s.metricsStore.RecordSuccess(ctx, info.Name)
	s.audit(ctx, trustDomain.EventAgentRegistered, info.Name, true, "", "agent registered")
	return result
}

// AuthenticateAgent enforces the security policy before touching the token
// authority: a blocked attempt changes no authority state.
func (s *service) AuthenticateAgent(
	ctx context.Context,
	input *AuthenticateInput,
) *trustDomain.AuthenticationResult {
	if !s.policy.IPAllowed(input.SourceIP) {
		return s.blockAuthentication(ctx, input.ClientID, trustDomain.ErrIPNotAllowed)
	}
	if !s.policy.UserAgentAllowed(input.UserAgent) {
		return s.blockAuthentication(ctx, input.ClientID, trustDomain.ErrUserAgentNotAllowed)
	}
	if s.policy.RateLimit.Enabled && !s.rateLimiter.Allow(input.ClientID) {
		return s.blockAuthentication(ctx, input.ClientID, trustDomain.ErrRateLimited)
	}

	clientID, err := uuid.Parse(input.ClientID)
	if err != nil {
		return s.failAuthentication(ctx, input.ClientID, apperrors.Wrap(apperrors.ErrValidation, "malformed client id"))
	}

	pair, err := s.tokens.ClientCredentials(ctx, clientID, input.ClientSecret, tokenDomain.DefaultScope)
	if err != nil {
		return s.failAuthentication(ctx, input.ClientID, err)
	}

	s.metricsStore.RecordSuccess(ctx, input.ClientID)
	s.audit(ctx, trustDomain.EventAuthentication, input.ClientID, true, "", "authentication succeeded")
	return &trustDomain.AuthenticationResult{
		Success:     true,
		ClientID:    clientID,
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   int64(pair.ExpiresIn),
		MFARequired: s.policy.MFARequired,
	}
}

// EstablishSecureChannel opens a secure channel to the target agent.
func (s *service) EstablishSecureChannel(
	ctx context.Context,
	targetAgentID string,
	level channelDomain.SecurityLevel,
) *trustDomain.ChannelResult {
	session, err := s.channel.Open(ctx, targetAgentID, level)
	if err != nil {
		code := apperrors.Code(err)
		s.metricsStore.RecordFailure(ctx, targetAgentID, code)
		s.audit(ctx, trustDomain.EventChannelEstablished, targetAgentID, false, code, "channel establishment failed")
		return &trustDomain.ChannelResult{
			Success:   false,
			ErrorCode: code,
			Error:     categoryMessage(code),
		}
	}

	s.metricsStore.RecordSuccess(ctx, targetAgentID)
	s.audit(ctx, trustDomain.EventChannelEstablished, targetAgentID, true, "", "channel established")
	return &trustDomain.ChannelResult{
		Success:       true,
		ConnectionID:  uuid.Must(uuid.NewV7()).String(),
		HasTLS:        session.TLSClientConfig != nil,
		EstablishedAt: session.EstablishedAt,
	}
}

// SendSecureMessage sends a message over an established channel, stamping
// the result with delivery time and whether encryption was applied.
func (s *service) SendSecureMessage(
	ctx context.Context,
	targetAgentID string,
	messageType channelDomain.MessageType,
	payload json.RawMessage,
	opts channelDomain.SendOptions,
) *trustDomain.MessageResult {
	response, err := s.channel.Send(ctx, targetAgentID, messageType, payload, opts)
	if err != nil {
		code := apperrors.Code(err)
		s.metricsStore.RecordFailure(ctx, targetAgentID, code)
		s.audit(ctx, trustDomain.EventMessageSent, targetAgentID, false, code, "message delivery failed")
		return &trustDomain.MessageResult{
			Success:   false,
			Timestamp: time.Now().UTC(),
			ErrorCode: code,
			Error:     categoryMessage(code),
		}
	}

	s.metricsStore.RecordSuccess(ctx, targetAgentID)
	s.audit(ctx, trustDomain.EventMessageSent, targetAgentID, true, "", "message delivered")
	return &trustDomain.MessageResult{
		Success:   true,
		MessageID: response.MessageID,
		Encrypted: opts.Encrypt,
		Timestamp: time.Now().UTC(),
		Response:  response.Data,
	}
}

// PerformHealthCheck probes the target with a health_check message and
// classifies the outcome by success and latency.
func (s *service) PerformHealthCheck(ctx context.Context, targetAgentID string) *trustDomain.HealthResult {
	payload, _ := json.Marshal(map[string]any{
		"ping": time.Now().UTC().Format(time.RFC3339Nano),
	})

	start := time.Now()
	_, err := s.channel.Send(ctx, targetAgentID, channelDomain.MessageTypeHealthCheck, payload, channelDomain.SendOptions{})
	latency := time.Since(start)

	result := &trustDomain.HealthResult{
		TargetAgentID: targetAgentID,
		Latency:       latency.Milliseconds(),
		CheckedAt:     time.Now().UTC(),
	}

	switch {
	case err != nil:
		result.State = trustDomain.HealthStateUnhealthy
		result.ErrorCode = apperrors.Code(err)
		s.metricsStore.RecordFailure(ctx, targetAgentID, result.ErrorCode)
	case latency > s.config.HealthDegradedThreshold:
		result.State = trustDomain.HealthStateDegraded
		s.metricsStore.RecordSuccess(ctx, targetAgentID)
	default:
		result.State = trustDomain.HealthStateHealthy
		s.metricsStore.RecordSuccess(ctx, targetAgentID)
	}

	s.audit(ctx, trustDomain.EventHealthCheck, targetAgentID, err == nil, result.ErrorCode, string(result.State))
	return result
}

// SecurityMetrics returns the aggregated counter snapshot.
func (s *service) SecurityMetrics(ctx context.Context) *trustDomain.SecurityMetrics {
	return s.metricsStore.Snapshot(ctx)
}

func (s *service) failRegister(ctx context.Context, agentID string, err error) *trustDomain.RegisterAgentResult {
	code := apperrors.Code(err)
	s.metricsStore.RecordFailure(ctx, agentID, code)
	s.audit(ctx, trustDomain.EventAgentRegistered, agentID, false, code, "agent registration failed")
	return &trustDomain.RegisterAgentResult{
		Success:   false,
		ErrorCode: code,
		Error:     categoryMessage(code),
	}
}

func (s *service) blockAuthentication(
	ctx context.Context,
	clientID string,
	err error,
) *trustDomain.AuthenticationResult {
	code := apperrors.Code(err)
	s.metricsStore.RecordBlocked(ctx, clientID, code)
	s.audit(ctx, trustDomain.EventPolicyViolation, clientID, false, code, "authentication blocked by policy")
	return &trustDomain.AuthenticationResult{
		Success:   false,
		ErrorCode: code,
		Error:     categoryMessage(code),
	}
}

func (s *service) failAuthentication(
	ctx context.Context,
	clientID string,
	err error,
) *trustDomain.AuthenticationResult {
	code := apperrors.Code(err)
	s.metricsStore.RecordFailure(ctx, clientID, code)
	s.audit(ctx, trustDomain.EventAuthentication, clientID, false, code, "authentication failed")
	return &trustDomain.AuthenticationResult{
		Success:   false,
		ErrorCode: code,
		Error:     categoryMessage(code),
	}
}

// audit signs and records one security event. Audit failures are logged but
// never fail the operation being audited.
func (s *service) audit(
	ctx context.Context,
	eventType trustDomain.EventType,
	agentID string,
	success bool,
	errorCode string,
	detail string,
) {
	event := trustDomain.SecurityEvent{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      eventType,
		AgentID:   agentID,
		Success:   success,
		ErrorCode: errorCode,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}

	signature, err := s.auditSigner.Sign(&event)
	if err != nil {
		s.logger.Error("failed to sign security event",
			slog.String("event_type", string(eventType)),
			slog.String("error", err.Error()),
		)
		return
	}
	event.Signature = signature

	s.metricsStore.AppendEvent(ctx, event)

	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "security event",
		slog.String("event_type", string(eventType)),
		slog.String("agent_id", agentID),
		slog.Bool("success", success),
		slog.String("error_code", errorCode),
	)
}

// categoryMessage maps a stable error code to its user-visible category.
// Internal detail never crosses this boundary.
func categoryMessage(code string) string {
	switch code {
	case "validation_error":
		return "invalid request"
	case "authentication_error":
		return "authentication failed"
	case "security_error":
		return "security check failed"
	case "replay_error":
		return "duplicate message"
	case "rate_limit_error":
		return "rate limit exceeded"
	case "state_error":
		return "operation not allowed in current state"
	case "timeout_error":
		return "operation timed out"
	case "transport_error":
		return "delivery failed"
	case "not_found":
		return "resource not found"
	default:
		return "internal error"
	}
}
