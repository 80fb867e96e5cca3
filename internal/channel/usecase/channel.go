// Package usecase implements business logic orchestration for the secure channel.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	channelService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/service"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/transport"
	appvalidation "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/validation"
)

// channel implements the Channel interface. Session state lives in the
// store; the channel itself only holds its own OAuth client identity and the
// handler registry.
type channel struct {
	config       *config.Config
	sessionStore SessionStore
	replayGuard  ReplayGuard
	tokenIssuer  TokenIssuer
	certificates CertificateProvider
	directory    AgentDirectory
	keyring      channelService.Keyring
	signer       channelService.EnvelopeSigner
	sealer       channelService.PayloadSealer
	sender       transport.Sender
	logger       *slog.Logger

	credMu       sync.RWMutex
	clientID     uuid.UUID
	clientSecret string

	handlerMu sync.RWMutex
	handlers  map[channelDomain.MessageType]Handler
}

// NewChannel creates a new secure channel with the provided dependencies.
func NewChannel(
	cfg *config.Config,
	sessionStore SessionStore,
	replayGuard ReplayGuard,
	tokenIssuer TokenIssuer,
	certificates CertificateProvider,
	directory AgentDirectory,
	keyring channelService.Keyring,
	signer channelService.EnvelopeSigner,
	sealer channelService.PayloadSealer,
	sender transport.Sender,
	logger *slog.Logger,
) Channel {
	return &channel{
		config:       cfg,
		sessionStore: sessionStore,
		replayGuard:  replayGuard,
		tokenIssuer:  tokenIssuer,
		certificates: certificates,
		directory:    directory,
		keyring:      keyring,
		signer:       signer,
		sealer:       sealer,
		sender:       sender,
		logger:       logger,
		handlers:     make(map[channelDomain.MessageType]Handler),
	}
}

// SetCredentials installs the OAuth client identity used to open sessions.
func (c *channel) SetCredentials(clientID uuid.UUID, clientSecret string) {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	c.clientID = clientID
	c.clientSecret = clientSecret
}

func (c *channel) credentials() (uuid.UUID, string, error) {
	c.credMu.RLock()
	defer c.credMu.RUnlock()
	if c.clientID == uuid.Nil {
		return uuid.Nil, "", apperrors.Wrap(apperrors.ErrState, "channel credentials not configured")
	}
	return c.clientID, c.clientSecret, nil
}

// Open establishes a session with the target agent.
//
// Security Notes:
//   - For SecurityLevelHigh the operation fails unless mTLS material
//     validates for both the local agent and the target.
//   - The session is recorded only after every step succeeded, so callers
//     never observe a partially opened session.
func (c *channel) Open(
	ctx context.Context,
	targetAgentID string,
	level channelDomain.SecurityLevel,
) (*channelDomain.Session, error) {
	err := validation.Errors{
		"target_agent_id": validation.Validate(targetAgentID, validation.Required, appvalidation.AgentID),
	}.Filter()
	if err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}
	if level != channelDomain.SecurityLevelStandard && level != channelDomain.SecurityLevelHigh {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "unknown security level")
	}

	clientID, clientSecret, err := c.credentials()
	if err != nil {
		return nil, err
	}

	pair, err := c.tokenIssuer.ClientCredentials(ctx, clientID, clientSecret, tokenDomain.DefaultScope)
	if err != nil {
		return nil, err
	}

	session := &channelDomain.Session{
		TargetAgentID:  targetAgentID,
		SecurityLevel:  level,
		BearerToken:    pair.AccessToken,
		EstablishedAt:  time.Now().UTC(),
		LastActivityAt: time.Now().UTC(),
		IsActive:       true,
	}

	if level == channelDomain.SecurityLevelHigh {
		// The target's certificate must validate before any session exists.
		if _, err := c.certificates.TLSMaterial(ctx, targetAgentID, c.config.AgentID); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrSecurity, "target certificate validation failed")
		}

		material, err := c.certificates.TLSMaterial(ctx, c.config.AgentID, targetAgentID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrSecurity, "local certificate validation failed")
		}
		session.TLSClientConfig = material.ClientConfig
	}

	if err := c.sessionStore.Put(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("secure channel opened",
		slog.String("target_agent_id", targetAgentID),
		slog.String("security_level", string(level)),
	)
	return session, nil
}

// Send signs, optionally encrypts, and delivers a message over an open session.
//
// The signature covers the plaintext payload before any encryption, so
// integrity holds independently of confidentiality. Session counters are
// updated only after the transport reports success, and no store lock is
// held across the transport call.
func (c *channel) Send(
	ctx context.Context,
	targetAgentID string,
	messageType channelDomain.MessageType,
	payload json.RawMessage,
	opts channelDomain.SendOptions,
) (*channelDomain.Response, error) {
	if !channelDomain.KnownMessageType(messageType) {
		return nil, channelDomain.ErrUnknownMessageType
	}

	session, err := c.sessionStore.Get(ctx, targetAgentID)
	if err != nil || !session.IsActive {
		return nil, channelDomain.ErrNoActiveSession
	}

	baseURL, err := c.directory.Resolve(ctx, targetAgentID)
	if err != nil {
		return nil, err
	}

	envelope, plaintext, err := c.buildEnvelope(targetAgentID, messageType, payload, opts.Encrypt)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.config.SendTimeout
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	response, err := c.sender.Send(sendCtx, baseURL, session.BearerToken, session.TLSClientConfig, envelope)
	if err != nil {
		c.logger.Warn("message delivery failed",
			slog.String("target_agent_id", targetAgentID),
			slog.String("message_id", envelope.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := c.sessionStore.RecordActivity(ctx, targetAgentID, time.Now().UTC()); err != nil {
		return nil, err
	}

	c.logger.Info("message sent",
		slog.String("target_agent_id", targetAgentID),
		slog.String("message_id", envelope.ID),
		slog.String("message_type", string(messageType)),
		slog.Bool("encrypted", envelope.Encrypted),
		slog.Int("payload_bytes", len(plaintext)),
	)
	return response, nil
}

// buildEnvelope assembles a signed envelope, sealing the payload afterwards
// when encryption is requested. Returns the envelope and the plaintext the
// signature covers.
func (c *channel) buildEnvelope(
	targetAgentID string,
	messageType channelDomain.MessageType,
	payload json.RawMessage,
	encrypt bool,
) (*channelDomain.Envelope, []byte, error) {
	nonce, err := channelService.GenerateNonce()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to generate nonce")
	}

	envelope := &channelDomain.Envelope{
		ID:        uuid.Must(uuid.NewV7()).String(),
		From:      c.config.AgentID,
		To:        targetAgentID,
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		Nonce:     nonce,
	}

	signingKey, err := c.keyring.SigningKey(envelope.From, envelope.To)
	if err != nil {
		return nil, nil, err
	}
	signature, err := c.signer.Sign(signingKey, envelope, payload)
	if err != nil {
		return nil, nil, err
	}
	envelope.Signature = signature

	if encrypt {
		sealingKey, err := c.keyring.SealingKey(envelope.From, envelope.To)
		if err != nil {
			return nil, nil, err
		}
		sealed, err := c.sealer.Seal(sealingKey, envelope, payload)
		if err != nil {
			return nil, nil, err
		}
		sealedBytes, err := json.Marshal(sealed)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to encode sealed payload")
		}
		envelope.Payload = sealedBytes
		envelope.Encrypted = true
	}

	return envelope, payload, nil
}

// Receive verifies and dispatches an inbound envelope.
//
// Order matters: the replay check runs before any cryptographic work so a
// replay flood stays cheap. For encrypted envelopes the AEAD open runs
// before signature verification; its authentication tag covers the envelope
// header, so tampered ciphertexts are rejected there. The envelope ID is
// recorded only after successful dispatch.
func (c *channel) Receive(
	ctx context.Context,
	envelope *channelDomain.Envelope,
) (*channelDomain.Response, error) {
	if c.replayGuard.Seen(ctx, envelope.ID) {
		c.logger.Warn("replayed envelope rejected",
			slog.String("message_id", envelope.ID),
			slog.String("from", envelope.From),
		)
		return nil, channelDomain.ErrEnvelopeReplayed
	}

	if skew := time.Since(envelope.Timestamp); c.config.ClockSkewWindow > 0 &&
		(skew > c.config.ClockSkewWindow || skew < -c.config.ClockSkewWindow) {
		c.logger.Warn("stale envelope rejected",
			slog.String("message_id", envelope.ID),
			slog.String("from", envelope.From),
			slog.Duration("skew", skew),
		)
		return nil, channelDomain.ErrEnvelopeStale
	}

	plaintext := []byte(envelope.Payload)
	if envelope.Encrypted {
		var sealed channelDomain.EncryptedPayload
		if err := json.Unmarshal(envelope.Payload, &sealed); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrSecurity, "malformed encrypted payload")
		}

		sealingKey, err := c.keyring.SealingKey(envelope.From, envelope.To)
		if err != nil {
			return nil, err
		}
		plaintext, err = c.sealer.Open(sealingKey, envelope, &sealed)
		if err != nil {
			return nil, err
		}
	}

	signingKey, err := c.keyring.SigningKey(envelope.From, envelope.To)
	if err != nil {
		return nil, err
	}
	if err := c.signer.Verify(signingKey, envelope, plaintext); err != nil {
		c.logger.Warn("envelope signature rejected",
			slog.String("message_id", envelope.ID),
			slog.String("from", envelope.From),
		)
		return nil, err
	}

	if !channelDomain.KnownMessageType(envelope.Type) {
		return nil, channelDomain.ErrUnknownMessageType
	}

	response, err := c.dispatch(ctx, envelope, plaintext)
	if err != nil {
		return nil, err
	}

	c.replayGuard.Record(ctx, envelope.ID)

	c.logger.Info("message received",
		slog.String("message_id", envelope.ID),
		slog.String("from", envelope.From),
		slog.String("message_type", string(envelope.Type)),
	)
	return response, nil
}

// dispatch routes the envelope to its registered handler. Types without a
// handler are acknowledged without processing.
func (c *channel) dispatch(
	ctx context.Context,
	envelope *channelDomain.Envelope,
	plaintext []byte,
) (*channelDomain.Response, error) {
	c.handlerMu.RLock()
	handler := c.handlers[envelope.Type]
	c.handlerMu.RUnlock()

	if handler == nil {
		return &channelDomain.Response{
			MessageID: envelope.ID,
			Status:    "received",
		}, nil
	}

	data, err := handler(ctx, envelope, plaintext)
	if err != nil {
		return nil, err
	}
	return &channelDomain.Response{
		MessageID: envelope.ID,
		Status:    "processed",
		Data:      data,
	}, nil
}

// RegisterHandler installs the handler for a known message type.
func (c *channel) RegisterHandler(messageType channelDomain.MessageType, handler Handler) error {
	if !channelDomain.KnownMessageType(messageType) {
		return channelDomain.ErrUnknownMessageType
	}

	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.handlers[messageType] = handler
	return nil
}

// Close marks the target's session inactive and removes it.
func (c *channel) Close(ctx context.Context, targetAgentID string) error {
	if err := c.sessionStore.Delete(ctx, targetAgentID); err != nil {
		return err
	}
	c.logger.Info("secure channel closed", slog.String("target_agent_id", targetAgentID))
	return nil
}

// Status returns the read-only projection of the target's session.
func (c *channel) Status(ctx context.Context, targetAgentID string) (*channelDomain.SessionStatus, error) {
	session, err := c.sessionStore.Get(ctx, targetAgentID)
	if err != nil {
		return nil, err
	}
	return projectSession(session), nil
}

// ListActive returns projections of all active sessions.
func (c *channel) ListActive(ctx context.Context) ([]*channelDomain.SessionStatus, error) {
	sessions, err := c.sessionStore.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]*channelDomain.SessionStatus, 0, len(sessions))
	for _, session := range sessions {
		statuses = append(statuses, projectSession(session))
	}
	return statuses, nil
}

func projectSession(session *channelDomain.Session) *channelDomain.SessionStatus {
	return &channelDomain.SessionStatus{
		TargetAgentID:  session.TargetAgentID,
		SecurityLevel:  session.SecurityLevel,
		EstablishedAt:  session.EstablishedAt,
		LastActivityAt: session.LastActivityAt,
		MessageCount:   session.MessageCount,
		IsActive:       session.IsActive,
	}
}
