package usecase

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	caService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/service"
	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	channelRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/repository"
	channelService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/service"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(
	ctx context.Context,
	baseURL string,
	bearerToken string,
	tlsConfig *tls.Config,
	envelope *channelDomain.Envelope,
) (*channelDomain.Response, error) {
	args := m.Called(ctx, baseURL, bearerToken, tlsConfig, envelope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channelDomain.Response), args.Error(1)
}

type fakeTokenIssuer struct {
	err error
}

func (f *fakeTokenIssuer) ClientCredentials(
	ctx context.Context,
	clientID uuid.UUID,
	clientSecret string,
	scope string,
) (*tokenDomain.TokenPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tokenDomain.TokenPair{
		AccessToken: "bearer-token-for-" + clientID.String(),
		TokenType:   "Bearer",
		Scope:       scope,
	}, nil
}

type fakeCertificateProvider struct {
	err error
}

func (f *fakeCertificateProvider) TLSMaterial(
	ctx context.Context,
	agentID string,
	serverName string,
) (*caService.TLSMaterial, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &caService.TLSMaterial{
		ClientConfig: &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12},
		ServerConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}, nil
}

type fakeDirectory struct{}

func (f *fakeDirectory) Resolve(ctx context.Context, agentID string) (string, error) {
	return "https://" + agentID + ".example.com", nil
}

type channelFixture struct {
	channel Channel
	sender  *mockSender
}

func newChannelFixture(t *testing.T, agentID string, tokens TokenIssuer, certs CertificateProvider) *channelFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		AgentID:         agentID,
		SendTimeout:     time.Second,
		ClockSkewWindow: time.Minute,
	}
	keyring, err := channelService.NewKeyring([]byte("channel-master-key-for-tests-0001"))
	require.NoError(t, err)
	sender := &mockSender{}

	ch := NewChannel(
		cfg,
		channelRepository.NewSessionStore(),
		channelRepository.NewReplayCache(time.Minute, 1000, time.Minute, logger),
		tokens,
		certs,
		&fakeDirectory{},
		keyring,
		channelService.NewEnvelopeSigner(),
		channelService.NewPayloadSealer(),
		sender,
		logger,
	)
	ch.SetCredentials(uuid.Must(uuid.NewV7()), "client-secret")
	return &channelFixture{channel: ch, sender: sender}
}

func TestChannel_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_StandardLevel", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})

		session, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)

		require.NoError(t, err)
		assert.True(t, session.IsActive)
		assert.NotEmpty(t, session.BearerToken)
		assert.Nil(t, session.TLSClientConfig)
	})

	t.Run("Success_HighLevelCarriesTLS", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})

		session, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelHigh)

		require.NoError(t, err)
		assert.NotNil(t, session.TLSClientConfig)
	})

	t.Run("Error_HighLevelWithInvalidCertificate", func(t *testing.T) {
		certs := &fakeCertificateProvider{err: apperrors.Wrap(apperrors.ErrSecurity, "certificate revoked")}
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, certs)

		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelHigh)

		assert.True(t, apperrors.Is(err, apperrors.ErrSecurity))

		// No partial session is visible after a failed handshake.
		_, err = fx.channel.Status(ctx, "billing-agent")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("Error_TokenIssuanceFails", func(t *testing.T) {
		tokens := &fakeTokenIssuer{err: apperrors.Wrap(apperrors.ErrAuthentication, "invalid client credentials")}
		fx := newChannelFixture(t, "payment-agent", tokens, &fakeCertificateProvider{})

		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)

		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})

	t.Run("Error_CredentialsNotConfigured", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		keyring, err := channelService.NewKeyring([]byte("channel-master-key-for-tests-0001"))
		require.NoError(t, err)
		ch := NewChannel(
			&config.Config{AgentID: "payment-agent", SendTimeout: time.Second},
			channelRepository.NewSessionStore(),
			channelRepository.NewReplayCache(time.Minute, 1000, time.Minute, logger),
			&fakeTokenIssuer{},
			&fakeCertificateProvider{},
			&fakeDirectory{},
			keyring,
			channelService.NewEnvelopeSigner(),
			channelService.NewPayloadSealer(),
			&mockSender{},
			logger,
		)

		_, err = ch.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)

		assert.True(t, apperrors.Is(err, apperrors.ErrState))
	})

	t.Run("Error_UnknownSecurityLevel", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})

		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevel("extreme"))

		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})
}

func TestChannel_Send(t *testing.T) {
	ctx := context.Background()
	payload := json.RawMessage(`{"amount":1000,"currency":"THB"}`)

	t.Run("Success_SignedPlaintext", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)
		require.NoError(t, err)

		fx.sender.On("Send", mock.Anything, "https://billing-agent.example.com", mock.Anything, mock.Anything, mock.Anything).
			Return(&channelDomain.Response{Status: "received"}, nil)

		resp, err := fx.channel.Send(ctx, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})

		require.NoError(t, err)
		assert.Equal(t, "received", resp.Status)

		envelope := fx.sender.Calls[0].Arguments.Get(4).(*channelDomain.Envelope)
		assert.Equal(t, "payment-agent", envelope.From)
		assert.Equal(t, "billing-agent", envelope.To)
		assert.False(t, envelope.Encrypted)
		assert.JSONEq(t, string(payload), string(envelope.Payload))
		assert.NotEmpty(t, envelope.Signature)
		assert.NotEmpty(t, envelope.Nonce)
	})

	t.Run("Success_EncryptedPayloadReplaced", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)
		require.NoError(t, err)

		fx.sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&channelDomain.Response{Status: "received"}, nil)

		_, err = fx.channel.Send(ctx, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{Encrypt: true})
		require.NoError(t, err)

		envelope := fx.sender.Calls[0].Arguments.Get(4).(*channelDomain.Envelope)
		assert.True(t, envelope.Encrypted)

		var sealed channelDomain.EncryptedPayload
		require.NoError(t, json.Unmarshal(envelope.Payload, &sealed))
		assert.NotEmpty(t, sealed.Ciphertext)
		assert.NotContains(t, sealed.Ciphertext, "THB")
	})

	t.Run("Success_ActivityRecordedAfterDelivery", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)
		require.NoError(t, err)

		fx.sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&channelDomain.Response{Status: "received"}, nil)

		_, err = fx.channel.Send(ctx, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})
		require.NoError(t, err)
		_, err = fx.channel.Send(ctx, "billing-agent", channelDomain.MessageTypeHealthCheck, payload, channelDomain.SendOptions{})
		require.NoError(t, err)

		status, err := fx.channel.Status(ctx, "billing-agent")
		require.NoError(t, err)
		assert.Equal(t, int64(2), status.MessageCount)
	})

	t.Run("Error_NoActiveSession", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})

		_, err := fx.channel.Send(ctx, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})

		assert.True(t, apperrors.Is(err, apperrors.ErrState))
	})

	t.Run("Error_TransportFailureLeavesCountersUntouched", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)
		require.NoError(t, err)

		fx.sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.Wrap(apperrors.ErrTransport, "target returned status 502"))

		_, err = fx.channel.Send(ctx, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})
		assert.True(t, apperrors.Is(err, apperrors.ErrTransport))

		status, err := fx.channel.Status(ctx, "billing-agent")
		require.NoError(t, err)
		assert.Equal(t, int64(0), status.MessageCount)
	})

	t.Run("Error_UnknownMessageType", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)
		require.NoError(t, err)

		_, err = fx.channel.Send(ctx, "billing-agent", channelDomain.MessageType("gossip"), payload, channelDomain.SendOptions{})

		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})
}

// sendCapture opens a session on the sending channel and returns the exact
// envelope handed to the transport.
func sendCapture(
	t *testing.T,
	fx *channelFixture,
	target string,
	messageType channelDomain.MessageType,
	payload json.RawMessage,
	opts channelDomain.SendOptions,
) *channelDomain.Envelope {
	t.Helper()
	ctx := context.Background()

	_, err := fx.channel.Open(ctx, target, channelDomain.SecurityLevelStandard)
	require.NoError(t, err)

	fx.sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&channelDomain.Response{Status: "received"}, nil)

	_, err = fx.channel.Send(ctx, target, messageType, payload, opts)
	require.NoError(t, err)

	call := fx.sender.Calls[len(fx.sender.Calls)-1]
	return call.Arguments.Get(4).(*channelDomain.Envelope)
}

func TestChannel_Receive(t *testing.T) {
	ctx := context.Background()
	payload := json.RawMessage(`{"amount":1000,"currency":"THB"}`)

	t.Run("Success_PlaintextRoundTrip", func(t *testing.T) {
		sender := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		receiver := newChannelFixture(t, "billing-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		envelope := sendCapture(t, sender, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})

		resp, err := receiver.channel.Receive(ctx, envelope)

		require.NoError(t, err)
		assert.Equal(t, envelope.ID, resp.MessageID)
	})

	t.Run("Success_EncryptedRoundTripThroughHandler", func(t *testing.T) {
		sender := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		receiver := newChannelFixture(t, "billing-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})

		var handled []byte
		err := receiver.channel.RegisterHandler(
			channelDomain.MessageTypePaymentRequest,
			func(ctx context.Context, envelope *channelDomain.Envelope, plaintext []byte) (json.RawMessage, error) {
				handled = plaintext
				return json.RawMessage(`{"approved":true}`), nil
			},
		)
		require.NoError(t, err)

		envelope := sendCapture(t, sender, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{Encrypt: true})
		resp, err := receiver.channel.Receive(ctx, envelope)

		require.NoError(t, err)
		assert.Equal(t, "processed", resp.Status)
		assert.JSONEq(t, string(payload), string(handled))
		assert.JSONEq(t, `{"approved":true}`, string(resp.Data))
	})

	t.Run("Error_Replay", func(t *testing.T) {
		sender := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		receiver := newChannelFixture(t, "billing-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		envelope := sendCapture(t, sender, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})

		_, err := receiver.channel.Receive(ctx, envelope)
		require.NoError(t, err)

		_, err = receiver.channel.Receive(ctx, envelope)
		assert.True(t, apperrors.Is(err, apperrors.ErrReplay))
	})

	t.Run("Error_TimestampOutsideSkewWindow", func(t *testing.T) {
		sender := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		receiver := newChannelFixture(t, "billing-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		envelope := sendCapture(t, sender, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})

		envelope.Timestamp = time.Now().UTC().Add(-2 * time.Minute)
		_, err := receiver.channel.Receive(ctx, envelope)
		assert.True(t, apperrors.Is(err, apperrors.ErrSecurity))

		envelope.Timestamp = time.Now().UTC().Add(2 * time.Minute)
		_, err = receiver.channel.Receive(ctx, envelope)
		assert.True(t, apperrors.Is(err, apperrors.ErrSecurity))
	})

	t.Run("Error_TamperedPayload", func(t *testing.T) {
		sender := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		receiver := newChannelFixture(t, "billing-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		envelope := sendCapture(t, sender, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})

		envelope.Payload = json.RawMessage(`{"amount":999999,"currency":"THB"}`)
		_, err := receiver.channel.Receive(ctx, envelope)

		assert.True(t, apperrors.Is(err, apperrors.ErrSecurity))
	})

	t.Run("Error_TamperedCiphertext", func(t *testing.T) {
		sender := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		receiver := newChannelFixture(t, "billing-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		envelope := sendCapture(t, sender, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{Encrypt: true})

		var sealed channelDomain.EncryptedPayload
		require.NoError(t, json.Unmarshal(envelope.Payload, &sealed))
		sealed.Ciphertext = "AAAA" + sealed.Ciphertext[4:]
		tampered, err := json.Marshal(&sealed)
		require.NoError(t, err)
		envelope.Payload = tampered

		_, err = receiver.channel.Receive(ctx, envelope)

		assert.True(t, apperrors.Is(err, apperrors.ErrSecurity))
	})

	t.Run("Error_UnknownTypeAfterVerification", func(t *testing.T) {
		sender := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		receiver := newChannelFixture(t, "billing-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		envelope := sendCapture(t, sender, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})

		envelope.Type = channelDomain.MessageType("gossip")
		_, err := receiver.channel.Receive(ctx, envelope)

		// Changing the type breaks the signature before the type check runs.
		assert.True(t, apperrors.Is(err, apperrors.ErrSecurity))
	})

	t.Run("Error_FailedDispatchAllowsRetry", func(t *testing.T) {
		sender := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		receiver := newChannelFixture(t, "billing-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})

		failing := true
		err := receiver.channel.RegisterHandler(
			channelDomain.MessageTypePaymentRequest,
			func(ctx context.Context, envelope *channelDomain.Envelope, plaintext []byte) (json.RawMessage, error) {
				if failing {
					return nil, apperrors.New("downstream unavailable")
				}
				return nil, nil
			},
		)
		require.NoError(t, err)

		envelope := sendCapture(t, sender, "billing-agent", channelDomain.MessageTypePaymentRequest, payload, channelDomain.SendOptions{})

		_, err = receiver.channel.Receive(ctx, envelope)
		require.Error(t, err)

		// A failed dispatch does not poison the replay cache.
		failing = false
		_, err = receiver.channel.Receive(ctx, envelope)
		assert.NoError(t, err)
	})

	t.Run("Error_RegisterHandlerUnknownType", func(t *testing.T) {
		receiver := newChannelFixture(t, "billing-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})

		err := receiver.channel.RegisterHandler(
			channelDomain.MessageType("gossip"),
			func(ctx context.Context, envelope *channelDomain.Envelope, plaintext []byte) (json.RawMessage, error) {
				return nil, nil
			},
		)

		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})
}

func TestChannel_CloseAndStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CloseRemovesSession", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)
		require.NoError(t, err)

		require.NoError(t, fx.channel.Close(ctx, "billing-agent"))

		_, err = fx.channel.Status(ctx, "billing-agent")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("Success_CloseIsIdempotent", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})

		assert.NoError(t, fx.channel.Close(ctx, "billing-agent"))
		assert.NoError(t, fx.channel.Close(ctx, "billing-agent"))
	})

	t.Run("Success_ListActive", func(t *testing.T) {
		fx := newChannelFixture(t, "payment-agent", &fakeTokenIssuer{}, &fakeCertificateProvider{})
		_, err := fx.channel.Open(ctx, "billing-agent", channelDomain.SecurityLevelStandard)
		require.NoError(t, err)
		_, err = fx.channel.Open(ctx, "customer-agent", channelDomain.SecurityLevelStandard)
		require.NoError(t, err)
		require.NoError(t, fx.channel.Close(ctx, "customer-agent"))

		active, err := fx.channel.ListActive(ctx)

		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "billing-agent", active[0].TargetAgentID)
	})
}
