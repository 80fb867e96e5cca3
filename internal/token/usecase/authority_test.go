package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
	tokenRepository "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/repository"
	tokenService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/service"
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

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenExpiration:       time.Hour,
		RefreshTokenExpiration:      24 * time.Hour,
		AuthorizationCodeExpiration: 10 * time.Minute,
		SweepInterval:               10 * time.Millisecond,
	}
}

func newTestAuthority(cfg *config.Config) Authority {
	if cfg == nil {
		cfg = testConfig()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthority(
		cfg,
		tokenRepository.NewClientStore(),
		tokenRepository.NewGrantStore(),
		tokenRepository.NewTokenStore(),
		&fakeSecretService{},
		tokenService.NewTokenService(),
		logger,
	)
}

// pkcePair returns a verifier and its S256 challenge.
func pkcePair(verifier string) (string, string) {
	h := sha256.Sum256([]byte(verifier))
	return verifier, base64.RawURLEncoding.EncodeToString(h[:])
}

func registerTestClient(t *testing.T, authority Authority) *tokenDomain.RegisterClientOutput {
	t.Helper()
	out, err := authority.RegisterClient(context.Background(), &tokenDomain.RegisterClientInput{
		Name:         "payment-agent",
		RedirectURIs: []string{"https://agent.example.com/callback"},
	})
	require.NoError(t, err)
	return out
}

func TestAuthority_RegisterClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RegisterNewClient", func(t *testing.T) {
		authority := newTestAuthority(nil)

		out, err := authority.RegisterClient(ctx, &tokenDomain.RegisterClientInput{
			Name:         "payment-agent",
			RedirectURIs: []string{"https://agent.example.com/callback"},
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, out.ClientID)
		assert.Equal(t, "plain-secret", out.PlainSecret)
		assert.Equal(t, []string{tokenDomain.DefaultScope}, out.Scopes)
		assert.Equal(t, tokenDomain.DefaultGrantTypes, out.GrantTypes)
	})

	t.Run("Error_EmptyRedirectURIs", func(t *testing.T) {
		authority := newTestAuthority(nil)

		_, err := authority.RegisterClient(ctx, &tokenDomain.RegisterClientInput{
			Name: "payment-agent",
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})

	t.Run("Error_BlankName", func(t *testing.T) {
		authority := newTestAuthority(nil)

		_, err := authority.RegisterClient(ctx, &tokenDomain.RegisterClientInput{
			Name:         "   ",
			RedirectURIs: []string{"https://agent.example.com/callback"},
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})

	t.Run("Error_MalformedRedirectURI", func(t *testing.T) {
		authority := newTestAuthority(nil)

		_, err := authority.RegisterClient(ctx, &tokenDomain.RegisterClientInput{
			Name:         "payment-agent",
			RedirectURIs: []string{"not-a-url"},
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})
}

func TestAuthority_AuthorizeAndExchange(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RoundTrip", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)
		verifier, challenge := pkcePair("round-trip-verifier")

		authOut, err := authority.Authorize(ctx, &tokenDomain.AuthorizeInput{
			ClientID:      client.ClientID,
			RedirectURI:   "https://agent.example.com/callback",
			Scope:         "a2a:message",
			CodeChallenge: challenge,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, authOut.Code)
		assert.Contains(t, authOut.AuthorizationURL, "code=")

		pair, err := authority.ExchangeCode(ctx, &tokenDomain.ExchangeCodeInput{
			Code:         authOut.Code,
			ClientID:     client.ClientID,
			ClientSecret: client.PlainSecret,
			RedirectURI:  "https://agent.example.com/callback",
			CodeVerifier: verifier,
		})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		// The minted token validates back to the registering client
		identity, err := authority.Validate(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, client.ClientID, identity.ClientID)
		assert.Equal(t, []string{"a2a:message"}, identity.Scopes)
	})

	t.Run("Error_CodeSingleUse", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)
		verifier, challenge := pkcePair("single-use-verifier")

		authOut, err := authority.Authorize(ctx, &tokenDomain.AuthorizeInput{
			ClientID:      client.ClientID,
			RedirectURI:   "https://agent.example.com/callback",
			Scope:         "a2a:message",
			CodeChallenge: challenge,
		})
		require.NoError(t, err)

		exchange := &tokenDomain.ExchangeCodeInput{
			Code:         authOut.Code,
			ClientID:     client.ClientID,
			ClientSecret: client.PlainSecret,
			RedirectURI:  "https://agent.example.com/callback",
			CodeVerifier: verifier,
		}

		_, err = authority.ExchangeCode(ctx, exchange)
		require.NoError(t, err)

		_, err = authority.ExchangeCode(ctx, exchange)
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})

	t.Run("Error_WrongPKCEVerifier", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)
		_, challenge := pkcePair("correct-verifier")

		authOut, err := authority.Authorize(ctx, &tokenDomain.AuthorizeInput{
			ClientID:      client.ClientID,
			RedirectURI:   "https://agent.example.com/callback",
			Scope:         "a2a:message",
			CodeChallenge: challenge,
		})
		require.NoError(t, err)

		_, err = authority.ExchangeCode(ctx, &tokenDomain.ExchangeCodeInput{
			Code:         authOut.Code,
			ClientID:     client.ClientID,
			ClientSecret: client.PlainSecret,
			RedirectURI:  "https://agent.example.com/callback",
			CodeVerifier: "wrong-verifier",
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})

	t.Run("Error_WrongClientSecret", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)
		verifier, challenge := pkcePair("secret-check-verifier")

		authOut, err := authority.Authorize(ctx, &tokenDomain.AuthorizeInput{
			ClientID:      client.ClientID,
			RedirectURI:   "https://agent.example.com/callback",
			Scope:         "a2a:message",
			CodeChallenge: challenge,
		})
		require.NoError(t, err)

		_, err = authority.ExchangeCode(ctx, &tokenDomain.ExchangeCodeInput{
			Code:         authOut.Code,
			ClientID:     client.ClientID,
			ClientSecret: "wrong-secret",
			RedirectURI:  "https://agent.example.com/callback",
			CodeVerifier: verifier,
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})

	t.Run("Error_ExpiredCode", func(t *testing.T) {
		cfg := testConfig()
		cfg.AuthorizationCodeExpiration = -time.Second
		authority := newTestAuthority(cfg)
		client := registerTestClient(t, authority)
		verifier, challenge := pkcePair("expired-code-verifier")

		authOut, err := authority.Authorize(ctx, &tokenDomain.AuthorizeInput{
			ClientID:      client.ClientID,
			RedirectURI:   "https://agent.example.com/callback",
			Scope:         "a2a:message",
			CodeChallenge: challenge,
		})
		require.NoError(t, err)

		_, err = authority.ExchangeCode(ctx, &tokenDomain.ExchangeCodeInput{
			Code:         authOut.Code,
			ClientID:     client.ClientID,
			ClientSecret: client.PlainSecret,
			RedirectURI:  "https://agent.example.com/callback",
			CodeVerifier: verifier,
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})

	t.Run("Error_UnregisteredRedirectURI", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)
		_, challenge := pkcePair("redirect-check-verifier")

		_, err := authority.Authorize(ctx, &tokenDomain.AuthorizeInput{
			ClientID:      client.ClientID,
			RedirectURI:   "https://evil.example.com/callback",
			Scope:         "a2a:message",
			CodeChallenge: challenge,
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})
}

func TestAuthority_ClientCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_MintPair", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)

		pair, err := authority.ClientCredentials(ctx, client.ClientID, client.PlainSecret, "")
		require.NoError(t, err)
		assert.Equal(t, tokenDomain.DefaultScope, pair.Scope)

		identity, err := authority.Validate(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, client.ClientID, identity.ClientID)
	})

	t.Run("Error_WrongSecret", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)

		_, err := authority.ClientCredentials(ctx, client.ClientID, "wrong-secret", "")
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})

	t.Run("Error_UnknownClient", func(t *testing.T) {
		authority := newTestAuthority(nil)

		_, err := authority.ClientCredentials(ctx, uuid.Must(uuid.NewV7()), "any-secret", "")
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})

	t.Run("Error_RevokedClient", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)

		require.NoError(t, authority.RevokeClient(ctx, client.ClientID))

		_, err := authority.ClientCredentials(ctx, client.ClientID, client.PlainSecret, "")
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})
}

func TestAuthority_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RotatesPair", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)

		pair, err := authority.ClientCredentials(ctx, client.ClientID, client.PlainSecret, "")
		require.NoError(t, err)

		rotated, err := authority.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

		// The old refresh token is consumed by the rotation
		_, err = authority.Refresh(ctx, pair.RefreshToken)
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))

		// The old access token is revoked alongside it
		_, err = authority.Validate(ctx, pair.AccessToken)
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))

		// The rotated pair works
		_, err = authority.Validate(ctx, rotated.AccessToken)
		assert.NoError(t, err)
	})

	t.Run("Error_AccessTokenRejected", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)

		pair, err := authority.ClientCredentials(ctx, client.ClientID, client.PlainSecret, "")
		require.NoError(t, err)

		_, err = authority.Refresh(ctx, pair.AccessToken)
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})
}

func TestAuthority_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("Error_ExpiredToken", func(t *testing.T) {
		cfg := testConfig()
		cfg.AccessTokenExpiration = -time.Second
		authority := newTestAuthority(cfg)
		client := registerTestClient(t, authority)

		pair, err := authority.ClientCredentials(ctx, client.ClientID, client.PlainSecret, "")
		require.NoError(t, err)

		_, err = authority.Validate(ctx, pair.AccessToken)
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})

	t.Run("Error_UnknownToken", func(t *testing.T) {
		authority := newTestAuthority(nil)

		_, err := authority.Validate(ctx, "never-issued")
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})
}

func TestAuthority_Revoke(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CascadesAcrossPair", func(t *testing.T) {
		authority := newTestAuthority(nil)
		client := registerTestClient(t, authority)

		pair, err := authority.ClientCredentials(ctx, client.ClientID, client.PlainSecret, "")
		require.NoError(t, err)

		require.NoError(t, authority.Revoke(ctx, pair.RefreshToken))

		_, err = authority.Validate(ctx, pair.AccessToken)
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))

		_, err = authority.Refresh(ctx, pair.RefreshToken)
		assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))
	})

	t.Run("Success_IdempotentOnUnknownToken", func(t *testing.T) {
		authority := newTestAuthority(nil)

		assert.NoError(t, authority.Revoke(ctx, "never-issued"))
	})
}

func TestAuthority_SweepExpired(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.AccessTokenExpiration = -time.Second
	cfg.RefreshTokenExpiration = -time.Second
	cfg.AuthorizationCodeExpiration = -time.Second
	authority := newTestAuthority(cfg)
	client := registerTestClient(t, authority)

	_, challenge := pkcePair("sweep-verifier")
	_, err := authority.Authorize(ctx, &tokenDomain.AuthorizeInput{
		ClientID:      client.ClientID,
		RedirectURI:   "https://agent.example.com/callback",
		Scope:         "a2a:message",
		CodeChallenge: challenge,
	})
	require.NoError(t, err)

	_, err = authority.ClientCredentials(ctx, client.ClientID, client.PlainSecret, "")
	require.NoError(t, err)

	grants, tokens, err := authority.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, grants)
	assert.Equal(t, 2, tokens)
}

func TestAuthority_StartSweeper(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	authority := newTestAuthority(nil)

	done := make(chan struct{})
	go func() {
		authority.StartSweeper(ctx)
		close(done)
	}()

	// Let at least one tick fire, then stop the loop
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
