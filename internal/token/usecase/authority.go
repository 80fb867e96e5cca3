// Package usecase implements business logic orchestration for the token authority.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
	tokenService "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/service"
	appvalidation "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/validation"
)

// authority implements the Authority interface over in-memory stores.
type authority struct {
	config        *config.Config
	clientStore   ClientStore
	grantStore    GrantStore
	tokenStore    TokenStore
	secretService tokenService.SecretService
	tokenService  tokenService.TokenService
	logger        *slog.Logger
}

// NewAuthority creates a new token authority with the provided dependencies.
func NewAuthority(
	cfg *config.Config,
	clientStore ClientStore,
	grantStore GrantStore,
	tokenStore TokenStore,
	secretService tokenService.SecretService,
	tokenService tokenService.TokenService,
	logger *slog.Logger,
) Authority {
	return &authority{
		config:        cfg,
		clientStore:   clientStore,
		grantStore:    grantStore,
		tokenStore:    tokenStore,
		secretService: secretService,
		tokenService:  tokenService,
		logger:        logger,
	}
}

// RegisterClient registers a new client with a generated Argon2id-hashed secret.
//
// Security Notes:
//   - The plain secret is only returned once and must be transmitted securely.
//   - Empty redirect URI lists are rejected: the authorization code flow has
//     nowhere to deliver codes without one.
func (a *authority) RegisterClient(
	ctx context.Context,
	input *tokenDomain.RegisterClientInput,
) (*tokenDomain.RegisterClientOutput, error) {
	// Validate input
	err := validation.Errors{
		"name": validation.Validate(input.Name, validation.Required, appvalidation.NotBlank),
		"redirect_uris": validation.Validate(
			input.RedirectURIs,
			validation.Required,
			validation.Each(appvalidation.RedirectURI),
		),
	}.Filter()
	if err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	// Generate a secure random secret
	plainSecret, hashedSecret, err := a.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	// Apply scope and grant type defaults
	scopes := input.Scopes
	if len(scopes) == 0 {
		scopes = []string{tokenDomain.DefaultScope}
	}
	grantTypes := input.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = tokenDomain.DefaultGrantTypes
	}

	// Create the client entity
	client := &tokenDomain.Client{
		ID:           uuid.Must(uuid.NewV7()),
		Secret:       hashedSecret,
		Name:         input.Name,
		RedirectURIs: input.RedirectURIs,
		Scopes:       scopes,
		GrantTypes:   grantTypes,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	// Persist the client
	if err := a.clientStore.Create(ctx, client); err != nil {
		return nil, err
	}

	return &tokenDomain.RegisterClientOutput{
		ClientID:    client.ID,
		PlainSecret: plainSecret,
		Scopes:      scopes,
		GrantTypes:  grantTypes,
	}, nil
}

// Authorize validates the client and redirect URI and issues a single-use
// authorization code. The code is stored hashed together with the PKCE
// challenge the later exchange must satisfy.
func (a *authority) Authorize(
	ctx context.Context,
	input *tokenDomain.AuthorizeInput,
) (*tokenDomain.AuthorizeOutput, error) {
	// A missing challenge is a malformed request, not a credentials problem
	err := validation.Errors{
		"code_challenge": validation.Validate(input.CodeChallenge, validation.Required, appvalidation.NotBlank),
		"redirect_uri":   validation.Validate(input.RedirectURI, validation.Required, appvalidation.RedirectURI),
	}.Filter()
	if err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	client, err := a.activeClient(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	if !client.HasGrantType(tokenDomain.AuthorizationCodeGrant) {
		return nil, tokenDomain.ErrGrantTypeNotAllowed
	}

	// The redirect URI must exactly match one registered at client creation
	if !client.HasRedirectURI(input.RedirectURI) {
		return nil, appvalidation.WrapValidationError(
			errors.New("redirect_uri is not registered for this client"),
		)
	}

	// Issue the single-use code
	plainCode, codeHash, err := a.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	grant := &tokenDomain.Grant{
		CodeHash:      codeHash,
		ClientID:      client.ID,
		RedirectURI:   input.RedirectURI,
		Scope:         input.Scope,
		CodeChallenge: input.CodeChallenge,
		ExpiresAt:     now.Add(a.config.AuthorizationCodeExpiration),
		CreatedAt:     now,
	}
	if err := a.grantStore.Create(ctx, grant); err != nil {
		return nil, err
	}

	return &tokenDomain.AuthorizeOutput{
		Code:             plainCode,
		AuthorizationURL: buildAuthorizationURL(input.RedirectURI, plainCode),
		ExpiresAt:        grant.ExpiresAt,
	}, nil
}

// ExchangeCode consumes an authorization code and mints a linked token pair.
//
// The grant is consumed (deleted) before any credential check, so a code is
// burned by its first exchange attempt: unknown, expired, already-consumed,
// mismatched, and PKCE-failing exchanges all return ErrInvalidCredentials
// without distinguishing the cause.
func (a *authority) ExchangeCode(
	ctx context.Context,
	input *tokenDomain.ExchangeCodeInput,
) (*tokenDomain.TokenPair, error) {
	codeHash := a.tokenService.HashToken(input.Code)

	grant, err := a.grantStore.Consume(ctx, codeHash)
	if err != nil {
		if errors.Is(err, tokenDomain.ErrGrantNotFound) {
			return nil, tokenDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()
	if grant.Expired(now) {
		return nil, tokenDomain.ErrInvalidCredentials
	}

	// The code is bound to the client and redirect URI it was issued for
	if grant.ClientID != input.ClientID || grant.RedirectURI != input.RedirectURI {
		return nil, tokenDomain.ErrInvalidCredentials
	}

	client, err := a.activeClient(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	if !a.secretService.CompareSecret(input.ClientSecret, client.Secret) {
		return nil, tokenDomain.ErrInvalidCredentials
	}

	// PKCE: the verifier must hash to the challenge stored at authorization time
	if !tokenService.VerifyPKCE(input.CodeVerifier, grant.CodeChallenge) {
		return nil, tokenDomain.ErrInvalidCredentials
	}

	return a.mintPair(ctx, client.ID, grant.Scope)
}

// Refresh rotates a refresh token. The presented pair is revoked before the
// new pair is minted, so a captured refresh token can be used at most once.
func (a *authority) Refresh(ctx context.Context, refreshToken string) (*tokenDomain.TokenPair, error) {
	token, err := a.liveToken(ctx, refreshToken, tokenDomain.RefreshToken)
	if err != nil {
		return nil, err
	}

	client, err := a.activeClient(ctx, token.ClientID)
	if err != nil {
		return nil, err
	}

	if !client.HasGrantType(tokenDomain.RefreshTokenGrant) {
		return nil, tokenDomain.ErrGrantTypeNotAllowed
	}

	// Rotate: revoke the old pair, then mint the replacement
	now := time.Now().UTC()
	if err := a.tokenStore.Revoke(ctx, token.ID, now); err != nil {
		return nil, err
	}
	if token.LinkedID != uuid.Nil {
		if err := a.tokenStore.Revoke(ctx, token.LinkedID, now); err != nil {
			return nil, err
		}
	}

	return a.mintPair(ctx, token.ClientID, token.Scope)
}

// ClientCredentials mints a token pair directly from client credentials.
func (a *authority) ClientCredentials(
	ctx context.Context,
	clientID uuid.UUID,
	clientSecret string,
	scope string,
) (*tokenDomain.TokenPair, error) {
	client, err := a.activeClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if !client.HasGrantType(tokenDomain.ClientCredentialsGrant) {
		return nil, tokenDomain.ErrGrantTypeNotAllowed
	}

	if !a.secretService.CompareSecret(clientSecret, client.Secret) {
		return nil, tokenDomain.ErrInvalidCredentials
	}

	if scope == "" {
		scope = tokenDomain.DefaultScope
	}

	return a.mintPair(ctx, client.ID, scope)
}

// Validate resolves an access token to its identity.
func (a *authority) Validate(ctx context.Context, accessToken string) (*tokenDomain.Identity, error) {
	token, err := a.liveToken(ctx, accessToken, tokenDomain.AccessToken)
	if err != nil {
		return nil, err
	}

	return &tokenDomain.Identity{
		ClientID:  token.ClientID,
		Scopes:    tokenDomain.SplitScopes(token.Scope),
		IssuedAt:  token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// Revoke revokes a token and cascades to its linked sibling, so revoking a
// refresh token also invalidates the access token minted with it.
// Revoking an unknown token is a no-op.
func (a *authority) Revoke(ctx context.Context, plainToken string) error {
	tokenHash := a.tokenService.HashToken(plainToken)

	token, err := a.tokenStore.GetByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, tokenDomain.ErrTokenNotFound) {
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	if err := a.tokenStore.Revoke(ctx, token.ID, now); err != nil {
		return err
	}
	if token.LinkedID != uuid.Nil {
		if err := a.tokenStore.Revoke(ctx, token.LinkedID, now); err != nil {
			return err
		}
	}
	return nil
}

// RevokeClient deactivates a client. The record is kept for audit history.
func (a *authority) RevokeClient(ctx context.Context, clientID uuid.UUID) error {
	client, err := a.clientStore.Get(ctx, clientID)
	if err != nil {
		return err
	}
	client.IsActive = false
	return a.clientStore.Update(ctx, client)
}

// SweepExpired removes expired grants and tokens.
func (a *authority) SweepExpired(ctx context.Context) (int, int, error) {
	now := time.Now().UTC()

	grants, err := a.grantStore.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	tokens, err := a.tokenStore.DeleteExpired(ctx, now)
	if err != nil {
		return grants, 0, err
	}

	return grants, tokens, nil
}

// StartSweeper runs the expiry sweep on the configured interval until the
// context is cancelled. Sweep failures are logged, never fatal.
func (a *authority) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(a.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			grants, tokens, err := a.SweepExpired(ctx)
			if err != nil {
				a.logger.Error("expiry sweep failed", slog.Any("error", err))
				continue
			}
			if grants > 0 || tokens > 0 {
				a.logger.Debug("expiry sweep completed",
					slog.Int("grants_removed", grants),
					slog.Int("tokens_removed", tokens))
			}
		}
	}
}

// activeClient fetches a client and checks it can authenticate. Unknown
// clients map to ErrInvalidCredentials to prevent enumeration.
func (a *authority) activeClient(ctx context.Context, clientID uuid.UUID) (*tokenDomain.Client, error) {
	client, err := a.clientStore.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, tokenDomain.ErrClientNotFound) {
			return nil, tokenDomain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !client.IsActive {
		return nil, tokenDomain.ErrClientInactive
	}
	return client, nil
}

// liveToken fetches a token by plain value and checks kind, expiry, and
// revocation. All failures map to ErrInvalidCredentials.
func (a *authority) liveToken(
	ctx context.Context,
	plainToken string,
	kind tokenDomain.TokenKind,
) (*tokenDomain.Token, error) {
	tokenHash := a.tokenService.HashToken(plainToken)

	token, err := a.tokenStore.GetByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, tokenDomain.ErrTokenNotFound) {
			return nil, tokenDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if token.Kind != kind {
		return nil, tokenDomain.ErrInvalidCredentials
	}
	if token.Expired(time.Now().UTC()) {
		return nil, tokenDomain.ErrInvalidCredentials
	}
	if token.Revoked() {
		return nil, tokenDomain.ErrInvalidCredentials
	}
	return token, nil
}

// mintPair mints a linked access/refresh token pair for a client.
func (a *authority) mintPair(
	ctx context.Context,
	clientID uuid.UUID,
	scope string,
) (*tokenDomain.TokenPair, error) {
	plainAccess, accessHash, err := a.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}
	plainRefresh, refreshHash, err := a.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	access := &tokenDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: accessHash,
		ClientID:  clientID,
		Scope:     scope,
		Kind:      tokenDomain.AccessToken,
		ExpiresAt: now.Add(a.config.AccessTokenExpiration),
		CreatedAt: now,
	}
	refresh := &tokenDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: refreshHash,
		ClientID:  clientID,
		Scope:     scope,
		Kind:      tokenDomain.RefreshToken,
		ExpiresAt: now.Add(a.config.RefreshTokenExpiration),
		CreatedAt: now,
	}
	access.LinkedID = refresh.ID
	refresh.LinkedID = access.ID

	if err := a.tokenStore.Create(ctx, access); err != nil {
		return nil, err
	}
	if err := a.tokenStore.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &tokenDomain.TokenPair{
		AccessToken:  plainAccess,
		RefreshToken: plainRefresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(a.config.AccessTokenExpiration.Seconds()),
		Scope:        scope,
	}, nil
}

// buildAuthorizationURL appends the issued code to the redirect URI.
func buildAuthorizationURL(redirectURI, code string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// Redirect URI was validated upstream; fall back to naive concatenation
		return fmt.Sprintf("%s?code=%s", redirectURI, url.QueryEscape(code))
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String()
}
