package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokenDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/token/domain"
)

func newProtectedRouter(t *testing.T) (*gin.Engine, *tokenDomain.TokenPair, *tokenDomain.RegisterClientOutput) {
	t.Helper()

	tokens := newTestAuthority()
	client := registerTestClient(t, tokens)

	pair, err := tokens.ClientCredentials(
		context.Background(), client.ClientID, client.PlainSecret, tokenDomain.DefaultScope)
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthenticationMiddleware(tokens, testLogger()))
	router.GET("/protected", func(c *gin.Context) {
		identity, ok := IdentityFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"client_id": identity.ClientID.String()})
	})

	return router, pair, client
}

func getWithAuth(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticationMiddleware(t *testing.T) {
	t.Run("Success_ValidBearerToken", func(t *testing.T) {
		router, pair, client := newProtectedRouter(t)

		w := getWithAuth(router, "Bearer "+pair.AccessToken)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), client.ClientID.String())
	})

	t.Run("Success_CaseInsensitiveScheme", func(t *testing.T) {
		router, pair, _ := newProtectedRouter(t)

		w := getWithAuth(router, "bearer "+pair.AccessToken)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_MissingHeader", func(t *testing.T) {
		router, _, _ := newProtectedRouter(t)

		w := getWithAuth(router, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_MalformedHeader", func(t *testing.T) {
		router, pair, _ := newProtectedRouter(t)

		w := getWithAuth(router, "Basic "+pair.AccessToken)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_EmptyToken", func(t *testing.T) {
		router, _, _ := newProtectedRouter(t)

		w := getWithAuth(router, "Bearer ")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_UnknownToken", func(t *testing.T) {
		router, _, _ := newProtectedRouter(t)

		w := getWithAuth(router, "Bearer not-a-real-token")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
