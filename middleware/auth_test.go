package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"palengke-backend/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMid(t *testing.T) (*Mid, *auth.Keys) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys, err := auth.NewKeys(privateKey, &privateKey.PublicKey)
	require.NoError(t, err)
	m, err := NewMid(keys)
	require.NoError(t, err)
	return m, keys
}

func signToken(t *testing.T, keys *auth.Keys, roles ...string) string {
	t.Helper()
	token, err := keys.GenerateToken(auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: roles,
	})
	require.NoError(t, err)
	return token
}

func protectedRouter(m *Mid, requiredRole string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", m.Authentication(), m.Authorize(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}, requiredRole))
	return r
}

func TestAuthenticationMissingHeader(t *testing.T) {
	m, _ := newTestMid(t)
	r := protectedRouter(m, auth.RoleBuyer)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticationBadToken(t *testing.T) {
	m, _ := newTestMid(t)
	r := protectedRouter(m, auth.RoleBuyer)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorizeWrongRole(t *testing.T) {
	m, keys := newTestMid(t)
	r := protectedRouter(m, auth.RoleVendor)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, keys, auth.RoleBuyer))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthorizeMatchingRole(t *testing.T) {
	m, keys := newTestMid(t)
	r := protectedRouter(m, auth.RoleBuyer)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, keys, auth.RoleBuyer))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
