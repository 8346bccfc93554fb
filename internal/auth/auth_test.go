package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) *Keys {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys, err := NewKeys(privateKey, &privateKey.PublicKey)
	require.NoError(t, err)
	return keys
}

func TestTokenRoundTrip(t *testing.T) {
	keys := testKeys(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "palengke-backend",
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Roles: []string{RoleBuyer},
	}

	token, err := keys.GenerateToken(claims)
	require.NoError(t, err)

	parsed, err := keys.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", parsed.Subject)
	assert.True(t, parsed.HasRole(RoleBuyer))
	assert.False(t, parsed.HasRole(RoleVendor))
}

func TestValidateExpiredToken(t *testing.T) {
	keys := testKeys(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Roles: []string{RoleBuyer},
	}

	token, err := keys.GenerateToken(claims)
	require.NoError(t, err)

	_, err = keys.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTamperedToken(t *testing.T) {
	keys := testKeys(t)
	other := testKeys(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	token, err := other.GenerateToken(claims)
	require.NoError(t, err)

	// signed with a different key, must not verify
	_, err = keys.ValidateToken(token)
	assert.Error(t, err)
}

func TestGenerateWithoutPrivateKey(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keys, err := NewKeys(nil, &privateKey.PublicKey)
	require.NoError(t, err)

	_, err = keys.GenerateToken(Claims{})
	assert.Error(t, err)
}
