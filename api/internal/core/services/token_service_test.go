package services_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emotioncrypt/api/internal/core/services"
)

const testSecret = "super-secret-key-for-testing-purposes-1234567890"

func TestTokenService_GenerateAccessToken(t *testing.T) {
	// 1. Setup
	tokenService := services.NewTokenService(testSecret)
	scopes := []string{"envelopes:read", "audit:read"}

	// 2. Execution
	tokenString, err := tokenService.GenerateAccessToken("api-client", scopes)

	// 3. Verification
	require.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	token, err := jwt.ParseWithClaims(tokenString, &services.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(*services.AccessClaims)
	require.True(t, ok)

	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "api-client", claims.Subject)
	assert.Equal(t, "emotioncrypt-api", claims.Issuer)
	assert.Equal(t, scopes, claims.Scopes)
	assert.NotEmpty(t, claims.ID) // JTI should be present

	// Verify Expiration (approx 1 hour)
	expectedExp := time.Now().Add(1 * time.Hour)
	assert.WithinDuration(t, expectedExp, claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_VerifyAccessToken(t *testing.T) {
	tokenService := services.NewTokenService(testSecret)
	tokenString, err := tokenService.GenerateAccessToken("api-client", []string{"events:read"})
	require.NoError(t, err)

	t.Run("Valid Token", func(t *testing.T) {
		claims, err := tokenService.VerifyAccessToken(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "api-client", claims.Subject)
		assert.True(t, claims.HasScope("events:read"))
		assert.False(t, claims.HasScope("audit:read"))
	})

	t.Run("Invalid: Wrong Secret", func(t *testing.T) {
		otherService := services.NewTokenService("wrong-secret-key")
		otherToken, err := otherService.GenerateAccessToken("api-client", nil)
		require.NoError(t, err)

		claims, err := tokenService.VerifyAccessToken(otherToken)
		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.Contains(t, err.Error(), "signature is invalid")
	})

	t.Run("Invalid: Wrong Token Type", func(t *testing.T) {
		// Hand-craft a token claiming a different type under the right secret.
		claims := services.AccessClaims{
			TokenType: "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "api-client",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		verified, err := tokenService.VerifyAccessToken(signed)
		assert.Error(t, err)
		assert.Nil(t, verified)
		assert.Contains(t, err.Error(), "invalid token type")
	})

	t.Run("Invalid: Expired Token", func(t *testing.T) {
		claims := services.AccessClaims{
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "api-client",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		verified, err := tokenService.VerifyAccessToken(signed)
		assert.Error(t, err)
		assert.Nil(t, verified)
	})

	t.Run("Invalid: Malformed Token", func(t *testing.T) {
		verified, err := tokenService.VerifyAccessToken("not.a.valid.token")
		assert.Error(t, err)
		assert.Nil(t, verified)
	})
}
