package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT(t *testing.T) {
	secret := "test-secret-key-12345"

	token, err := GenerateToken("planner@example.com", "planner", secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "planner@example.com", claims["sub"])
	assert.Equal(t, "planner", claims["role"])

	_, err = ValidateToken(token, "wrong-key")
	assert.Error(t, err, "validation should fail with wrong key")
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateToken("cron", "service", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(signed, "secret")
	assert.Error(t, err)
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, err := GenerateToken("x", "planner", "", time.Hour)
	assert.EqualError(t, err, "jwt secret is empty")
}
