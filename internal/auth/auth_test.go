package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	userID := uuid.New()

	token, err := GenerateToken(userID, time.Minute, secret)
	require.NoError(t, err)

	verified, err := NewJWTVerifier(secret).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, verified)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), time.Minute, []byte("one"))
	require.NoError(t, err)

	_, err = NewJWTVerifier([]byte("another")).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(uuid.New(), -time.Minute, secret)
	require.NoError(t, err)

	_, err = NewJWTVerifier(secret).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := NewJWTVerifier([]byte("test-secret")).Verify("не-токен")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
