package utils_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examstack/examhall/internal/utils"
)

func TestNewAccessToken_RoundTrip(t *testing.T) {
	const secret = "test-secret"
	at, err := utils.NewAccessToken(secret, 42, "TEACHER", 15)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			t.Fatalf("unexpected signing method %v", tk.Method)
		}
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "TEACHER", claims["role"])
}

func TestNewAccessToken_WrongSecretRejected(t *testing.T) {
	at, err := utils.NewAccessToken("right", 1, "ADMIN", 5)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("wrong"), nil
	})
	assert.Error(t, err)
}

func TestNewRefreshToken_RandomAndHashable(t *testing.T) {
	a, err := utils.NewRefreshToken(7)
	require.NoError(t, err)
	b, err := utils.NewRefreshToken(7)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), a.Exp, 5*time.Second)

	// Hashing is deterministic and never echoes the raw token.
	assert.Equal(t, utils.HashRefreshRaw(a.Raw), utils.HashRefreshRaw(a.Raw))
	assert.NotEqual(t, a.Raw, utils.HashRefreshRaw(a.Raw))
	assert.Len(t, utils.HashRefreshRaw(a.Raw), 64)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := utils.HashPassword("s3cret", 4)
	require.NoError(t, err)

	assert.True(t, utils.VerifyPassword(hash, "s3cret"))
	assert.False(t, utils.VerifyPassword(hash, "other"))
}
