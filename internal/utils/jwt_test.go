package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessToken(t *testing.T) {
	t.Run("carries subject, role and expiry", func(t *testing.T) {
		tok, err := NewAccessToken("secret", 42, "CLIENT", 15)
		require.NoError(t, err)
		require.NotEmpty(t, tok.Token)
		assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

		parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) {
			return []byte("secret"), nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, float64(42), claims["sub"])
		assert.Equal(t, "CLIENT", claims["role"])
	})

	t.Run("rejects verification with the wrong secret", func(t *testing.T) {
		tok, err := NewAccessToken("secret", 42, "CLIENT", 15)
		require.NoError(t, err)

		_, err = jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) {
			return []byte("other"), nil
		})
		assert.Error(t, err)
	})
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(30)
	require.NoError(t, err)
	b, err := NewRefreshToken(30)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw, "tokens must be unique")
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), a.Exp, 5*time.Second)
}

func TestHashRefreshRaw(t *testing.T) {
	h := HashRefreshRaw("some-raw-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw("some-raw-token"), "hashing must be deterministic")
	assert.NotEqual(t, h, HashRefreshRaw("another-token"))
}
