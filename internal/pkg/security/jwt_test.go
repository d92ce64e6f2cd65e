package security

import (
	"Murmur/internal/api/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(config.JWTConfig{Secret: "s3cret", Issuer: "Murmur"})

	token, err := m.GenerateToken(42, "bob")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "bob", claims.Username)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager(config.JWTConfig{Secret: "s3cret", Issuer: "Murmur"})
	other := NewTokenManager(config.JWTConfig{Secret: "other", Issuer: "Murmur"})
	foreign := NewTokenManager(config.JWTConfig{Secret: "s3cret", Issuer: "Elsewhere"})

	forged, err := other.GenerateToken(1, "")
	require.NoError(t, err)
	wrongIssuer, err := foreign.GenerateToken(1, "")
	require.NoError(t, err)
	anonymous, err := m.GenerateToken(0, "")
	require.NoError(t, err)

	for _, token := range []string{"garbage", forged, wrongIssuer, anonymous} {
		_, err := m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}
