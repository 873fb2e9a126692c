package auth

import (
	"testing"
	"time"

	"github.com/nerith/photofold/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTServiceWithConfig(TokenConfig{
		Secret:           []byte("0123456789abcdef0123456789abcdef"),
		ExpiresIn:        15 * time.Minute,
		RefreshExpiresIn: 720 * time.Hour,
	})
}

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(&config.Config{
		JWTSecret:           "too-short",
		JWTExpiresIn:        "15m",
		JWTRefreshExpiresIn: "720h",
	})
	assert.Error(t, err)
}

func TestNewJWTService_RejectsBadDuration(t *testing.T) {
	_, err := NewJWTService(&config.Config{
		JWTSecret:           "0123456789abcdef0123456789abcdef",
		JWTExpiresIn:        "fifteen minutes",
		JWTRefreshExpiresIn: "720h",
	})
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	token, expiry, err := svc.GenerateAccessToken("admin", 7, "admin")
	require.NoError(t, err)
	assert.True(t, expiry.After(time.Now()))

	claims, err := svc.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "access", claims.Type)
	assert.Equal(t, expiry.Unix(), claims.Exp)

	isAccess, err := svc.IsAccessToken(token)
	require.NoError(t, err)
	assert.True(t, isAccess)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := newTestService().GenerateAccessToken("admin", 1, "admin")
	require.NoError(t, err)

	other := NewJWTServiceWithConfig(TokenConfig{
		Secret:    []byte("ffffffffffffffffffffffffffffffff"),
		ExpiresIn: 15 * time.Minute,
	})
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	svc := NewJWTServiceWithConfig(TokenConfig{
		Secret:    []byte("0123456789abcdef0123456789abcdef"),
		ExpiresIn: -time.Minute,
	})
	token, _, err := svc.GenerateAccessToken("admin", 1, "admin")
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.Error(t, err)
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	svc := newTestService()

	first, expiry, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	second, _, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, expiry.After(time.Now().Add(719*time.Hour)))
}

func TestGenerateTokens(t *testing.T) {
	svc := newTestService()

	pair, err := svc.GenerateTokens("admin", 1, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshTokenExpiry.After(pair.AccessTokenExpiry))
}
