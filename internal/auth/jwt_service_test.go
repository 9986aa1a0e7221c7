package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestNewJWTServiceDefaultTTL(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)
	require.Equal(t, DefaultAccessTokenTTL, svc.TTL())
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "investorportal",
		AccessTokenTTL: time.Hour,
		Clock:          now,
	})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(AccessTokenInput{
		UserID:   42,
		Username: "testuser",
		Audience: []string{"portal"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "testuser", claims.Username)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "investorportal", claims.Issuer)
	require.NotEmpty(t, claims.ID)
	require.Equal(t, jwt.ClaimStrings{"portal"}, claims.Audience)
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))
}

func TestGenerateAccessTokenRequiresUser(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)

	_, err = svc.GenerateAccessToken(AccessTokenInput{})
	require.Error(t, err)
}

func TestTokensCarryDistinctIDs(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)

	first, err := svc.GenerateAccessToken(AccessTokenInput{UserID: 1})
	require.NoError(t, err)
	second, err := svc.GenerateAccessToken(AccessTokenInput{UserID: 1})
	require.NoError(t, err)

	a, err := svc.ValidateAccessToken(first)
	require.NoError(t, err)
	b, err := svc.ValidateAccessToken(second)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}

func TestValidateAccessTokenFailures(t *testing.T) {
	current := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Issuer: "investorportal", AccessTokenTTL: time.Minute, Clock: clock})
	require.NoError(t, err)
	token, err := issuer.GenerateAccessToken(AccessTokenInput{UserID: 7})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "other-secret", Issuer: "investorportal", Clock: clock})
		require.NoError(t, err)
		_, err = other.ValidateAccessToken(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Issuer: "someone-else", Clock: clock})
		require.NoError(t, err)
		_, err = other.ValidateAccessToken(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later, err := NewJWTService(JWTConfig{
			Secret: "issuer-secret",
			Issuer: "investorportal",
			Clock:  func() time.Time { return current.Add(2 * time.Minute) },
		})
		require.NoError(t, err)
		_, err = later.ValidateAccessToken(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := issuer.ValidateAccessToken("")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ValidateAccessToken("not.a.jwt")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
