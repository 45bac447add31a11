package auth

import (
	"context"
	"testing"
	"time"

	"github.com/chakravyuh/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-test-secret-test-secret",
		Expiration: expiration,
		Issuer:     "chakravyuh-backend",
	})
}

func TestJWTService(t *testing.T) {
	svc := newTestService(time.Hour)
	userID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		token, expiresAt, err := svc.Generate(userID, "admin@example.com", "admin")
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

		claims, err := svc.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "admin@example.com", claims.Email)
		assert.Equal(t, "admin", claims.Role)
		assert.NotEmpty(t, claims.ID, "token must carry a JTI for revocation")

		got, err := claims.GetUserUUID()
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		expired := newTestService(-time.Minute)
		token, _, err := expired.Generate(userID, "admin@example.com", "admin")
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:     "another-secret-another-secret-xx",
			Expiration: time.Hour,
			Issuer:     "chakravyuh-backend",
		})
		token, _, err := other.Generate(userID, "admin@example.com", "admin")
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	t.Run("expired entries age out", func(t *testing.T) {
		require.NoError(t, bl.Revoke(ctx, "jti-2", -time.Second))
		revoked, err := bl.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
