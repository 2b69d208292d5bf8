package repository

import (
	"context"
	"testing"
	"time"

	"rciconnect/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisSessionRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		session := &models.Session{
			Token:     "tok-123",
			UserID:    7,
			Email:     "client@example.com",
			Role:      models.RoleClient,
			ExpiresAt: time.Now().Add(time.Hour),
		}

		err := repo.SetSession(ctx, session)
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, "tok-123")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.UserID, got.UserID)
		assert.Equal(t, session.Email, got.Email)
		assert.Equal(t, session.Role, got.Role)
	})

	t.Run("GetNonExistentSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SessionExpiry", func(t *testing.T) {
		session := &models.Session{
			Token:     "tok-short",
			UserID:    8,
			ExpiresAt: time.Now().Add(time.Second),
		}
		require.NoError(t, repo.SetSession(ctx, session))

		s.FastForward(2 * time.Second)

		got, err := repo.GetSession(ctx, "tok-short")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		session := &models.Session{Token: "tok-456", UserID: 9, ExpiresAt: time.Now().Add(time.Hour)}
		repo.SetSession(ctx, session)

		err := repo.ClearSession(ctx, "tok-456")
		require.NoError(t, err)

		got, _ := repo.GetSession(ctx, "tok-456")
		assert.Nil(t, got)
	})

	t.Run("ResetTokens", func(t *testing.T) {
		err := repo.SetResetToken(ctx, "rt-1", "user@example.com", time.Minute)
		require.NoError(t, err)

		email, err := repo.GetResetToken(ctx, "rt-1")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", email)

		require.NoError(t, repo.ClearResetToken(ctx, "rt-1"))
		email, err = repo.GetResetToken(ctx, "rt-1")
		require.NoError(t, err)
		assert.Empty(t, email)
	})

	t.Run("ResetTokenExpiry", func(t *testing.T) {
		require.NoError(t, repo.SetResetToken(ctx, "rt-short", "user@example.com", time.Second))

		s.FastForward(2 * time.Second)

		email, err := repo.GetResetToken(ctx, "rt-short")
		require.NoError(t, err)
		assert.Empty(t, email)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "login:10.0.0.1"
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisSessionRepository(nil, time.Hour)
		_, err := repo.GetSession(ctx, "tok")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)
	})

	t.Run("Close", func(t *testing.T) {
		err := Close(client)
		assert.NoError(t, err)
	})
}
