package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"rciconnect/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) GetSession(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockSessionRepo) SetSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepo) ClearSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockSessionRepo) SetResetToken(ctx context.Context, token, email string, ttl time.Duration) error {
	args := m.Called(ctx, token, email, ttl)
	return args.Error(0)
}

func (m *mockSessionRepo) GetResetToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockSessionRepo) ClearResetToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockSessionRepo) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverSessionRepository(t *testing.T) {
	primary := new(mockSessionRepo)
	fallback := new(mockSessionRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		session := &models.Session{Token: "t1"}
		primary.On("GetSession", ctx, "t1").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "t1")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		session := &models.Session{Token: "t2"}
		primary.On("GetSession", ctx, "t2").Return(nil, errors.New("fail")).Once()
		fallback.On("GetSession", ctx, "t2").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "t2")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		session := &models.Session{Token: "t3"}
		primary.On("GetSession", ctx, "t3").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "t3")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("GetSession", ctx, "t33").Return(nil, errors.New("still fail")).Once()
		fallback.On("GetSession", ctx, "t33").Return(nil, nil).Once()

		_, err := repo.GetSession(ctx, "t33")
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetSessionSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		session := &models.Session{Token: "t4"}
		primary.On("SetSession", ctx, session).Return(nil).Once()

		err := repo.SetSession(ctx, session)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("SetSessionFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		session := &models.Session{Token: "t5"}
		primary.On("SetSession", ctx, session).Return(errors.New("fail")).Once()
		fallback.On("SetSession", ctx, session).Return(nil).Once()

		err := repo.SetSession(ctx, session)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("ClearSessionAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		fallback.On("ClearSession", ctx, "t6").Return(nil).Once()

		err := repo.ClearSession(ctx, "t6")
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})

	t.Run("ResetTokenFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("SetResetToken", ctx, "rt", "a@example.com", time.Minute).Return(errors.New("fail")).Once()
		fallback.On("SetResetToken", ctx, "rt", "a@example.com", time.Minute).Return(nil).Once()

		err := repo.SetResetToken(ctx, "rt", "a@example.com", time.Minute)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("GetResetTokenPrimary", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("GetResetToken", ctx, "rt2").Return("b@example.com", nil).Once()

		email, err := repo.GetResetToken(ctx, "rt2")
		assert.NoError(t, err)
		assert.Equal(t, "b@example.com", email)
		primary.AssertExpectations(t)
	})

	t.Run("ClearResetTokenPrimary", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("ClearResetToken", ctx, "rt3").Return(nil).Once()

		err := repo.ClearResetToken(ctx, "rt3")
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("CheckRateLimit", ctx, "k1", 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "k1", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "k1", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		fallback.On("CheckRateLimit", ctx, "k2", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "k2", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		fallback.AssertExpectations(t)
	})
}
