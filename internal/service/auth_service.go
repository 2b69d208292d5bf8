package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rciconnect/internal/database"
	"rciconnect/internal/domain"
	"rciconnect/internal/models"
	"rciconnect/internal/token"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("account is deactivated")
	ErrRateLimited        = errors.New("too many attempts, try again later")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// AuthService handles login, token refresh, logout and password recovery.
// Refresh tokens double as session keys so a logout revokes the pair.
type AuthService struct {
	repo     domain.Repository
	sessions domain.SessionRepository
	tokens   *token.Manager
	logger   *zerolog.Logger
}

func NewAuthService(repo domain.Repository, sessions domain.SessionRepository, tokens *token.Manager, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *domain.TokenPair, error) {
	allowed, err := s.sessions.CheckRateLimit(ctx, "login:"+email, models.RateLimitLoginAttempts, models.RateLimitLoginWindow)
	if err != nil {
		s.logger.Error().Err(err).Msg("login rate limit check failed")
	} else if !allowed {
		return nil, nil, ErrRateLimited
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrInactiveUser
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.storeSession(ctx, user, pair.RefreshToken); err != nil {
		return nil, nil, err
	}

	if err := s.repo.UpdateUserActivity(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record login activity")
	}

	return user, pair, nil
}

// Refresh rotates the token pair. The presented refresh token must still be
// present in the session store, so a logged-out token cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.GetSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.ClearSession(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear rotated session")
	}
	if err := s.storeSession(ctx, user, pair.RefreshToken); err != nil {
		return nil, err
	}

	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.ClearSession(ctx, refreshToken)
}

// RequestPasswordReset issues a reset token when the email belongs to a
// known account. The response is identical either way so the endpoint does
// not confirm which emails exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	allowed, err := s.sessions.CheckRateLimit(ctx, "reset:"+email, models.RateLimitResetAttempts, models.RateLimitResetWindow)
	if err != nil {
		s.logger.Error().Err(err).Msg("reset rate limit check failed")
	} else if !allowed {
		return ErrRateLimited
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		s.logger.Info().Str("email", email).Msg("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	resetToken := uuid.NewString()
	if err := s.sessions.SetResetToken(ctx, resetToken, user.Email, models.ResetTokenTTL); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	// Delivery is out of band; the token never appears in the response.
	s.logger.Info().Int64("user_id", user.ID).Msg("password reset token issued")
	return nil
}

// ConfirmPasswordReset accepts either a recovery access token or a stored
// reset token carried in the refresh position, verifies it, and writes the
// new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, newPassword, accessToken, refreshToken string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", database.ErrInvalidInput)
	}

	var user *models.User

	if claims, err := s.tokens.ParseAccess(accessToken); err == nil {
		user, err = s.repo.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return ErrInvalidResetToken
		}
	} else if refreshToken != "" {
		email, err := s.sessions.GetResetToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if email == "" {
			return ErrInvalidResetToken
		}
		user, err = s.repo.GetUserByEmail(ctx, email)
		if err != nil {
			return ErrInvalidResetToken
		}
		if err := s.sessions.ClearResetToken(ctx, refreshToken); err != nil {
			s.logger.Warn().Err(err).Msg("failed to clear used reset token")
		}
	} else {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.UpdateUserPassword(ctx, user.ID, string(hash))
}

func (s *AuthService) storeSession(ctx context.Context, user *models.User, refreshToken string) error {
	session := &models.Session{
		Token:     refreshToken,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(models.DefaultSessionTTL),
	}
	return s.sessions.SetSession(ctx, session)
}
