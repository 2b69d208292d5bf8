package service

import (
	"context"
	"errors"
	"strings"

	"rciconnect/internal/database"
	"rciconnect/internal/domain"
	"rciconnect/internal/events"
	"rciconnect/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// NewsletterService manages the mailing list. Subscribe distinguishes a new
// signup from a repeat one so the caller can word the response accordingly.
type NewsletterService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	validate *validator.Validate
	logger   *zerolog.Logger
}

func NewNewsletterService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *NewsletterService {
	return &NewsletterService{
		repo:     repo,
		eventBus: eventBus,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *NewsletterService) Subscribe(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", database.ErrInvalidInput
	}

	existing, err := s.repo.GetSubscriber(ctx, email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return "", err
	}
	if existing != nil && existing.Status == models.SubscriberStatusSubscribed {
		return models.SubscribeResultAlreadySubscribed, nil
	}

	if err := s.repo.UpsertSubscriber(ctx, email, models.SubscriberStatusSubscribed); err != nil {
		return "", err
	}

	if s.eventBus != nil {
		payload := map[string]string{"email": email}
		if err := s.eventBus.PublishJSON(events.EventNewsletterSubscribed, payload); err != nil {
			s.logger.Error().Err(err).Msg("publish newsletter event error")
		}
	}

	return models.SubscribeResultSubscribed, nil
}

func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return database.ErrInvalidInput
	}

	if _, err := s.repo.GetSubscriber(ctx, email); err != nil {
		return err
	}
	return s.repo.UpsertSubscriber(ctx, email, models.SubscriberStatusUnsubscribed)
}
