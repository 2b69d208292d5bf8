package service

import (
	"context"
	"time"

	"rciconnect/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetWeeklySchedule(ctx context.Context, consultantID int64) (*models.WeeklySchedule, error) {
	args := m.Called(ctx, consultantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeeklySchedule), args.Error(1)
}

func (m *mockRepository) CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	return m.Called(ctx, slot).Error(0)
}

func (m *mockRepository) DeleteSlot(ctx context.Context, consultantID, slotID int64) error {
	return m.Called(ctx, consultantID, slotID).Error(0)
}

func (m *mockRepository) SetScheduleTimezone(ctx context.Context, consultantID int64, timezone string) error {
	return m.Called(ctx, consultantID, timezone).Error(0)
}

func (m *mockRepository) GetScheduleTimezone(ctx context.Context, consultantID int64) (string, error) {
	args := m.Called(ctx, consultantID)
	return args.String(0), args.Error(1)
}

func (m *mockRepository) ListBlockedTimes(ctx context.Context, consultantID int64) ([]models.BlockedTime, error) {
	args := m.Called(ctx, consultantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlockedTime), args.Error(1)
}

func (m *mockRepository) CreateBlockedTime(ctx context.Context, blocked *models.BlockedTime) error {
	return m.Called(ctx, blocked).Error(0)
}

func (m *mockRepository) DeleteBlockedTime(ctx context.Context, consultantID, blockedID int64) error {
	return m.Called(ctx, consultantID, blockedID).Error(0)
}

func (m *mockRepository) ListTimezones(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRepository) CreateApplication(ctx context.Context, app *models.ConsultantApplication) error {
	return m.Called(ctx, app).Error(0)
}

func (m *mockRepository) GetApplication(ctx context.Context, id string) (*models.ConsultantApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConsultantApplication), args.Error(1)
}

func (m *mockRepository) GetApplicationByEmailAndID(ctx context.Context, email, id string) (*models.ConsultantApplication, error) {
	args := m.Called(ctx, email, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConsultantApplication), args.Error(1)
}

func (m *mockRepository) ListApplications(ctx context.Context, status string) ([]*models.ConsultantApplication, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ConsultantApplication), args.Error(1)
}

func (m *mockRepository) UpdateApplicationStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockRepository) SetSectionsRequested(ctx context.Context, id string, sections []int) error {
	return m.Called(ctx, id, sections).Error(0)
}

func (m *mockRepository) CompleteApplicationSections(ctx context.Context, app *models.ConsultantApplication) error {
	return m.Called(ctx, app).Error(0)
}

func (m *mockRepository) UpdateAdminNotes(ctx context.Context, id, notes string) error {
	return m.Called(ctx, id, notes).Error(0)
}

func (m *mockRepository) AddApplicationDocument(ctx context.Context, doc *models.ApplicationDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockRepository) DeleteApplicationDocument(ctx context.Context, applicationID string, docID int64) error {
	return m.Called(ctx, applicationID, docID).Error(0)
}

func (m *mockRepository) ListApplicationDocuments(ctx context.Context, applicationID string) ([]models.ApplicationDocument, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ApplicationDocument), args.Error(1)
}

func (m *mockRepository) GetApplicationDocumentByStoredName(ctx context.Context, storedName string) (*models.ApplicationDocument, error) {
	args := m.Called(ctx, storedName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApplicationDocument), args.Error(1)
}

func (m *mockRepository) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *mockRepository) UpdateUserActivity(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) GetSubscriber(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NewsletterSubscriber), args.Error(1)
}

func (m *mockRepository) UpsertSubscriber(ctx context.Context, email, status string) error {
	return m.Called(ctx, email, status).Error(0)
}

func (m *mockRepository) ListTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Testimonial), args.Error(1)
}

func (m *mockRepository) ListFAQs(ctx context.Context, homeOnly bool) ([]models.FAQ, error) {
	args := m.Called(ctx, homeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FAQ), args.Error(1)
}

func (m *mockRepository) ListServices(ctx context.Context) ([]models.ConsultationService, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConsultationService), args.Error(1)
}

func (m *mockRepository) GetIntakeSummary(ctx context.Context, userID int64) (*models.IntakeSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IntakeSummary), args.Error(1)
}

func (m *mockRepository) UpsertIntakeSummary(ctx context.Context, summary *models.IntakeSummary) error {
	return m.Called(ctx, summary).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, taskType string, app *models.ConsultantApplication, status string) error {
	return m.Called(ctx, taskType, app, status).Error(0)
}

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockSessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepository) ClearSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockSessionRepository) SetResetToken(ctx context.Context, token, email string, ttl time.Duration) error {
	return m.Called(ctx, token, email, ttl).Error(0)
}

func (m *mockSessionRepository) GetResetToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockSessionRepository) ClearResetToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}
