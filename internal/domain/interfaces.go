package domain

import (
	"context"
	"time"

	"rciconnect/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Repository interface {
	// Weekly schedule and blocked times.
	GetWeeklySchedule(ctx context.Context, consultantID int64) (*models.WeeklySchedule, error)
	CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error
	DeleteSlot(ctx context.Context, consultantID, slotID int64) error
	SetScheduleTimezone(ctx context.Context, consultantID int64, timezone string) error
	GetScheduleTimezone(ctx context.Context, consultantID int64) (string, error)
	ListBlockedTimes(ctx context.Context, consultantID int64) ([]models.BlockedTime, error)
	CreateBlockedTime(ctx context.Context, blocked *models.BlockedTime) error
	DeleteBlockedTime(ctx context.Context, consultantID, blockedID int64) error
	ListTimezones(ctx context.Context) ([]string, error)

	// Consultant applications.
	CreateApplication(ctx context.Context, app *models.ConsultantApplication) error
	GetApplication(ctx context.Context, id string) (*models.ConsultantApplication, error)
	GetApplicationByEmailAndID(ctx context.Context, email, id string) (*models.ConsultantApplication, error)
	ListApplications(ctx context.Context, status string) ([]*models.ConsultantApplication, error)
	UpdateApplicationStatus(ctx context.Context, id, status string) error
	SetSectionsRequested(ctx context.Context, id string, sections []int) error
	CompleteApplicationSections(ctx context.Context, app *models.ConsultantApplication) error
	UpdateAdminNotes(ctx context.Context, id, notes string) error
	AddApplicationDocument(ctx context.Context, doc *models.ApplicationDocument) error
	DeleteApplicationDocument(ctx context.Context, applicationID string, docID int64) error
	ListApplicationDocuments(ctx context.Context, applicationID string) ([]models.ApplicationDocument, error)
	GetApplicationDocumentByStoredName(ctx context.Context, storedName string) (*models.ApplicationDocument, error)

	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateUserActivity(ctx context.Context, id int64) error

	// Newsletter.
	GetSubscriber(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
	UpsertSubscriber(ctx context.Context, email, status string) error

	// Content.
	ListTestimonials(ctx context.Context) ([]models.Testimonial, error)
	ListFAQs(ctx context.Context, homeOnly bool) ([]models.FAQ, error)
	ListServices(ctx context.Context) ([]models.ConsultationService, error)

	// Intake.
	GetIntakeSummary(ctx context.Context, userID int64) (*models.IntakeSummary, error)
	UpsertIntakeSummary(ctx context.Context, summary *models.IntakeSummary) error
}

type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, token string) error
	SetResetToken(ctx context.Context, token, email string, ttl time.Duration) error
	GetResetToken(ctx context.Context, token string) (string, error)
	ClearResetToken(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type AvailabilityService interface {
	GetSchedule(ctx context.Context, consultantID int64) (*models.WeeklySchedule, error)
	CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error
	DeleteSlot(ctx context.Context, consultantID, slotID int64) error
	SetTimezone(ctx context.Context, consultantID int64, timezone string) error
	ListBlockedTimes(ctx context.Context, consultantID int64) ([]models.BlockedTime, error)
	CreateBlockedTime(ctx context.Context, blocked *models.BlockedTime) error
	DeleteBlockedTime(ctx context.Context, consultantID, blockedID int64) error
	ListTimezones(ctx context.Context) []string
	ExpandOpenSlots(ctx context.Context, consultantID int64, from, to time.Time) ([]models.OpenSlot, error)
}

type ApplicationService interface {
	SubmitSection1(ctx context.Context, app *models.ConsultantApplication) error
	Resume(ctx context.Context, email, applicationID string) (*models.ConsultantApplication, string, error)
	Get(ctx context.Context, id string) (*models.ConsultantApplication, error)
	List(ctx context.Context, status string) ([]*models.ConsultantApplication, error)
	RequestSections(ctx context.Context, id string, sections []int) error
	CompleteSections(ctx context.Context, app *models.ConsultantApplication) error
	Approve(ctx context.Context, id string, adminID int64) error
	Reject(ctx context.Context, id string, adminID int64) error
	UpdateAdminNotes(ctx context.Context, id, notes string) error
	AddDocument(ctx context.Context, doc *models.ApplicationDocument) error
	DeleteDocument(ctx context.Context, applicationID string, docID int64) error
	ListDocuments(ctx context.Context, applicationID string) ([]models.ApplicationDocument, error)
	SendCredentials(ctx context.Context, id string) (string, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, newPassword, accessToken, refreshToken string) error
}

// TokenPair mirrors the browser storage contract: expiry is unix seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"token_expires_at"`
}

type NewsletterService interface {
	Subscribe(ctx context.Context, email string) (string, error)
	Unsubscribe(ctx context.Context, email string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type SheetsWriter interface {
	AppendApplication(ctx context.Context, app *models.ConsultantApplication) error
	UpsertApplication(ctx context.Context, app *models.ConsultantApplication) error
	UpdateApplicationStatus(ctx context.Context, applicationID, status string) error
	ReplaceApplicationsSheet(ctx context.Context, apps []*models.ConsultantApplication) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, app *models.ConsultantApplication, status string) error
}
