package service

import (
	"context"
	"errors"
	"fmt"

	"rciconnect/internal/database"
	"rciconnect/internal/domain"
	"rciconnect/internal/events"
	"rciconnect/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Resume phases reported to a returning applicant. The wizard shows the
// remaining sections only when the admin has asked for them.
const (
	PhaseInitial    = "initial"
	PhaseAdditional = "additional"
)

// ApplicationService drives the consultant onboarding workflow: Section 1
// submission, the admin's request for the remaining sections, the
// applicant's completion of them, and the final approve/reject decision.
type ApplicationService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	validate   *validator.Validate
	logger     *zerolog.Logger
}

func NewApplicationService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *ApplicationService {
	return &ApplicationService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		validate:   validator.New(),
		logger:     logger,
	}
}

// SubmitSection1 creates a new application with only the contact section
// complete. The applicant gets back the generated id and resumes with it.
func (s *ApplicationService) SubmitSection1(ctx context.Context, app *models.ConsultantApplication) error {
	if err := s.validate.Var(app.Email, "required,email"); err != nil {
		return fmt.Errorf("%w: valid email is required", database.ErrInvalidInput)
	}
	if err := s.validate.Var(app.FullName, "required,min=2"); err != nil {
		return fmt.Errorf("%w: full name is required", database.ErrInvalidInput)
	}
	if err := s.validate.Var(app.LicenseNumber, "required,min=2"); err != nil {
		return fmt.Errorf("%w: license number is required", database.ErrInvalidInput)
	}

	app.ID = uuid.NewString()
	app.Status = models.StatusPending
	app.Sections = models.SectionSet(0).Add(models.SectionContact)
	app.SectionsRequested = nil

	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return err
	}

	s.publishEvent(events.EventApplicationSubmitted, app, "applicant", 0)
	s.enqueueSync(ctx, "upsert", app, "")
	return nil
}

// Resume looks up an application by the applicant's email and id, and tells
// the caller which phase to land on: the sections form when the admin has
// requested more and they are still incomplete, the status page otherwise.
func (s *ApplicationService) Resume(ctx context.Context, email, applicationID string) (*models.ConsultantApplication, string, error) {
	app, err := s.repo.GetApplicationByEmailAndID(ctx, email, applicationID)
	if err != nil {
		return nil, "", err
	}

	if app.Status == models.StatusPending && len(app.SectionsRequested) > 0 && !app.Sections.Complete() {
		return app, PhaseAdditional, nil
	}
	return app, PhaseInitial, nil
}

func (s *ApplicationService) Get(ctx context.Context, id string) (*models.ConsultantApplication, error) {
	return s.repo.GetApplication(ctx, id)
}

func (s *ApplicationService) List(ctx context.Context, status string) ([]*models.ConsultantApplication, error) {
	return s.repo.ListApplications(ctx, status)
}

// RequestSections asks the applicant for sections 2-7. Allowed only while
// the application is pending with exactly Section 1 complete.
func (s *ApplicationService) RequestSections(ctx context.Context, id string, sections []int) error {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	if !app.CanRequestSections() {
		return fmt.Errorf("%w: sections can be requested only for a pending application with section 1 alone", database.ErrInvalidState)
	}

	if len(sections) == 0 {
		for sec := 2; sec <= models.SectionCount; sec++ {
			sections = append(sections, sec)
		}
	}
	for _, sec := range sections {
		if sec < 2 || sec > models.SectionCount {
			return fmt.Errorf("%w: section %d out of range", database.ErrInvalidInput, sec)
		}
	}

	if err := s.repo.SetSectionsRequested(ctx, id, sections); err != nil {
		return err
	}

	app.SectionsRequested = sections
	s.publishEvent(events.EventSectionsRequested, app, "admin", 0)
	return nil
}

// CompleteSections accepts the applicant's sections 2-7 payload and marks
// every requested section complete.
func (s *ApplicationService) CompleteSections(ctx context.Context, submitted *models.ConsultantApplication) error {
	app, err := s.repo.GetApplicationByEmailAndID(ctx, submitted.Email, submitted.ID)
	if err != nil {
		return err
	}
	if app.Status != models.StatusPending {
		return fmt.Errorf("%w: application is no longer pending", database.ErrInvalidState)
	}
	if len(app.SectionsRequested) == 0 {
		return fmt.Errorf("%w: sections were not requested", database.ErrInvalidState)
	}
	if !submitted.Declarations {
		return fmt.Errorf("%w: declarations must be accepted", database.ErrInvalidInput)
	}
	if err := s.validate.Var(submitted.Signature, "required,min=2"); err != nil {
		return fmt.Errorf("%w: signature is required", database.ErrInvalidInput)
	}

	app.PracticeName = submitted.PracticeName
	app.PracticeAddress = submitted.PracticeAddress
	app.YearsOfExperience = submitted.YearsOfExperience
	app.ExpertiseAreas = submitted.ExpertiseAreas
	app.Languages = submitted.Languages
	app.InsuranceProvider = submitted.InsuranceProvider
	app.InsurancePolicy = submitted.InsurancePolicy
	app.Declarations = submitted.Declarations
	app.Signature = submitted.Signature
	for _, sec := range app.SectionsRequested {
		app.Sections = app.Sections.Add(models.Section(sec))
	}

	if err := s.repo.CompleteApplicationSections(ctx, app); err != nil {
		return err
	}

	s.publishEvent(events.EventSectionsCompleted, app, "applicant", 0)
	s.enqueueSync(ctx, "upsert", app, "")
	return nil
}

// Approve requires every section complete.
func (s *ApplicationService) Approve(ctx context.Context, id string, adminID int64) error {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	if !app.CanApprove() {
		return fmt.Errorf("%w: all %d sections must be complete before approval", database.ErrInvalidState, models.SectionCount)
	}

	if err := s.repo.UpdateApplicationStatus(ctx, id, models.StatusApproved); err != nil {
		return err
	}

	app.Status = models.StatusApproved
	s.publishEvent(events.EventApplicationApproved, app, "admin", adminID)
	s.enqueueSync(ctx, "update_status", app, models.StatusApproved)
	return nil
}

// Reject is allowed from any pending state.
func (s *ApplicationService) Reject(ctx context.Context, id string, adminID int64) error {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	if !app.CanReject() {
		return fmt.Errorf("%w: only a pending application can be rejected", database.ErrInvalidState)
	}

	if err := s.repo.UpdateApplicationStatus(ctx, id, models.StatusRejected); err != nil {
		return err
	}

	app.Status = models.StatusRejected
	s.publishEvent(events.EventApplicationRejected, app, "admin", adminID)
	s.enqueueSync(ctx, "update_status", app, models.StatusRejected)
	return nil
}

func (s *ApplicationService) UpdateAdminNotes(ctx context.Context, id, notes string) error {
	return s.repo.UpdateAdminNotes(ctx, id, notes)
}

func (s *ApplicationService) AddDocument(ctx context.Context, doc *models.ApplicationDocument) error {
	if doc.Kind != models.DocumentKindApplicant && doc.Kind != models.DocumentKindAdmin {
		return fmt.Errorf("%w: unknown document kind %q", database.ErrInvalidInput, doc.Kind)
	}
	if doc.Kind == models.DocumentKindApplicant {
		existing, err := s.repo.ListApplicationDocuments(ctx, doc.ApplicationID)
		if err != nil {
			return err
		}
		applicant := 0
		for _, d := range existing {
			if d.Kind == models.DocumentKindApplicant {
				applicant++
			}
		}
		if applicant >= models.MaxAdditionalFiles {
			return fmt.Errorf("%w: at most %d additional files", database.ErrInvalidInput, models.MaxAdditionalFiles)
		}
	}
	return s.repo.AddApplicationDocument(ctx, doc)
}

func (s *ApplicationService) DeleteDocument(ctx context.Context, applicationID string, docID int64) error {
	return s.repo.DeleteApplicationDocument(ctx, applicationID, docID)
}

func (s *ApplicationService) ListDocuments(ctx context.Context, applicationID string) ([]models.ApplicationDocument, error) {
	return s.repo.ListApplicationDocuments(ctx, applicationID)
}

// SendCredentials provisions the approved consultant's login and returns
// the one-time password for the admin to relay.
func (s *ApplicationService) SendCredentials(ctx context.Context, id string) (string, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return "", err
	}
	if !app.CanSendCredentials() {
		return "", fmt.Errorf("%w: credentials are sent only for approved applications", database.ErrInvalidState)
	}

	tempPassword := uuid.NewString()[:12]
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        app.Email,
		FullName:     app.FullName,
		Role:         models.RoleRCIC,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return "", fmt.Errorf("%w: account already exists for %s", database.ErrDuplicate, app.Email)
		}
		return "", err
	}

	s.publishEvent(events.EventCredentialsSent, app, "admin", 0)
	return tempPassword, nil
}

func (s *ApplicationService) publishEvent(eventType string, app *models.ConsultantApplication, changedBy string, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.ApplicationEventPayload{
		ApplicationID:     app.ID,
		Email:             app.Email,
		FullName:          app.FullName,
		LicenseNumber:     app.LicenseNumber,
		Status:            app.Status,
		SectionsCompleted: app.Sections.Count(),
		SectionsRequested: app.SectionsRequested,
		ChangedBy:         changedBy,
		ChangedByID:       changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("application_id", app.ID).Msg("publish event error")
	}
}

func (s *ApplicationService) enqueueSync(ctx context.Context, taskType string, app *models.ConsultantApplication, status string) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, app, status); err != nil {
		s.logger.Error().Err(err).Str("application_id", app.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
