package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rciconnect/internal/config"
	"rciconnect/internal/database"
	"rciconnect/internal/domain"
	"rciconnect/internal/metrics"
	"rciconnect/internal/models"
	"rciconnect/internal/token"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ContentStore is the read-only slice of storage the public content and
// intake endpoints need. *database.DB satisfies it.
type ContentStore interface {
	ListTestimonials(ctx context.Context) ([]models.Testimonial, error)
	ListFAQs(ctx context.Context, homeOnly bool) ([]models.FAQ, error)
	ListServices(ctx context.Context) ([]models.ConsultationService, error)
	GetIntakeSummary(ctx context.Context, userID int64) (*models.IntakeSummary, error)
}

// ApplicationExporter produces an xlsx workbook and returns its path.
type ApplicationExporter interface {
	ExportApplications(ctx context.Context, status string) (string, error)
}

// HTTPServer exposes the REST API consumed by the web frontend.
type HTTPServer struct {
	cfg          *config.Config
	availability domain.AvailabilityService
	applications domain.ApplicationService
	auth         domain.AuthService
	newsletter   domain.NewsletterService
	content      ContentStore
	tokens       *token.Manager
	exporter     ApplicationExporter
	uploads      *UploadStore
	limiter      *rateLimiter
	server       *http.Server
	logger       *zerolog.Logger
}

type HTTPServerDeps struct {
	Availability domain.AvailabilityService
	Applications domain.ApplicationService
	Auth         domain.AuthService
	Newsletter   domain.NewsletterService
	Content      ContentStore
	Tokens       *token.Manager
	Exporter     ApplicationExporter
	Uploads      *UploadStore
}

func NewHTTPServer(cfg *config.Config, deps HTTPServerDeps, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:          cfg,
		availability: deps.Availability,
		applications: deps.Applications,
		auth:         deps.Auth,
		newsletter:   deps.Newsletter,
		content:      deps.Content,
		tokens:       deps.Tokens,
		exporter:     deps.Exporter,
		uploads:      deps.Uploads,
		limiter:      newRateLimiter(cfg.RateLimit),
		logger:       logger,
	}

	mux := http.NewServeMux()
	srv.registerRoutes(mux)

	handler := srv.loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) registerRoutes(mux *http.ServeMux) {
	// Availability management, rcic role.
	mux.HandleFunc("/api/v1/availability/slots", s.requireRole(s.handleSlots, models.RoleRCIC, models.RoleAdmin))
	mux.HandleFunc("/api/v1/availability/slots/", s.requireRole(s.handleSlotByID, models.RoleRCIC, models.RoleAdmin))
	mux.HandleFunc("/api/v1/availability/blocked-times", s.requireRole(s.handleBlockedTimes, models.RoleRCIC, models.RoleAdmin))
	mux.HandleFunc("/api/v1/availability/blocked-times/", s.requireRole(s.handleBlockedTimeByID, models.RoleRCIC, models.RoleAdmin))
	mux.HandleFunc("/api/v1/availability/timezone", s.requireRole(s.handleTimezone, models.RoleRCIC, models.RoleAdmin))
	mux.HandleFunc("/api/v1/availability/timezones", s.handleTimezones)
	mux.HandleFunc("/api/v1/availability/open-slots", s.handleOpenSlots)

	// Consultant application wizard, public.
	mux.HandleFunc("/api/v1/consultant-applications/section1", s.handleSubmitSection1)
	mux.HandleFunc("/api/v1/consultant-applications", s.handleApplications)
	mux.HandleFunc("/api/v1/consultant-applications/documents/", s.requireRole(s.handleDocumentLink, models.RoleAdmin))
	mux.HandleFunc("/api/v1/consultant-applications/", s.handleApplicationSubroutes)

	// Content, public.
	mux.HandleFunc("/api/v1/features/testimonials", s.handleTestimonials)
	mux.HandleFunc("/api/v1/features/faqs", s.handleFAQs(false))
	mux.HandleFunc("/api/v1/features/home-faqs", s.handleFAQs(true))
	mux.HandleFunc("/api/v1/features/services", s.handleServices)

	// Newsletter, public.
	mux.HandleFunc("/api/v1/newsletter/subscribe", s.handleSubscribe)
	mux.HandleFunc("/api/v1/newsletter/unsubscribe", s.handleUnsubscribe)

	// Auth and password reset, public.
	mux.HandleFunc("/api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("/api/v1/auth/refresh", s.handleRefresh)
	mux.HandleFunc("/api/v1/auth/logout", s.handleLogout)
	mux.HandleFunc("/api/v1/password-reset/request-reset", s.handleRequestReset)
	mux.HandleFunc("/api/v1/password-reset/confirm-reset", s.handleConfirmReset)

	// Intake, client role.
	mux.HandleFunc("/api/v1/intake/summary", s.requireRole(s.handleIntakeSummary, models.RoleClient, models.RoleAdmin))

	// Uploads.
	mux.HandleFunc("/api/v1/uploads/profile-image", s.requireAuth(s.handleUpload("profile-image")))
	mux.HandleFunc("/api/v1/uploads/document", s.requireAuth(s.handleUpload("document")))
	mux.HandleFunc("/api/v1/uploads/files/", s.handleServeFile)

	// Admin export.
	mux.HandleFunc("/api/v1/admin/exports/applications.xlsx", s.requireRole(s.handleExportApplications, models.RoleAdmin))

	if s.cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		mux.Handle("/metrics", promhttp.Handler())
	}
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, primarily for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(s.principalKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps storage sentinels onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrInvalidInput),
		errors.Is(err, database.ErrRangeInverted),
		errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrUnknownTimezone):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
