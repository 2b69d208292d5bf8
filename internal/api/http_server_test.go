package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"rciconnect/internal/config"
	"rciconnect/internal/database"
	"rciconnect/internal/export"
	"rciconnect/internal/models"
	"rciconnect/internal/repository"
	"rciconnect/internal/service"
	"rciconnect/internal/token"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv *HTTPServer
	db  *database.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.Server.HTTP.Port = 0
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTTLMinutes = 30
	cfg.Auth.RefreshTTLHours = 24
	cfg.Uploads.Path = t.TempDir()
	cfg.Uploads.MaxFileSizeMB = 4

	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	sessions := repository.NewMemorySessionRepository(models.DefaultSessionTTL)
	uploads, err := NewUploadStore(cfg.Uploads.Path, cfg.Auth.JWTSecret, 15*time.Minute)
	require.NoError(t, err)

	deps := HTTPServerDeps{
		Availability: service.NewAvailabilityService(db, &logger),
		Applications: service.NewApplicationService(db, nil, nil, &logger),
		Auth:         service.NewAuthService(db, sessions, tokens, &logger),
		Newsletter:   service.NewNewsletterService(db, nil, &logger),
		Content:      db,
		Tokens:       tokens,
		Exporter:     export.NewExporter(db, t.TempDir(), &logger),
		Uploads:      uploads,
	}

	return &testEnv{srv: NewHTTPServer(cfg, deps, &logger), db: db}
}

func (e *testEnv) seedUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:        email,
		FullName:     "Test User",
		Role:         role,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	require.NoError(t, e.db.CreateUser(t.Context(), user))
	return user
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func (e *testEnv) doJSON(t *testing.T, method, path string, payload any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doMultipart(t *testing.T, path string, fields map[string]string, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSubmitSection1AndResume(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doMultipart(t, "/api/v1/consultant-applications/section1", map[string]string{
		"email":          "rcic@example.com",
		"full_name":      "Jamie Tran",
		"phone":          "+1 416 555 0100",
		"license_number": "R712345",
	}, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)

	// Resume via the shareable link: section 1 fields round-trip.
	resume := env.doJSON(t, http.MethodGet,
		"/api/v1/consultant-applications?email=rcic@example.com&application_id="+created.ID, nil, "")
	require.Equal(t, http.StatusOK, resume.Code, resume.Body.String())

	var loaded map[string]any
	require.NoError(t, json.Unmarshal(resume.Body.Bytes(), &loaded))
	assert.Equal(t, "initial", loaded["phase"])
	assert.Equal(t, "Jamie Tran", loaded["full_name"])
	assert.Equal(t, "+1 416 555 0100", loaded["phone"])
	assert.Equal(t, "R712345", loaded["license_number"])
	assert.Equal(t, true, loaded["section_1_completed"])
	assert.Equal(t, false, loaded["section_2_completed"])
}

func TestSection1ValidationError(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doMultipart(t, "/api/v1/consultant-applications/section1", map[string]string{
		"email": "not-an-email",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminApplicationWorkflow(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin@example.com", "admin-pass", models.RoleAdmin)
	adminToken := env.login(t, "admin@example.com", "admin-pass")

	// Applicant submits section 1.
	resp := env.doMultipart(t, "/api/v1/consultant-applications/section1", map[string]string{
		"email":          "applicant@example.com",
		"full_name":      "Robin Osei",
		"phone":          "+1 604 555 0101",
		"license_number": "R523456",
	}, "")
	require.Equal(t, http.StatusCreated, resp.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	base := "/api/v1/consultant-applications/" + created.ID

	t.Run("ListRequiresAdmin", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, "/api/v1/consultant-applications", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		resp = env.doJSON(t, http.MethodGet, "/api/v1/consultant-applications", nil, adminToken)
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("ApproveBlockedWhileIncomplete", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, base+"/approve", nil, adminToken)
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("RequestSections", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, base+"/request-sections", map[string]any{"sections": []int{}}, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	})

	t.Run("ResumeLandsOnAdditionalPhase", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet,
			"/api/v1/consultant-applications?email=applicant@example.com&application_id="+created.ID, nil, "")
		require.Equal(t, http.StatusOK, resp.Code)
		var loaded map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &loaded))
		assert.Equal(t, "additional", loaded["phase"])
	})

	t.Run("CompleteSections", func(t *testing.T) {
		resp := env.doMultipart(t, base+"/complete-sections", map[string]string{
			"email":                 "applicant@example.com",
			"practice_name":         "Osei Immigration Services",
			"practice_address":      "88 King St W, Toronto",
			"years_of_experience":   "6",
			"expertise_areas":       "Express Entry, Family Sponsorship",
			"languages":             "English, Twi",
			"insurance_provider":    "CICC Assurance",
			"insurance_policy":      "POL-99112",
			"declarations_accepted": "true",
			"signature":             "Robin Osei",
		}, "")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	})

	t.Run("ApproveAfterCompletion", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, base+"/approve", nil, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	})

	t.Run("RejectAfterApprovalBlocked", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, base+"/reject", nil, adminToken)
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("SendCredentials", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, base+"/send-credentials", nil, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var body map[string]string
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.NotEmpty(t, body["temp_password"])
	})

	t.Run("AdminNotes", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPut, base+"/admin-notes",
			map[string]string{"admin_notes": "verified with the college"}, adminToken)
		require.Equal(t, http.StatusOK, resp.Code)

		got := env.doJSON(t, http.MethodGet, base, nil, adminToken)
		require.Equal(t, http.StatusOK, got.Code)
		var loaded map[string]any
		require.NoError(t, json.Unmarshal(got.Body.Bytes(), &loaded))
		assert.Equal(t, "verified with the college", loaded["admin_notes"])
	})
}

func TestAvailabilityRoleGating(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "client@example.com", "client-pass", models.RoleClient)
	env.seedUser(t, "rcic@example.com", "rcic-pass", models.RoleRCIC)

	clientToken := env.login(t, "client@example.com", "client-pass")
	rcicToken := env.login(t, "rcic@example.com", "rcic-pass")

	slot := map[string]any{
		"day_of_week":           1,
		"start_time":            "09:00",
		"end_time":              "12:00",
		"slot_interval_minutes": 30,
		"is_active":             true,
	}

	resp := env.doJSON(t, http.MethodPost, "/api/v1/availability/slots", slot, clientToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = env.doJSON(t, http.MethodPost, "/api/v1/availability/slots", slot, rcicToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	t.Run("MissingEndTimeRejected", func(t *testing.T) {
		bad := map[string]any{
			"day_of_week":           1,
			"start_time":            "09:00",
			"slot_interval_minutes": 30,
		}
		resp := env.doJSON(t, http.MethodPost, "/api/v1/availability/slots", bad, rcicToken)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("ScheduleRoundTrip", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, "/api/v1/availability/slots", nil, rcicToken)
		require.Equal(t, http.StatusOK, resp.Code)
		var schedule models.WeeklySchedule
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &schedule))
		require.Len(t, schedule.Slots, 1)
		assert.Equal(t, "09:00", schedule.Slots[0].StartTime)
	})

	t.Run("TimezonesArePublic", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, "/api/v1/availability/timezones", nil, "")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "America/Toronto")
	})

	t.Run("OpenSlotsRequireConsultantID", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, "/api/v1/availability/open-slots?from=2026-09-07&to=2026-09-08", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestNewsletterStatuses(t *testing.T) {
	env := newTestEnv(t)

	first := env.doJSON(t, http.MethodPost, "/api/v1/newsletter/subscribe",
		map[string]string{"email": "reader@example.com"}, "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), `"subscribed"`)

	second := env.doJSON(t, http.MethodPost, "/api/v1/newsletter/subscribe",
		map[string]string{"email": "reader@example.com"}, "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "already_subscribed")
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "user@example.com", "right-pass", models.RoleClient)

	resp := env.doJSON(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "user@example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.doJSON(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "nobody@example.com", "password": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCompleteSectionsFailureDiscardsUploads(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"email":                 "nobody@example.com",
		"practice_name":         "Ghost Practice",
		"declarations_accepted": "true",
		"signature":             "Nobody",
	} {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("additional_documents", "insurance.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/consultant-applications/no-such-id/complete-sections", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	// The rejected write must not leave the uploaded file behind.
	entries, err := os.ReadDir(env.srv.uploads.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRequestResetAcceptsMultipartForm(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "user@example.com", "right-pass", models.RoleClient)

	resp := env.doMultipart(t, "/api/v1/password-reset/request-reset",
		map[string]string{"email": "user@example.com"}, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "reset_requested")

	// Same response for an unknown email.
	resp = env.doMultipart(t, "/api/v1/password-reset/request-reset",
		map[string]string{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "reset_requested")

	resp = env.doMultipart(t, "/api/v1/password-reset/request-reset",
		map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// A JSON body is not a multipart form.
	resp = env.doJSON(t, http.MethodPost, "/api/v1/password-reset/request-reset",
		map[string]string{"email": "user@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestIntakeSummaryEmptyState(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "client@example.com", "client-pass", models.RoleClient)
	clientToken := env.login(t, "client@example.com", "client-pass")

	resp := env.doJSON(t, http.MethodGet, "/api/v1/intake/summary", nil, clientToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		ReadyForBooking bool `json:"ready_for_booking"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.False(t, body.ReadyForBooking)
}

func TestContentEndpointsEmpty(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{
		"/api/v1/features/testimonials",
		"/api/v1/features/faqs",
		"/api/v1/features/home-faqs",
		"/api/v1/features/services",
	} {
		resp := env.doJSON(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, resp.Code, path)
	}
}

func TestUploadAndSignedURL(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rcic@example.com", "rcic-pass", models.RoleRCIC)
	rcicToken := env.login(t, "rcic@example.com", "rcic-pass")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "license.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/document", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+rcicToken)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var uploaded struct {
		StoredName string `json:"stored_name"`
		URL        string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	require.True(t, strings.HasSuffix(uploaded.StoredName, ".pdf"))

	t.Run("SignedDownload", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, uploaded.URL, nil, "")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "%PDF-1.4")
	})

	t.Run("TamperedSignatureRejected", func(t *testing.T) {
		tampered := strings.Replace(uploaded.URL, "sig=", "sig=00", 1)
		resp := env.doJSON(t, http.MethodGet, tampered, nil, "")
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("AnonymousUploadRejected", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/v1/uploads/document", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "user@example.com", "right-pass", models.RoleClient)

	login := env.doJSON(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "user@example.com", "password": "right-pass"}, "")
	require.Equal(t, http.StatusOK, login.Code)

	var pair struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &pair))

	refreshed := env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh",
		map[string]string{"refresh_token": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, refreshed.Code, refreshed.Body.String())

	// The old refresh token was revoked by rotation.
	reused := env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh",
		map[string]string{"refresh_token": pair.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, reused.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	resp := env.doJSON(t, http.MethodDelete, "/api/v1/newsletter/subscribe", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

func TestDocumentLinkRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "client@example.com", "client-pass", models.RoleClient)
	clientToken := env.login(t, "client@example.com", "client-pass")

	resp := env.doJSON(t, http.MethodGet,
		fmt.Sprintf("/api/v1/consultant-applications/documents/%s", "missing.pdf"), nil, clientToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
