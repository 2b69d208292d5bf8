package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rciconnect/internal/metrics"
	"rciconnect/internal/models"
	"rciconnect/internal/token"
)

const applicationsPrefix = "/api/v1/consultant-applications/"

// applicationWire flattens the section bitmask into the per-section booleans
// the frontend reads.
func applicationWire(app *models.ConsultantApplication) map[string]any {
	out := map[string]any{
		"id":                    app.ID,
		"email":                 app.Email,
		"full_name":             app.FullName,
		"phone":                 app.Phone,
		"license_number":        app.LicenseNumber,
		"status":                app.Status,
		"sections_requested":    app.SectionsRequested,
		"practice_name":         app.PracticeName,
		"practice_address":      app.PracticeAddress,
		"years_of_experience":   app.YearsOfExperience,
		"expertise_areas":       app.ExpertiseAreas,
		"languages":             app.Languages,
		"insurance_provider":    app.InsuranceProvider,
		"insurance_policy":      app.InsurancePolicy,
		"declarations_accepted": app.Declarations,
		"signature":             app.Signature,
		"admin_notes":           app.AdminNotes,
		"created_at":            app.CreatedAt,
		"updated_at":            app.UpdatedAt,
	}
	for i, done := range app.Sections.Flags() {
		out[fmt.Sprintf("section_%d_completed", i+1)] = done
	}
	return out
}

// authorize checks the bearer token against a role allowlist without the
// middleware wrapper, for routes where only some actions are protected.
func (s *HTTPServer) authorize(w http.ResponseWriter, r *http.Request, roles ...string) (*token.Claims, bool) {
	raw := bearerToken(r)
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}
	claims, err := s.tokens.ParseAccess(raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}
	for _, role := range roles {
		if claims.Role == role {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "permission denied")
	return nil, false
}

func (s *HTTPServer) handleSubmitSection1(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	app := &models.ConsultantApplication{
		Email:         strings.TrimSpace(r.FormValue("email")),
		FullName:      strings.TrimSpace(r.FormValue("full_name")),
		Phone:         strings.TrimSpace(r.FormValue("phone")),
		LicenseNumber: strings.TrimSpace(r.FormValue("license_number")),
	}

	if err := s.applications.SubmitSection1(r.Context(), app); err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.IncApplication(models.StatusPending)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     app.ID,
		"status": app.Status,
	})
}

// handleApplications serves both the public wizard resume (email +
// application_id query) and the admin list.
func (s *HTTPServer) handleApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	applicationID := strings.TrimSpace(r.URL.Query().Get("application_id"))

	if email != "" && applicationID != "" {
		app, phase, err := s.applications.Resume(r.Context(), email, applicationID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := applicationWire(app)
		resp["phase"] = phase
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if _, ok := s.authorize(w, r, models.RoleAdmin); !ok {
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	apps, err := s.applications.List(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(apps))
	for _, app := range apps {
		out = append(out, applicationWire(app))
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": out})
}

func (s *HTTPServer) handleApplicationSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, applicationsPrefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id := parts[0]
	if len(parts) == 1 {
		s.handleGetApplication(w, r, id)
		return
	}

	switch parts[1] {
	case "approve":
		s.handleDecision(w, r, id, models.StatusApproved)
	case "reject":
		s.handleDecision(w, r, id, models.StatusRejected)
	case "request-sections":
		s.handleRequestSections(w, r, id)
	case "complete-sections":
		s.handleCompleteSections(w, r, id)
	case "admin-notes":
		s.handleAdminNotes(w, r, id)
	case "additional-documents":
		s.handleAdditionalDocuments(w, r, id, parts[2:])
	case "send-credentials":
		s.handleSendCredentials(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleGetApplication(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := s.authorize(w, r, models.RoleAdmin); !ok {
		return
	}

	app, err := s.applications.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applicationWire(app))
}

func (s *HTTPServer) handleDecision(w http.ResponseWriter, r *http.Request, id, decision string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, ok := s.authorize(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	var err error
	if decision == models.StatusApproved {
		err = s.applications.Approve(r.Context(), id, claims.UserID)
	} else {
		err = s.applications.Reject(r.Context(), id, claims.UserID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.IncApplication(decision)
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": decision})
}

func (s *HTTPServer) handleRequestSections(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := s.authorize(w, r, models.RoleAdmin); !ok {
		return
	}

	var body struct {
		Sections []int `json:"sections"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.applications.RequestSections(r.Context(), id, body.Sections); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "sections_requested": body.Sections})
}

// handleCompleteSections accepts sections 2-7 plus up to four files in one
// multipart payload. Public: the applicant authenticates with the email +
// application id pair from their resume link.
func (s *HTTPServer) handleCompleteSections(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	years, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("years_of_experience")))
	app := &models.ConsultantApplication{
		ID:                id,
		Email:             strings.TrimSpace(r.FormValue("email")),
		PracticeName:      strings.TrimSpace(r.FormValue("practice_name")),
		PracticeAddress:   strings.TrimSpace(r.FormValue("practice_address")),
		YearsOfExperience: years,
		ExpertiseAreas:    strings.TrimSpace(r.FormValue("expertise_areas")),
		Languages:         strings.TrimSpace(r.FormValue("languages")),
		InsuranceProvider: strings.TrimSpace(r.FormValue("insurance_provider")),
		InsurancePolicy:   strings.TrimSpace(r.FormValue("insurance_policy")),
		Declarations:      r.FormValue("declarations_accepted") == "true",
		Signature:         strings.TrimSpace(r.FormValue("signature")),
	}

	// store all files before touching the database so a bad file, or a
	// rejected sections write, leaves no documents behind
	var files []*models.ApplicationDocument
	if r.MultipartForm != nil {
		headers := r.MultipartForm.File["additional_documents"]
		if len(headers) > models.MaxAdditionalFiles {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("at most %d additional documents are accepted", models.MaxAdditionalFiles))
			return
		}
		for _, hdr := range headers {
			doc, err := s.uploads.SaveMultipart(hdr)
			if err != nil {
				s.discardUploads(files)
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			doc.ApplicationID = id
			doc.Kind = models.DocumentKindApplicant
			doc.UploadedBy = app.Email
			files = append(files, doc)
		}
	}

	if err := s.applications.CompleteSections(r.Context(), app); err != nil {
		s.discardUploads(files)
		writeServiceError(w, err)
		return
	}

	for i, doc := range files {
		if err := s.applications.AddDocument(r.Context(), doc); err != nil {
			for _, attached := range files[:i] {
				if delErr := s.applications.DeleteDocument(r.Context(), id, attached.ID); delErr != nil {
					s.logger.Error().Err(delErr).Str("application_id", id).Msg("failed to unwind attached document")
				}
			}
			s.discardUploads(files)
			writeServiceError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        id,
		"status":    "sections_completed",
		"documents": files,
	})
}

func (s *HTTPServer) discardUploads(files []*models.ApplicationDocument) {
	for _, doc := range files {
		if err := s.uploads.Remove(doc.StoredName); err != nil {
			s.logger.Warn().Err(err).Str("stored_name", doc.StoredName).Msg("failed to remove stored upload")
		}
	}
}

func (s *HTTPServer) handleAdminNotes(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := s.authorize(w, r, models.RoleAdmin); !ok {
		return
	}

	var body struct {
		Notes string `json:"admin_notes"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.applications.UpdateAdminNotes(r.Context(), id, body.Notes); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "admin_notes": body.Notes})
}

func (s *HTTPServer) handleAdditionalDocuments(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := s.authorize(w, r, models.RoleAdmin); !ok {
			return
		}
		docs, err := s.applications.ListDocuments(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})

	case http.MethodPost:
		claims, ok := s.authorize(w, r, models.RoleAdmin)
		if !ok {
			return
		}
		if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		_, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		doc, err := s.uploads.SaveMultipart(hdr)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		doc.ApplicationID = id
		doc.Kind = models.DocumentKindAdmin
		doc.UploadedBy = claims.Email
		if err := s.applications.AddDocument(r.Context(), doc); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)

	case http.MethodDelete:
		if _, ok := s.authorize(w, r, models.RoleAdmin); !ok {
			return
		}
		if len(rest) == 0 || rest[0] == "" {
			writeError(w, http.StatusBadRequest, "document id is required")
			return
		}
		docID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil || docID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid document id")
			return
		}
		if err := s.applications.DeleteDocument(r.Context(), id, docID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleSendCredentials(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := s.authorize(w, r, models.RoleAdmin); !ok {
		return
	}

	tempPassword, err := s.applications.SendCredentials(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":            id,
		"temp_password": tempPassword,
	})
}

// handleDocumentLink resolves a stored file name into a short-lived signed
// download URL.
func (s *HTTPServer) handleDocumentLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, "/api/v1/consultant-applications/documents/")
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	if _, err := os.Stat(filepath.Join(s.uploads.Dir(), filename)); err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": s.uploads.SignedURL(filename)})
}

func (s *HTTPServer) handleExportApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path, err := s.exporter.ExportApplications(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func (s *HTTPServer) maxUploadBytes() int64 {
	mb := s.cfg.Uploads.MaxFileSizeMB
	if mb <= 0 {
		mb = 10
	}
	return mb << 20
}
