package api

import (
	"errors"
	"net/http"

	"rciconnect/internal/database"
	"rciconnect/internal/metrics"
	"rciconnect/internal/models"
)

func (s *HTTPServer) handleTestimonials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	testimonials, err := s.content.ListTestimonials(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"testimonials": testimonials})
}

func (s *HTTPServer) handleFAQs(homeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		faqs, err := s.content.ListFAQs(r.Context(), homeOnly)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"faqs": faqs})
	}
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	services, err := s.content.ListServices(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *HTTPServer) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.newsletter.Subscribe(r.Context(), body.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if result == models.SubscribeResultSubscribed {
		metrics.IncNewsletterSignup()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": result})
}

func (s *HTTPServer) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.newsletter.Unsubscribe(r.Context(), body.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// handleIntakeSummary reports intake progress; no rows yet is a normal empty
// state rather than an error.
func (s *HTTPServer) handleIntakeSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	claims, _ := claimsFrom(r.Context())
	summary, err := s.content.GetIntakeSummary(r.Context(), claims.UserID)
	if errors.Is(err, database.ErrNotFound) {
		summary = &models.IntakeSummary{UserID: claims.UserID, CompletedStages: []string{}}
	} else if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":           summary,
		"ready_for_booking": summary.ReadyForBooking(),
	})
}
