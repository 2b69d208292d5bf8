package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"rciconnect/internal/models"
)

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		schedule, err := s.availability.GetSchedule(r.Context(), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, schedule)

	case http.MethodPost:
		var slot models.AvailabilitySlot
		if err := decodeJSONBody(r, &slot); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		slot.ConsultantID = claims.UserID
		if err := s.availability.CreateSlot(r.Context(), &slot); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, slot)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleSlotByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	claims, _ := claimsFrom(r.Context())
	id, ok := trailingID(w, r.URL.Path, "/api/v1/availability/slots/")
	if !ok {
		return
	}

	if err := s.availability.DeleteSlot(r.Context(), claims.UserID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *HTTPServer) handleBlockedTimes(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		blocked, err := s.availability.ListBlockedTimes(r.Context(), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"blocked_times": blocked})

	case http.MethodPost:
		var blocked models.BlockedTime
		if err := decodeJSONBody(r, &blocked); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		blocked.ConsultantID = claims.UserID
		if err := s.availability.CreateBlockedTime(r.Context(), &blocked); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, blocked)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleBlockedTimeByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	claims, _ := claimsFrom(r.Context())
	id, ok := trailingID(w, r.URL.Path, "/api/v1/availability/blocked-times/")
	if !ok {
		return
	}

	if err := s.availability.DeleteBlockedTime(r.Context(), claims.UserID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *HTTPServer) handleTimezone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	claims, _ := claimsFrom(r.Context())
	var body struct {
		Timezone string `json:"timezone"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.availability.SetTimezone(r.Context(), claims.UserID, body.Timezone); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"timezone": body.Timezone})
}

func (s *HTTPServer) handleTimezones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timezones": s.availability.ListTimezones(r.Context())})
}

func (s *HTTPServer) handleOpenSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	consultantID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("consultant_id")), 10, 64)
	if err != nil || consultantID <= 0 {
		writeError(w, http.StatusBadRequest, "consultant_id is required")
		return
	}

	from, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}
	// Include the whole last day.
	to = to.Add(24*time.Hour - time.Second)

	slots, err := s.availability.ExpandOpenSlots(r.Context(), consultantID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"open_slots": slots})
}

// trailingID parses the numeric id after the given prefix, writing a 400 on
// failure.
func trailingID(w http.ResponseWriter, path, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusBadRequest, "id is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
