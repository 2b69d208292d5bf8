package client

import (
	"encoding/json"
	"strconv"
	"time"
)

// Browser storage keys shared with the frontend.
const (
	KeyUser               = "user"
	KeyAccessToken        = "access_token"
	KeyRefreshToken       = "refresh_token"
	KeyTokenExpiresAt     = "token_expires_at"
	KeyDisclaimerAccepted = "disclaimerAccepted"
)

// Storage is the persistence adapter behind the session: local storage in
// the browser, anything key-value on other platforms.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Profile is the stored user profile; only the role matters for routing.
type Profile struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// GuardResult is the routing decision of the session guard.
type GuardResult struct {
	Authorized bool
	Route      string
	Profile    *Profile
}

const loginRoute = "/login"

// RoleDashboard maps a role onto its landing dashboard.
func RoleDashboard(role string) string {
	switch role {
	case "admin":
		return "/admin-dashboard"
	case "client":
		return "/client-dashboard"
	case "rcic":
		return "/rcic-dashboard"
	default:
		return loginRoute
	}
}

// ClearSession removes every session key from storage.
func ClearSession(s Storage) {
	s.Delete(KeyUser)
	s.Delete(KeyAccessToken)
	s.Delete(KeyRefreshToken)
	s.Delete(KeyTokenExpiresAt)
}

// RequireAuth is the protected-route check: pure and synchronous over the
// storage adapter.
//
// Missing user or token redirects to /login. An expired token clears the
// session keys first. Malformed user JSON clears the stored profile and is
// treated as logged-out. An authenticated user whose role is not allowed is
// sent to their own dashboard instead.
func RequireAuth(s Storage, now time.Time, allowedRoles ...string) GuardResult {
	rawUser, hasUser := s.Get(KeyUser)
	token, hasToken := s.Get(KeyAccessToken)
	if !hasUser || rawUser == "" || !hasToken || token == "" {
		return GuardResult{Route: loginRoute}
	}

	if rawExpiry, ok := s.Get(KeyTokenExpiresAt); ok && rawExpiry != "" {
		expiry, err := strconv.ParseInt(rawExpiry, 10, 64)
		if err == nil && now.Unix() >= expiry {
			ClearSession(s)
			return GuardResult{Route: loginRoute}
		}
	}

	var profile Profile
	if err := json.Unmarshal([]byte(rawUser), &profile); err != nil {
		s.Delete(KeyUser)
		return GuardResult{Route: loginRoute}
	}

	if len(allowedRoles) > 0 {
		allowed := false
		for _, role := range allowedRoles {
			if profile.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			return GuardResult{Route: RoleDashboard(profile.Role), Profile: &profile}
		}
	}

	return GuardResult{Authorized: true, Profile: &profile}
}

// MemoryStorage is a map-backed Storage for tests and non-browser hosts.
type MemoryStorage struct {
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) {
	m.values[key] = value
}

func (m *MemoryStorage) Delete(key string) {
	delete(m.values, key)
}
