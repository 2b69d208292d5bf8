package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"rciconnect/internal/token"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// claimsFrom extracts the authenticated claims placed by requireAuth.
func claimsFrom(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*token.Claims)
	return c, ok
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth validates the bearer access token and stores claims in the
// request context.
func (s *HTTPServer) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.ParseAccess(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// requireRole is requireAuth plus a role allowlist.
func (s *HTTPServer) requireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				next(w, r)
				return
			}
		}
		writeError(w, http.StatusForbidden, "permission denied")
	})
}

// principalKey identifies the caller for rate limiting: user id when
// authenticated, remote host otherwise.
func (s *HTTPServer) principalKey(r *http.Request) string {
	if raw := bearerToken(r); raw != "" {
		if claims, err := s.tokens.ParseAccess(raw); err == nil {
			return "user:" + claims.Email
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}
