package client

import (
	"net/url"
	"strings"
)

// Recovery link routes.
const (
	RouteResetPassword = "/reset-password"
	RouteAuthConfirm   = "/auth/confirm"
)

// RecoveryRoute inspects a visited URL for an auth callback fragment:
// access_token with type=recovery routes to the password reset page,
// type=signup to email confirmation. The fragment is preserved verbatim so
// the target page can read the token. Returns ok=false when the URL is not
// a recovery link.
func RecoveryRoute(rawURL string) (route string, ok bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	fragment := parsed.EscapedFragment()
	params := fragmentParams(fragment)
	if params.Get("access_token") == "" {
		return "", false
	}

	switch params.Get("type") {
	case "recovery":
		return RouteResetPassword + "#" + fragment, true
	case "signup":
		return RouteAuthConfirm + "#" + fragment, true
	default:
		return "", false
	}
}

// fragmentParams parses the hash fragment as a query string; recovery links
// arrive as "#access_token=...&type=recovery".
func fragmentParams(fragment string) url.Values {
	fragment = strings.TrimPrefix(fragment, "#")
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return url.Values{}
	}
	return values
}
