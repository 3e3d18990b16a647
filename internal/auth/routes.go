package auth

import (
	"net/url"
	"strings"

	"github.com/spec-kit/recovery-portal/internal/domain"
)

// Well-known portal paths used by guards and redirect builders.
const (
	LoginPath        = "/auth/login"
	AccessDeniedPath = "/access-denied"
	AdminHomePath    = "/admin/dashboard"
	CompanyHomePath  = "/company/dashboard"
)

// LoginRedirectURL builds the login-screen URL carrying the resumption
// context. returnURL is omitted when empty or when it is the login screen
// itself, which would otherwise cause a redirect loop.
func LoginRedirectURL(returnURL string, sessionExpired bool) string {
	query := url.Values{}
	if returnURL = SafeReturnURL(returnURL); returnURL != "" && !isLoginURL(returnURL) {
		query.Set("returnUrl", returnURL)
	}
	if sessionExpired {
		query.Set("sessionExpired", "true")
	}
	if len(query) == 0 {
		return LoginPath
	}
	return LoginPath + "?" + query.Encode()
}

// AccessDeniedURL builds the access-denied URL carrying the attempted
// destination and the offending role.
func AccessDeniedURL(attemptedURL string, role domain.Role) string {
	query := url.Values{}
	query.Set("attemptedUrl", attemptedURL)
	if role != "" {
		query.Set("userRole", string(role))
	} else {
		query.Set("userRole", "UNKNOWN")
	}
	return AccessDeniedPath + "?" + query.Encode()
}

// SafeReturnURL keeps redirect targets inside the portal. Only rooted
// paths qualify; absolute URLs, scheme-relative "//host" forms and the
// backslash variant browsers normalize to them all collapse to "".
func SafeReturnURL(target string) string {
	if target == "" || target[0] != '/' {
		return ""
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return ""
	}
	return target
}

func isLoginURL(target string) bool {
	parsed, err := url.Parse(target)
	if err != nil {
		return false
	}
	return parsed.Path == LoginPath
}
