package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-portal/internal/domain"
)

// Guard gates navigation. Two cooperating checks run in fixed order for
// every protected route: RequireSession, then RequireRoles.
type Guard struct {
	// accessDeniedPath is where role mismatches land. The router always
	// registers this route; a guard built without one falls back to the
	// deterministic by-role table instead.
	accessDeniedPath string
}

// NewGuard builds a guard that denies role mismatches onto the standard
// access-denied screen.
func NewGuard() *Guard {
	return &Guard{accessDeniedPath: AccessDeniedPath}
}

// NewGuardWithoutDeniedRoute builds a guard relying purely on the by-role
// fallback table.
func NewGuardWithoutDeniedRoute() *Guard {
	return &Guard{}
}

// RequireSession allows navigation iff a session exists. Otherwise it
// redirects to the login screen with the originally requested URL attached
// so login can resume there.
func (g *Guard) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentSession(c); ok {
			return c.Next()
		}
		return c.Redirect(LoginRedirectURL(c.OriginalURL(), false), fiber.StatusFound)
	}
}

// RequireRoles allows navigation iff the session's role is a member of the
// given set. An empty set admits any authenticated session. The gate
// performs its own session check first so routes may declare it without
// RequireSession.
func (g *Guard) RequireRoles(roles ...domain.Role) fiber.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok {
			return c.Redirect(LoginRedirectURL(c.OriginalURL(), false), fiber.StatusFound)
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		if _, member := allowed[sess.Role]; member {
			return c.Next()
		}
		return c.Redirect(g.denyTarget(sess.Role, c.OriginalURL()), fiber.StatusFound)
	}
}

// denyTarget is the ordered decision table for role mismatches. It is
// total: every row resolves to some navigation.
func (g *Guard) denyTarget(role domain.Role, attemptedURL string) string {
	if g.accessDeniedPath != "" {
		return AccessDeniedURL(attemptedURL, role)
	}
	switch role {
	case domain.RoleAdmin:
		return AdminHomePath + "?accessDenied=true"
	case domain.RoleCompany:
		return CompanyHomePath + "?accessDenied=true"
	default:
		return LoginRedirectURL(attemptedURL, false)
	}
}
