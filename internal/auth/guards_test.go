package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/recovery-portal/internal/config"
	"github.com/spec-kit/recovery-portal/internal/domain"
	"github.com/spec-kit/recovery-portal/internal/session"
	"github.com/spec-kit/recovery-portal/internal/token"
	"github.com/spec-kit/recovery-portal/internal/upstream"
)

// guardApp wires the session-loading middleware and guard-protected routes
// over a prepopulated store. The upstream client is never contacted.
func guardApp(t *testing.T, guard *Guard, store token.Store) (*fiber.App, *CookieCodec) {
	t.Helper()
	api := upstream.NewClient(config.UpstreamConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1}, store, zap.NewNop())
	mgr := session.NewManager(store, api, zap.NewNop())
	cc := testCodec()

	app := fiber.New()
	app.Use(LoadSession(mgr, cc))

	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/admin/dashboard", guard.RequireSession(), guard.RequireRoles(domain.RoleAdmin), ok)
	app.Get("/company/dashboard", guard.RequireSession(), guard.RequireRoles(domain.RoleCompany), ok)
	app.Get("/shared", guard.RequireSession(), guard.RequireRoles(), ok)
	app.Get("/role-only", guard.RequireRoles(domain.RoleAdmin), ok)
	return app, cc
}

func seedSession(t *testing.T, store token.Store, sid string, role domain.Role) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SetToken(ctx, sid, "tok-"+sid))
	require.NoError(t, store.SetRole(ctx, sid, role))
	require.NoError(t, store.SetUsername(ctx, sid, "user-"+sid))
}

func get(t *testing.T, app *fiber.App, cc *CookieCodec, sid, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.Header.Set("Cookie", "portal_session="+sid+"|"+cc.sign(sid))
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthenticationGateDeniesAnonymous(t *testing.T) {
	app, cc := guardApp(t, NewGuard(), token.NewMemoryStore())

	resp := get(t, app, cc, "", "/admin/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login?returnUrl=%2Fadmin%2Fdashboard", resp.Header.Get("Location"))
}

func TestAuthenticationGateAllowsSession(t *testing.T) {
	store := token.NewMemoryStore()
	seedSession(t, store, "sid-a", domain.RoleAdmin)
	app, cc := guardApp(t, NewGuard(), store)

	resp := get(t, app, cc, "sid-a", "/admin/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoleGateDeniesMismatch(t *testing.T) {
	store := token.NewMemoryStore()
	seedSession(t, store, "sid-a", domain.RoleAdmin)
	app, cc := guardApp(t, NewGuard(), store)

	resp := get(t, app, cc, "sid-a", "/company/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/access-denied?attemptedUrl=%2Fcompany%2Fdashboard&userRole=ADMIN", resp.Header.Get("Location"))
}

func TestRoleGateAllowsAnyAuthenticatedWhenUnrestricted(t *testing.T) {
	store := token.NewMemoryStore()
	seedSession(t, store, "sid-a", domain.RoleAdmin)
	seedSession(t, store, "sid-c", domain.RoleCompany)
	app, cc := guardApp(t, NewGuard(), store)

	for _, sid := range []string{"sid-a", "sid-c"} {
		resp := get(t, app, cc, sid, "/shared")
		assert.Equal(t, http.StatusOK, resp.StatusCode, "sid %s", sid)
	}
}

func TestRoleGateChecksAuthenticationDefensively(t *testing.T) {
	app, cc := guardApp(t, NewGuard(), token.NewMemoryStore())

	resp := get(t, app, cc, "", "/role-only")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login?returnUrl=%2Frole-only", resp.Header.Get("Location"))
}

func TestRoleGateFallbackTable(t *testing.T) {
	store := token.NewMemoryStore()
	seedSession(t, store, "sid-a", domain.RoleAdmin)
	seedSession(t, store, "sid-c", domain.RoleCompany)
	app, cc := guardApp(t, NewGuardWithoutDeniedRoute(), store)

	resp := get(t, app, cc, "sid-a", "/company/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard?accessDenied=true", resp.Header.Get("Location"))

	resp = get(t, app, cc, "sid-c", "/admin/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/company/dashboard?accessDenied=true", resp.Header.Get("Location"))
}

func TestLoginRedirectURLSkipsLoginReturn(t *testing.T) {
	assert.Equal(t, "/auth/login?returnUrl=%2Fcompany%2Finvoices", LoginRedirectURL("/company/invoices", false))
	assert.Equal(t, "/auth/login?sessionExpired=true", LoginRedirectURL("/auth/login", true))
	assert.Equal(t, "/auth/login?sessionExpired=true", LoginRedirectURL("/auth/login?returnUrl=%2Fx", true))
	assert.Equal(t, "/auth/login", LoginRedirectURL("", false))
	assert.Equal(t,
		"/auth/login?returnUrl=%2Fadmin%2Fdashboard&sessionExpired=true",
		LoginRedirectURL("/admin/dashboard", true))
}

func TestSafeReturnURLRejectsOffsiteTargets(t *testing.T) {
	assert.Equal(t, "/company/invoices", SafeReturnURL("/company/invoices"))
	assert.Equal(t, "/admin/dashboard?page=2", SafeReturnURL("/admin/dashboard?page=2"))

	assert.Empty(t, SafeReturnURL("https://evil.example/phish"))
	assert.Empty(t, SafeReturnURL("//evil.example/phish"))
	assert.Empty(t, SafeReturnURL("/\\evil.example"))
	assert.Empty(t, SafeReturnURL("evil.example"))
	assert.Empty(t, SafeReturnURL(""))
}

func TestLoginRedirectURLDropsOffsiteReturn(t *testing.T) {
	assert.Equal(t, "/auth/login", LoginRedirectURL("https://evil.example/phish", false))
	assert.Equal(t, "/auth/login?sessionExpired=true", LoginRedirectURL("//evil.example", true))
}

func TestAccessDeniedURLDefaultsUnknownRole(t *testing.T) {
	assert.Equal(t,
		"/access-denied?attemptedUrl=%2Fadmin&userRole=UNKNOWN",
		AccessDeniedURL("/admin", ""))
}
