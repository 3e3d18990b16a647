package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/recovery-portal/internal/api/dto"
	httptransport "github.com/spec-kit/recovery-portal/internal/api/http"
	"github.com/spec-kit/recovery-portal/internal/api/http/handlers"
	"github.com/spec-kit/recovery-portal/internal/auth"
	"github.com/spec-kit/recovery-portal/internal/config"
	"github.com/spec-kit/recovery-portal/internal/domain"
	"github.com/spec-kit/recovery-portal/internal/observability"
	"github.com/spec-kit/recovery-portal/internal/session"
	"github.com/spec-kit/recovery-portal/internal/token"
	"github.com/spec-kit/recovery-portal/internal/upstream"
)

// fakePlatform is a stand-in for the remote platform API. It issues real
// (HS256-signed) tokens and enforces the bearer header on protected
// endpoints, so the whole attach-token/react-to-401 chain is exercised.
type fakePlatform struct {
	srv     *httptest.Server
	tokens  map[string]string // username -> issued token
	roles   map[string]domain.Role
	expired atomic.Bool

	lastUploadCompanyID  atomic.Value
	lastUploadCustomerID atomic.Value
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	fp := &fakePlatform{
		tokens: map[string]string{},
		roles: map[string]domain.Role{
			"root": domain.RoleAdmin,
			"acme": domain.RoleCompany,
		},
	}

	for username := range fp.roles {
		claims := jwt.MapClaims{"sub": username}
		if fp.roles[username] == domain.RoleCompany {
			claims["companyId"] = 7
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
		require.NoError(t, err)
		fp.tokens[username] = signed
	}

	mux := stdhttp.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		var req dto.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		role, known := fp.roles[req.Username]
		if !known || req.Password != "correct" {
			w.WriteHeader(stdhttp.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(dto.LoginResponse{Token: fp.tokens[req.Username], Role: role})
	})
	mux.HandleFunc("POST /auth/register", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		_ = json.NewEncoder(w).Encode(dto.RegisterCompanyResponse{
			CompanyID: 11, CompanyName: "Newco", Message: "pending approval", RequiresApproval: true,
		})
	})

	authed := func(next stdhttp.HandlerFunc) stdhttp.HandlerFunc {
		return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			if fp.expired.Load() || !fp.validBearer(r.Header.Get("Authorization")) {
				w.WriteHeader(stdhttp.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("GET /admin/metrics", authed(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		_ = json.NewEncoder(w).Encode(domain.PlatformMetrics{TotalCompanies: 3})
	}))
	mux.HandleFunc("GET /company/dashboard/metrics", authed(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		_ = json.NewEncoder(w).Encode(domain.CompanyDashboardMetrics{TotalInvoices: 5})
	}))
	mux.HandleFunc("POST /company/invoices/upload", authed(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fp.lastUploadCompanyID.Store(r.FormValue("companyId"))
		fp.lastUploadCustomerID.Store(r.FormValue("customerId"))
		_ = json.NewEncoder(w).Encode(dto.UploadInvoiceResponse{InvoiceID: 99})
	}))

	fp.srv = httptest.NewServer(mux)
	t.Cleanup(fp.srv.Close)
	return fp
}

func (fp *fakePlatform) validBearer(header string) bool {
	for _, tok := range fp.tokens {
		if header == "Bearer "+tok {
			return true
		}
	}
	return false
}

type portal struct {
	app   *fiber.App
	store *token.MemoryStore
	fp    *fakePlatform
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	fp := newFakePlatform(t)
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := token.NewMemoryStore()

	api := upstream.NewClient(config.UpstreamConfig{BaseURL: fp.srv.URL, TimeoutSeconds: 5}, store, logger)
	sessions := session.NewManager(store, api, logger)
	api.BindInvalidator(sessions)

	cookies := auth.NewCookieCodec(config.SessionConfig{
		CookieName:   "portal_session",
		CookieSecret: "test-secret",
		TTLMinutes:   60,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler("portal", "test", nil),
		Auth:        handlers.NewAuthHandler(sessions, cookies, metrics, logger),
		Admin:       handlers.NewAdminHandler(api),
		Company:     handlers.NewCompanyHandler(api, sessions),
		SessionLoad: auth.LoadSession(sessions, cookies),
		Guard:       auth.NewGuard(),
	})
	return &portal{app: app, store: store, fp: fp}
}

func (p *portal) login(t *testing.T, username, path string) *stdhttp.Cookie {
	t.Helper()
	body, err := json.Marshal(dto.LoginRequest{Username: username, Password: "correct"})
	require.NoError(t, err)
	if path == "" {
		path = "/auth/login"
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func (p *portal) get(t *testing.T, cookie *stdhttp.Cookie, path string) *stdhttp.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := p.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestLoginLandsOnRoleDashboard(t *testing.T) {
	p := newPortal(t)

	body, _ := json.Marshal(dto.LoginRequest{Username: "root", Password: "correct"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard", resp.Header.Get("Location"))
	require.NotEmpty(t, resp.Cookies())
}

func TestLoginHonorsReturnURL(t *testing.T) {
	p := newPortal(t)

	body, _ := json.Marshal(dto.LoginRequest{Username: "acme", Password: "correct"})
	req := httptest.NewRequest("POST", "/auth/login?returnUrl=%2Fcompany%2Finvoices", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/company/invoices", resp.Header.Get("Location"))
}

func TestLoginRejectionLeavesNoSession(t *testing.T) {
	p := newPortal(t)

	body, _ := json.Marshal(dto.LoginRequest{Username: "root", Password: "wrong"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "INVALID_CREDENTIALS", payload.Error.Code)
}

func TestAuthenticatedAdminFlow(t *testing.T) {
	p := newPortal(t)
	cookie := p.login(t, "root", "")

	resp := p.get(t, cookie, "/admin/dashboard")
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var metrics domain.PlatformMetrics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&metrics))
	assert.Equal(t, 3, metrics.TotalCompanies)
}

func TestRoleMismatchRedirectsToAccessDenied(t *testing.T) {
	p := newPortal(t)
	cookie := p.login(t, "root", "")

	resp := p.get(t, cookie, "/company/dashboard")
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t,
		"/access-denied?attemptedUrl=%2Fcompany%2Fdashboard&userRole=ADMIN",
		resp.Header.Get("Location"))
}

func TestForcedLogoutOnExpiredSession(t *testing.T) {
	p := newPortal(t)
	cookie := p.login(t, "root", "")
	p.fp.expired.Store(true)

	resp := p.get(t, cookie, "/admin/dashboard")
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t,
		"/auth/login?returnUrl=%2Fadmin%2Fdashboard&sessionExpired=true",
		resp.Header.Get("Location"))

	// Store is cleared, so the next navigation hits the authentication
	// gate rather than the upstream.
	resp = p.get(t, cookie, "/admin/dashboard")
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login?returnUrl=%2Fadmin%2Fdashboard", resp.Header.Get("Location"))
}

func TestExpiredStoreRecordDoesNotBounceLoginPage(t *testing.T) {
	p := newPortal(t)
	cookie := p.login(t, "root", "")

	// The sweeper removed the record; the cookie is still valid.
	purged, err := p.store.PurgeIdle(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	// The login screen must treat the visitor as unauthenticated instead
	// of bouncing to a dashboard that can only 401 back here.
	resp := p.get(t, cookie, "/auth/login")
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	resp = p.get(t, cookie, "/admin/dashboard")
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login?returnUrl=%2Fadmin%2Fdashboard", resp.Header.Get("Location"))
}

func TestLoginRejectsOffsiteReturnURL(t *testing.T) {
	p := newPortal(t)

	for _, target := range []string{
		"https://evil.example/phish",
		"//evil.example/phish",
		"/\\evil.example",
		"evil.example",
	} {
		body, _ := json.Marshal(dto.LoginRequest{Username: "root", Password: "correct"})
		req := httptest.NewRequest("POST", "/auth/login?returnUrl="+url.QueryEscape(target), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := p.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
		assert.Equal(t, "/admin/dashboard", resp.Header.Get("Location"),
			"offsite target %q must fall back to the role dashboard", target)
	}
}

func TestLogoutClearsSessionAndRedirects(t *testing.T) {
	p := newPortal(t)
	cookie := p.login(t, "acme", "")

	req := httptest.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(cookie)
	resp, err := p.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))

	resp = p.get(t, cookie, "/company/dashboard")
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login?returnUrl=%2Fcompany%2Fdashboard", resp.Header.Get("Location"))

	// Logging out again is a no-op on state but still navigates.
	req = httptest.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(cookie)
	resp, err = p.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
}

func TestLoginPageReportsState(t *testing.T) {
	p := newPortal(t)

	resp := p.get(t, nil, "/auth/login?returnUrl=%2Fadmin%2Fdashboard&sessionExpired=true")
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var state dto.LoginPageState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, "/admin/dashboard", state.ReturnURL)
	assert.True(t, state.SessionExpired)
}

func TestLoginPageBouncesAuthenticatedVisitor(t *testing.T) {
	p := newPortal(t)
	cookie := p.login(t, "acme", "")

	resp := p.get(t, cookie, "/auth/login")
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/company/dashboard", resp.Header.Get("Location"))
}

func TestRegisterPassesThroughWithoutSession(t *testing.T) {
	p := newPortal(t)

	body, _ := json.Marshal(dto.RegisterCompanyRequest{
		CompanyName:  "Newco",
		ContactEmail: "ops@newco.test",
		Username:     "newco",
		Password:     "secret123",
	})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, stdhttp.StatusCreated, resp.StatusCode)
	var result dto.RegisterCompanyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.RequiresApproval)
	assert.Empty(t, resp.Cookies(), "registration must not create a session")
}

func TestUploadCarriesCompanyClaim(t *testing.T) {
	p := newPortal(t)
	cookie := p.login(t, "acme", "")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "invoice.pdf")
	require.NoError(t, err)
	_, err = io.WriteString(part, "%PDF-1.4 fake")
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("customerId", "3"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/company/invoices/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(cookie)
	resp, err := p.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, stdhttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, "7", p.fp.lastUploadCompanyID.Load(), "companyId must come from the token claim")
	assert.Equal(t, "3", p.fp.lastUploadCustomerID.Load())
}

func TestUnknownRouteRedirectsToLogin(t *testing.T) {
	p := newPortal(t)

	resp := p.get(t, nil, "/nope")
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
}

func TestHealthLive(t *testing.T) {
	p := newPortal(t)

	resp := p.get(t, nil, "/healthz/live")
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}
