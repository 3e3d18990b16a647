package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recovery-portal/internal/api/dto"
	"github.com/spec-kit/recovery-portal/internal/auth"
	"github.com/spec-kit/recovery-portal/internal/domain"
	"github.com/spec-kit/recovery-portal/internal/observability"
	"github.com/spec-kit/recovery-portal/internal/session"
	apperrors "github.com/spec-kit/recovery-portal/pkg/util"
)

// AuthHandler exposes the login, registration and logout flows.
type AuthHandler struct {
	sessions *session.Manager
	cookies  *auth.CookieCodec
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(sessions *session.Manager, cookies *auth.CookieCodec, metrics *observability.Metrics, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies, metrics: metrics, logger: logger}
}

// LoginPage handles GET /auth/login. It reports the messaging context the
// login screen consumes, and bounces already-authenticated visitors to
// their destination.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	returnURL := c.Query("returnUrl")

	if sess, ok := auth.CurrentSession(c); ok {
		return c.Redirect(postLoginTarget(sess, returnURL), fiber.StatusFound)
	}

	return c.JSON(dto.LoginPageState{
		ReturnURL:      returnURL,
		SessionExpired: c.Query("sessionExpired") == "true",
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailed("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationFailed("username and password required", nil)
	}

	// Reuse the browser-context ID when present so a re-login lands in the
	// same stored slot; otherwise mint one.
	sid, ok := auth.SessionID(c)
	if !ok {
		sid = h.cookies.Issue(c)
	}

	sess, err := h.sessions.Login(c.UserContext(), sid, req.Username, req.Password)
	if err != nil {
		h.metrics.RecordLogin(apperrors.ToPortalError(err).Code)
		return err
	}
	h.metrics.RecordLogin("success")

	return c.Redirect(postLoginTarget(sess, loginReturnURL(c)), fiber.StatusFound)
}

// Logout handles GET/POST /auth/logout. Safe to call when already logged
// out; navigation to the login screen happens either way.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid, ok := auth.SessionID(c); ok {
		if err := h.sessions.Logout(c.UserContext(), sid); err != nil {
			return err
		}
	}
	h.cookies.Clear(c)
	return c.Redirect(auth.LoginRedirectURL("", false), fiber.StatusFound)
}

// Register handles POST /auth/register. Registration never logs in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailed("invalid payload", nil)
	}
	if req.CompanyName == "" || req.ContactEmail == "" || req.Username == "" || req.Password == "" {
		return apperrors.NewValidationFailed("companyName, contactEmail, username, password required", nil)
	}

	result, err := h.sessions.RegisterCompany(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(result)
}

// AccessDenied handles GET /access-denied, echoing the attempted URL and
// the offending role for the screen to display.
func (h *AuthHandler) AccessDenied(c *fiber.Ctx) error {
	return c.Status(http.StatusForbidden).JSON(fiber.Map{
		"attemptedUrl": c.Query("attemptedUrl"),
		"userRole":     c.Query("userRole"),
	})
}

// loginReturnURL reads the resumption target from the form or query.
func loginReturnURL(c *fiber.Ctx) string {
	if v := c.FormValue("returnUrl"); v != "" {
		return v
	}
	return c.Query("returnUrl")
}

// postLoginTarget resolves where a fresh session lands: the preserved
// return URL when it stays inside the portal, the role dashboard
// otherwise.
func postLoginTarget(sess *domain.Session, returnURL string) string {
	if target := auth.SafeReturnURL(returnURL); target != "" {
		return target
	}
	switch sess.Role {
	case domain.RoleAdmin:
		return auth.AdminHomePath
	case domain.RoleCompany:
		return auth.CompanyHomePath
	default:
		return auth.LoginRedirectURL("", false)
	}
}
