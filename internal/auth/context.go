package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-portal/internal/domain"
	"github.com/spec-kit/recovery-portal/internal/session"
	"github.com/spec-kit/recovery-portal/internal/upstream"
)

const (
	sidKey     = "portal_sid"
	sessionKey = "portal_session"
)

// LoadSession resolves the browser-context session ID from the signed
// cookie and hydrates the session for downstream guards and handlers.
func LoadSession(manager *session.Manager, cookies *CookieCodec) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid, ok := cookies.Read(c)
		if !ok {
			return c.Next()
		}
		c.Locals(sidKey, sid)

		sess, err := manager.Current(c.UserContext(), sid)
		if err != nil {
			return err
		}
		if sess != nil {
			c.Locals(sessionKey, sess)
		}
		return c.Next()
	}
}

// SessionID returns the request's browser-context session ID, if any.
func SessionID(c *fiber.Ctx) (string, bool) {
	sid, ok := c.Locals(sidKey).(string)
	return sid, ok && sid != ""
}

// CurrentSession returns the hydrated session for the request, if any.
func CurrentSession(c *fiber.Ctx) (*domain.Session, bool) {
	sess, ok := c.Locals(sessionKey).(*domain.Session)
	return sess, ok && sess != nil
}

// RequestContext tags the request context with the session ID so upstream
// calls pick up the stored bearer token.
func RequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if sid, ok := SessionID(c); ok {
		ctx = upstream.WithSessionID(ctx, sid)
	}
	return ctx
}
