package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/recovery-portal/internal/config"
)

// CookieCodec issues and validates the signed browser-context cookie. The
// cookie value is "sid|signature"; the sid itself is an opaque uuid, and
// the signature prevents forging a foreign session ID.
type CookieCodec struct {
	name   string
	secret []byte
	ttl    time.Duration
}

// NewCookieCodec builds a codec from session configuration.
func NewCookieCodec(cfg config.SessionConfig) *CookieCodec {
	return &CookieCodec{
		name:   cfg.CookieName,
		secret: []byte(cfg.CookieSecret),
		ttl:    cfg.TTL(),
	}
}

// Issue creates a fresh session ID and sets the signed cookie.
func (cc *CookieCodec) Issue(c *fiber.Ctx) string {
	sid := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     cc.name,
		Value:    sid + "|" + cc.sign(sid),
		Path:     "/",
		Expires:  time.Now().Add(cc.ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return sid
}

// Read extracts and verifies the session ID from the request cookie.
func (cc *CookieCodec) Read(c *fiber.Ctx) (string, bool) {
	value := c.Cookies(cc.name)
	if value == "" {
		return "", false
	}
	parts := strings.SplitN(value, "|", 2)
	if len(parts) != 2 {
		return "", false
	}
	sid, sig := parts[0], parts[1]
	if !hmac.Equal([]byte(sig), []byte(cc.sign(sid))) {
		return "", false
	}
	return sid, true
}

// Clear expires the cookie.
func (cc *CookieCodec) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     cc.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (cc *CookieCodec) sign(sid string) string {
	mac := hmac.New(sha256.New, cc.secret)
	mac.Write([]byte(sid))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
