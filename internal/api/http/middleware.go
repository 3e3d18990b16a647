package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recovery-portal/internal/auth"
	"github.com/spec-kit/recovery-portal/internal/observability"
	apperrors "github.com/spec-kit/recovery-portal/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			// An expired session is not a form error: the store is already
			// cleared, so send the browser back to login with resumption
			// context. The prior page is carried unless it is the login
			// screen itself.
			if apperrors.IsSessionExpired(err) {
				metrics.RecordError(c.Path(), c.Method(), "SESSION_EXPIRED")
				target := auth.LoginRedirectURL(c.OriginalURL(), true)
				err = c.Redirect(target, fiber.StatusFound)
				return
			}

			portalErr := apperrors.ToPortalError(err)
			metrics.RecordError(c.Path(), c.Method(), portalErr.Code)
			response := fiber.Map{"error": fiber.Map{
				"code":    portalErr.Code,
				"message": portalErr.Message,
			}}
			if len(portalErr.Details) > 0 {
				response["error"].(fiber.Map)["details"] = portalErr.Details
			}
			if portalErr.HTTPStatus >= 500 {
				logger.Error("request failed", zap.Error(portalErr))
			}
			c.Status(portalErr.HTTPStatus)
			_ = c.JSON(response)
			err = nil
		}()
		return c.Next()
	}
}
