package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-portal/internal/api/http/handlers"
	"github.com/spec-kit/recovery-portal/internal/auth"
	"github.com/spec-kit/recovery-portal/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Admin       *handlers.AdminHandler
	Company     *handlers.CompanyHandler
	SessionLoad fiber.Handler
	Guard       *auth.Guard
}

// RegisterRoutes wires portal routes. Guard order is fixed: the
// authentication gate runs before the role gate on every protected group.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.SessionLoad)

	app.Get("/healthz/live", cfg.Health.Live)
	app.Get("/healthz/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Get("/login", cfg.Auth.LoginPage)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/logout", cfg.Auth.Logout)

	// Always registered so the role gate's primary deny target resolves.
	app.Get(auth.AccessDeniedPath, cfg.Auth.AccessDenied)

	admin := app.Group("/admin", cfg.Guard.RequireSession(), cfg.Guard.RequireRoles(domain.RoleAdmin))
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Get("/companies", cfg.Admin.Companies)
	admin.Get("/companies/:id", cfg.Admin.Company)
	admin.Patch("/companies/:id/status", cfg.Admin.UpdateCompanyStatus)
	admin.Post("/companies/:id/approve", cfg.Admin.ApproveCompany)
	admin.Post("/companies/:id/reject", cfg.Admin.RejectCompany)

	company := app.Group("/company", cfg.Guard.RequireSession(), cfg.Guard.RequireRoles(domain.RoleCompany))
	company.Get("/dashboard", cfg.Company.Dashboard)
	company.Get("/invoices", cfg.Company.Invoices)
	company.Get("/invoices/drafts", cfg.Company.DraftInvoices)
	company.Get("/invoices/:id", cfg.Company.Invoice)
	company.Post("/invoices/:id/mark-paid", cfg.Company.MarkInvoicePaid)
	company.Patch("/invoices/:id/activate", cfg.Company.ActivateDraftInvoice)
	company.Post("/invoices/upload", cfg.Company.UploadInvoice)
	company.Get("/customers", cfg.Company.Customers)
	company.Get("/customers/:id", cfg.Company.Customer)
	company.Get("/payments", cfg.Company.Payments)

	// Everything else lands on the login screen.
	app.Use(func(c *fiber.Ctx) error {
		return c.Redirect(auth.LoginRedirectURL("", false), fiber.StatusFound)
	})
}
