package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-portal/internal/auth"
	"github.com/spec-kit/recovery-portal/internal/upstream"
	apperrors "github.com/spec-kit/recovery-portal/pkg/util"
)

// AdminHandler proxies admin screens onto the platform API.
type AdminHandler struct {
	api *upstream.Client
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(api *upstream.Client) *AdminHandler {
	return &AdminHandler{api: api}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	metrics, err := h.api.PlatformMetrics(auth.RequestContext(c))
	if err != nil {
		return err
	}
	return c.JSON(metrics)
}

// Companies handles GET /admin/companies.
func (h *AdminHandler) Companies(c *fiber.Ctx) error {
	page, size := pagination(c)
	list, err := h.api.Companies(auth.RequestContext(c), page, size, c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Company handles GET /admin/companies/:id.
func (h *AdminHandler) Company(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	company, err := h.api.Company(auth.RequestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(company)
}

// UpdateCompanyStatus handles PATCH /admin/companies/:id/status.
func (h *AdminHandler) UpdateCompanyStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailed("invalid payload", nil)
	}
	company, err := h.api.SetCompanyStatus(auth.RequestContext(c), id, req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(company)
}

// ApproveCompany handles POST /admin/companies/:id/approve.
func (h *AdminHandler) ApproveCompany(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	company, err := h.api.ApproveCompany(auth.RequestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(company)
}

// RejectCompany handles POST /admin/companies/:id/reject.
func (h *AdminHandler) RejectCompany(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	company, err := h.api.RejectCompany(auth.RequestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(company)
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationFailed("invalid id", nil)
	}
	return id, nil
}

func pagination(c *fiber.Ctx) (page, size int) {
	page = c.QueryInt("page", 0)
	if page < 0 {
		page = 0
	}
	size = c.QueryInt("size", 10)
	if size <= 0 || size > 100 {
		size = 10
	}
	return page, size
}
