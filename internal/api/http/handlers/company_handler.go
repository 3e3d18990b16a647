package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-portal/internal/api/dto"
	"github.com/spec-kit/recovery-portal/internal/auth"
	"github.com/spec-kit/recovery-portal/internal/domain"
	"github.com/spec-kit/recovery-portal/internal/session"
	"github.com/spec-kit/recovery-portal/internal/upstream"
	apperrors "github.com/spec-kit/recovery-portal/pkg/util"
)

// CompanyHandler proxies company screens onto the platform API.
type CompanyHandler struct {
	api      *upstream.Client
	sessions *session.Manager
}

// NewCompanyHandler constructs the handler.
func NewCompanyHandler(api *upstream.Client, sessions *session.Manager) *CompanyHandler {
	return &CompanyHandler{api: api, sessions: sessions}
}

// Dashboard handles GET /company/dashboard.
func (h *CompanyHandler) Dashboard(c *fiber.Ctx) error {
	metrics, err := h.api.DashboardMetrics(auth.RequestContext(c))
	if err != nil {
		return err
	}
	return c.JSON(metrics)
}

// Invoices handles GET /company/invoices.
func (h *CompanyHandler) Invoices(c *fiber.Ctx) error {
	page, size := pagination(c)
	list, err := h.api.Invoices(auth.RequestContext(c), page, size, c.Query("status"), c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// DraftInvoices handles GET /company/invoices/drafts.
func (h *CompanyHandler) DraftInvoices(c *fiber.Ctx) error {
	page, size := pagination(c)
	list, err := h.api.Invoices(auth.RequestContext(c), page, size, string(domain.InvoiceStatusDraft), "")
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Invoice handles GET /company/invoices/:id.
func (h *CompanyHandler) Invoice(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	invoice, err := h.api.Invoice(auth.RequestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// MarkInvoicePaid handles POST /company/invoices/:id/mark-paid.
func (h *CompanyHandler) MarkInvoicePaid(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.MarkInvoicePaidRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailed("invalid payload", nil)
	}
	if req.AmountReceived <= 0 || req.PaymentDate == "" {
		return apperrors.NewValidationFailed("amountReceived and paymentDate required", nil)
	}
	invoice, err := h.api.MarkInvoicePaid(auth.RequestContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// ActivateDraftInvoice handles PATCH /company/invoices/:id/activate.
func (h *CompanyHandler) ActivateDraftInvoice(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.ActivateDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailed("invalid payload", nil)
	}
	if req.InvoiceNumber == "" || req.InvoiceDate == "" || req.Amount <= 0 {
		return apperrors.NewValidationFailed("invoiceNumber, invoiceDate and amount required", nil)
	}
	invoice, err := h.api.ActivateDraftInvoice(auth.RequestContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// UploadInvoice handles POST /company/invoices/upload. The company scope
// comes from the token's companyId claim, not from caller input.
func (h *CompanyHandler) UploadInvoice(c *fiber.Ctx) error {
	sid, ok := auth.SessionID(c)
	if !ok {
		return apperrors.NewForbidden("no session")
	}
	companyID, ok := h.sessions.CompanyID(c.UserContext(), sid)
	if !ok {
		return apperrors.NewForbidden("no company scope on session")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationFailed("file required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	var customerID *int64
	if raw := c.FormValue("customerId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewValidationFailed("invalid customerId", nil)
		}
		customerID = &parsed
	}

	result, err := h.api.UploadInvoice(auth.RequestContext(c), fileHeader.Filename, file, companyID, customerID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Customers handles GET /company/customers.
func (h *CompanyHandler) Customers(c *fiber.Ctx) error {
	page, size := pagination(c)
	list, err := h.api.Customers(auth.RequestContext(c), page, size, c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Customer handles GET /company/customers/:id.
func (h *CompanyHandler) Customer(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	customer, err := h.api.Customer(auth.RequestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(customer)
}

// Payments handles GET /company/payments.
func (h *CompanyHandler) Payments(c *fiber.Ctx) error {
	page, size := pagination(c)
	list, err := h.api.Payments(auth.RequestContext(c), page, size, c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}
