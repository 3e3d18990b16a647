package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/recovery-portal/internal/api/dto"
	"github.com/spec-kit/recovery-portal/internal/config"
	"github.com/spec-kit/recovery-portal/internal/domain"
	"github.com/spec-kit/recovery-portal/internal/token"
	apperrors "github.com/spec-kit/recovery-portal/pkg/util"
)

// Client talks to the remote payment-recovery platform API. Every call is
// routed through the authenticating transport; authorization itself is
// enforced server-side and by the route guards, not here.
type Client struct {
	baseURL   string
	http      *http.Client
	transport *authTransport
	logger    *zap.Logger
}

// NewClient builds a platform API client over the given token store.
func NewClient(cfg config.UpstreamConfig, store token.Store, logger *zap.Logger) *Client {
	transport := newAuthTransport(nil, store, logger)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: transport,
		},
		transport: transport,
		logger:    logger,
	}
}

// BindInvalidator routes 401-triggered teardown through the session
// manager's logout path. Wired once at startup.
func (c *Client) BindInvalidator(inv Invalidator) {
	c.transport.bind(inv)
}

// Login exchanges credentials for a token and role. A 401 here means the
// credentials were rejected, not that a session expired.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	body, err := json.Marshal(dto.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	resp, err := c.post(ctx, "/auth/login", body)
	if err != nil {
		return nil, apperrors.NewUnreachable(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperrors.NewInvalidCredentials()
	case resp.StatusCode == http.StatusBadRequest:
		return nil, apperrors.NewValidationFailed(readMessage(resp.Body), nil)
	case resp.StatusCode >= 300:
		return nil, apperrors.NewInternalError(fmt.Errorf("login: unexpected status %d", resp.StatusCode))
	}

	var login dto.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &login, nil
}

// RegisterCompany submits a company registration. It never affects session
// state.
func (c *Client) RegisterCompany(ctx context.Context, req dto.RegisterCompanyRequest) (*dto.RegisterCompanyResponse, error) {
	var result dto.RegisterCompanyResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PlatformMetrics fetches admin dashboard counters.
func (c *Client) PlatformMetrics(ctx context.Context) (*domain.PlatformMetrics, error) {
	var metrics domain.PlatformMetrics
	if err := c.do(ctx, http.MethodGet, "/admin/metrics", nil, nil, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// Companies lists registered companies.
func (c *Client) Companies(ctx context.Context, page, pageSize int, search string) (*dto.CompanyListResponse, error) {
	query := pageQuery(page, pageSize)
	if search != "" {
		query.Set("search", search)
	}
	var list dto.CompanyListResponse
	if err := c.do(ctx, http.MethodGet, "/admin/companies", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Company fetches a single company.
func (c *Client) Company(ctx context.Context, id int64) (*domain.Company, error) {
	var company domain.Company
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/companies/%d", id), nil, nil, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// SetCompanyStatus activates or deactivates a company.
func (c *Client) SetCompanyStatus(ctx context.Context, id int64, active bool) (*domain.Company, error) {
	var company domain.Company
	req := dto.CompanyStatusUpdate{CompanyID: id, IsActive: active}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/admin/companies/%d/status", id), nil, req, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// ApproveCompany approves a pending registration.
func (c *Client) ApproveCompany(ctx context.Context, id int64) (*domain.Company, error) {
	var company domain.Company
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/admin/companies/%d/approve", id), nil, struct{}{}, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// RejectCompany rejects a pending registration.
func (c *Client) RejectCompany(ctx context.Context, id int64) (*domain.Company, error) {
	var company domain.Company
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/admin/companies/%d/reject", id), nil, struct{}{}, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// DashboardMetrics fetches company dashboard counters.
func (c *Client) DashboardMetrics(ctx context.Context) (*domain.CompanyDashboardMetrics, error) {
	var metrics domain.CompanyDashboardMetrics
	if err := c.do(ctx, http.MethodGet, "/company/dashboard/metrics", nil, nil, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// Invoices lists invoices, optionally filtered by status and search text.
func (c *Client) Invoices(ctx context.Context, page, pageSize int, status, search string) (*dto.InvoiceListResponse, error) {
	query := pageQuery(page, pageSize)
	if status != "" {
		query.Set("status", status)
	}
	if search != "" {
		query.Set("search", search)
	}
	var list dto.InvoiceListResponse
	if err := c.do(ctx, http.MethodGet, "/company/invoices", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Invoice fetches a single invoice.
func (c *Client) Invoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/company/invoices/%d", id), nil, nil, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkInvoicePaid records a received payment against an invoice.
func (c *Client) MarkInvoicePaid(ctx context.Context, id int64, req dto.MarkInvoicePaidRequest) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/company/invoices/%d/mark-paid", id), nil, req, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ActivateDraftInvoice completes a draft and moves it to PENDING.
func (c *Client) ActivateDraftInvoice(ctx context.Context, id int64, req dto.ActivateDraftRequest) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/company/invoices/%d/activate", id), nil, req, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Customers lists the company's customers.
func (c *Client) Customers(ctx context.Context, page, pageSize int, search string) (*dto.CustomerListResponse, error) {
	query := pageQuery(page, pageSize)
	if search != "" {
		query.Set("search", search)
	}
	var list dto.CustomerListResponse
	if err := c.do(ctx, http.MethodGet, "/company/customers", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Customer fetches a single customer.
func (c *Client) Customer(ctx context.Context, id int64) (*domain.Customer, error) {
	var customer domain.Customer
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/company/customers/%d", id), nil, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// Payments lists recorded payments.
func (c *Client) Payments(ctx context.Context, page, pageSize int, search string) (*dto.PaymentListResponse, error) {
	query := pageQuery(page, pageSize)
	if search != "" {
		query.Set("search", search)
	}
	var list dto.PaymentListResponse
	if err := c.do(ctx, http.MethodGet, "/company/payments", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UploadInvoice forwards an invoice document as multipart form data. The
// company identifier comes from the token claim and scopes the write.
func (c *Client) UploadInvoice(ctx context.Context, filename string, file io.Reader, companyID int64, customerID *int64) (*dto.UploadInvoiceResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := writer.WriteField("companyId", strconv.FormatInt(companyID, 10)); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if customerID != nil {
		if err := writer.WriteField("customerId", strconv.FormatInt(*customerID, 10)); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/company/invoices/upload", &buf)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewUnreachable(err)
	}
	defer resp.Body.Close()

	var result dto.UploadInvoiceResponse
	if err := c.decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// do performs a JSON round trip and maps upstream statuses onto the portal
// error taxonomy. By the time a 401 is visible here the transport has
// already completed the forced-logout side effect.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		reader = bytes.NewReader(encoded)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewUnreachable(err)
	}
	defer resp.Body.Close()

	return c.decode(resp, out)
}

func (c *Client) decode(resp *http.Response, out any) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.NewSessionExpired()
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.NewValidationFailed(readMessage(resp.Body), nil)
	case resp.StatusCode == http.StatusForbidden:
		return apperrors.NewForbidden("forbidden by platform api")
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NewNotFound("resource")
	case resp.StatusCode >= 300:
		return apperrors.NewInternalError(fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// readMessage pulls the upstream-provided message out of an error body so
// it can be surfaced verbatim. Falls back to empty on any decode failure.
func readMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}

func pageQuery(page, pageSize int) url.Values {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(pageSize))
	return query
}
