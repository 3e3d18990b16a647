package dto

import "github.com/spec-kit/recovery-portal/internal/domain"

// InvoiceListResponse is the paginated invoices envelope.
type InvoiceListResponse struct {
	Invoices []domain.Invoice `json:"invoices"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// CustomerListResponse is the paginated customers envelope.
type CustomerListResponse struct {
	Customers []domain.Customer `json:"customers"`
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"pageSize"`
}

// PaymentListResponse is the paginated payments envelope.
type PaymentListResponse struct {
	Payments []domain.Payment `json:"payments"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// MarkInvoicePaidRequest records money received against an invoice.
type MarkInvoicePaidRequest struct {
	AmountReceived float64 `json:"amountReceived"`
	PaymentDate    string  `json:"paymentDate"`
}

// ActivateDraftRequest completes a draft invoice and moves it to PENDING.
type ActivateDraftRequest struct {
	InvoiceNumber string  `json:"invoiceNumber"`
	InvoiceDate   string  `json:"invoiceDate"`
	DueDate       *string `json:"dueDate"`
	Amount        float64 `json:"amount"`
}

// UploadInvoiceResponse is the upstream reply to a file upload.
type UploadInvoiceResponse struct {
	InvoiceID int64 `json:"invoiceId"`
}
