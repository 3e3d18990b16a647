package domain

// InvoiceStatus represents lifecycle states for an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

// CustomerRef is the customer summary embedded in an invoice.
type CustomerRef struct {
	ID           int64  `json:"id"`
	CustomerName string `json:"customerName"`
	CompanyName  string `json:"companyName,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Invoice is the company-facing view of a receivable. Draft invoices have
// not been activated yet and may carry null number, dates and amount.
type Invoice struct {
	ID            int64         `json:"id"`
	InvoiceNumber *string       `json:"invoiceNumber"`
	InvoiceDate   *string       `json:"invoiceDate"`
	DueDate       *string       `json:"dueDate"`
	Amount        *float64      `json:"amount"`
	Status        InvoiceStatus `json:"status"`
	CustomerName  *string       `json:"customerName,omitempty"`
	CustomerID    *int64        `json:"customerId,omitempty"`
	Customer      *CustomerRef  `json:"customer,omitempty"`
	IsOverdue     bool          `json:"isOverdue,omitempty"`
	DaysOverdue   int           `json:"daysOverdue,omitempty"`
}

// Customer is the company-facing view of a debtor.
type Customer struct {
	ID               int64   `json:"id"`
	CustomerName     string  `json:"customerName"`
	CompanyName      string  `json:"companyName,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	Email            string  `json:"email,omitempty"`
	PaymentTermsDays int     `json:"paymentTermsDays"`
	TotalInvoices    int     `json:"totalInvoices,omitempty"`
	TotalAmount      float64 `json:"totalAmount,omitempty"`
	PendingAmount    float64 `json:"pendingAmount,omitempty"`
}

// Payment records money received against an invoice.
type Payment struct {
	ID             int64   `json:"id"`
	InvoiceID      int64   `json:"invoiceId"`
	InvoiceNumber  string  `json:"invoiceNumber"`
	AmountReceived float64 `json:"amountReceived"`
	PaymentDate    string  `json:"paymentDate"`
	CustomerName   string  `json:"customerName,omitempty"`
}

// CompanyDashboardMetrics aggregates receivable counters for a company.
type CompanyDashboardMetrics struct {
	TotalInvoices           int     `json:"totalInvoices"`
	PendingAmount           float64 `json:"pendingAmount"`
	OverdueAmount           float64 `json:"overdueAmount"`
	MoneyRecoveredThisMonth float64 `json:"moneyRecoveredThisMonth"`
	PendingInvoices         int     `json:"pendingInvoices"`
	PaidInvoices            int     `json:"paidInvoices"`
	OverdueInvoices         int     `json:"overdueInvoices"`
}
