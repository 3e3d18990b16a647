package domain

import "time"

// Company is the admin-facing view of a registered company.
type Company struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	GSTNumber    string     `json:"gstNumber,omitempty"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	UserCount    int        `json:"userCount,omitempty"`
	InvoiceCount int        `json:"invoiceCount,omitempty"`
}

// ActivityItem is a recent platform event shown on the admin dashboard.
type ActivityItem struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	CompanyName string    `json:"companyName,omitempty"`
}

// PlatformMetrics aggregates platform-wide counters for the admin dashboard.
type PlatformMetrics struct {
	TotalCompanies    int            `json:"totalCompanies"`
	ActiveCompanies   int            `json:"activeCompanies"`
	InactiveCompanies int            `json:"inactiveCompanies"`
	TotalUsers        int            `json:"totalUsers"`
	TotalInvoices     int            `json:"totalInvoices"`
	PendingInvoices   int            `json:"pendingInvoices"`
	PaidInvoices      int            `json:"paidInvoices"`
	TotalRevenue      float64        `json:"totalRevenue"`
	RecentActivity    []ActivityItem `json:"recentActivity"`
}
