package dto

import "github.com/spec-kit/recovery-portal/internal/domain"

// CompanyListResponse is the paginated companies envelope.
type CompanyListResponse struct {
	Companies []domain.Company `json:"companies"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	PageSize  int              `json:"pageSize"`
}

// CompanyStatusUpdate payload for activate/deactivate.
type CompanyStatusUpdate struct {
	CompanyID int64 `json:"companyId"`
	IsActive  bool  `json:"isActive"`
}
