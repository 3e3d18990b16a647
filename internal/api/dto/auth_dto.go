package dto

import "github.com/spec-kit/recovery-portal/internal/domain"

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the upstream auth endpoint's reply.
type LoginResponse struct {
	Token string      `json:"token"`
	Role  domain.Role `json:"role"`
}

// RegisterCompanyRequest payload for company self-registration.
type RegisterCompanyRequest struct {
	CompanyName  string `json:"companyName"`
	GSTNumber    string `json:"gstNumber,omitempty"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone,omitempty"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// RegisterCompanyResponse is the upstream registration reply. Registration
// never logs the caller in.
type RegisterCompanyResponse struct {
	CompanyID        int64  `json:"companyId"`
	CompanyName      string `json:"companyName"`
	Message          string `json:"message"`
	RequiresApproval bool   `json:"requiresApproval"`
}

// LoginPageState is what the login screen needs to alter its messaging and
// post-login destination.
type LoginPageState struct {
	ReturnURL      string `json:"returnUrl,omitempty"`
	SessionExpired bool   `json:"sessionExpired"`
}
