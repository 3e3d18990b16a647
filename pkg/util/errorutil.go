package util

import (
	"errors"
	"fmt"
	"net/http"
)

// PortalError standardizes application errors surfaced by the gateway.
type PortalError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *PortalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PortalError) Unwrap() error {
	return e.Err
}

// NewPortalError constructs a PortalError.
func NewPortalError(code, message string, status int, details map[string]any) *PortalError {
	return &PortalError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewInvalidCredentials marks a rejected login attempt. No stored state changes.
func NewInvalidCredentials() error {
	return NewPortalError("INVALID_CREDENTIALS", "invalid username or password", http.StatusUnauthorized, nil)
}

// NewUnreachable marks a transport-level failure reaching the platform API.
func NewUnreachable(err error) error {
	return &PortalError{
		Code:       "UNREACHABLE",
		Message:    "platform api unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewValidationFailed carries the upstream-provided message when available.
func NewValidationFailed(message string, details map[string]any) error {
	if message == "" {
		message = "validation failed"
	}
	return NewPortalError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewSessionExpired marks a 401 on an authenticated call. The forced-logout
// side effect has already completed by the time this error is observed.
func NewSessionExpired() error {
	return NewPortalError("SESSION_EXPIRED", "session expired", http.StatusUnauthorized, nil)
}

func NewNotFound(resource string) error {
	return NewPortalError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewForbidden(message string) error {
	return NewPortalError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &PortalError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToPortalError converts generic errors to PortalError.
func ToPortalError(err error) *PortalError {
	if err == nil {
		return nil
	}
	var portalErr *PortalError
	if errors.As(err, &portalErr) {
		return portalErr
	}
	return &PortalError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsKind reports whether err carries the given portal error code.
func IsKind(err error, code string) bool {
	var portalErr *PortalError
	if !errors.As(err, &portalErr) {
		return false
	}
	return portalErr.Code == code
}

// IsSessionExpired reports whether err is the forced-logout error kind.
func IsSessionExpired(err error) bool {
	return IsKind(err, "SESSION_EXPIRED")
}

// IsUnreachable reports whether err is a transport-level failure.
func IsUnreachable(err error) bool {
	return IsKind(err, "UNREACHABLE")
}
