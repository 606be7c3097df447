// Package domain defines the core domain models for x2conn.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain error with a structured error code.
// Codes are grouped by category prefix (X2-CFG, X2-AUTH, X2-REQ, X2-RENEW).
type DomainError struct {
	Code    string // Error code (e.g., "X2-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Category prefixes.
const (
	categoryConfig  = "X2-CFG-"
	categoryAuth    = "X2-AUTH-"
	categoryRequest = "X2-REQ-"
	categoryRenewal = "X2-RENEW-"
)

func hasCategory(err error, prefix string) bool {
	return strings.HasPrefix(GetErrorCode(err), prefix)
}

// IsConfigError reports whether err is an unresolvable or malformed configuration error.
func IsConfigError(err error) bool { return hasCategory(err, categoryConfig) }

// IsAuthError reports whether err is an authentication error.
func IsAuthError(err error) bool { return hasCategory(err, categoryAuth) }

// IsRequestError reports whether err is a transport-level request error.
func IsRequestError(err error) bool { return hasCategory(err, categoryRequest) }

// IsRenewalFailure reports whether err is a token renewal failure.
func IsRenewalFailure(err error) bool { return hasCategory(err, categoryRenewal) }

// ============================================================================
// Configuration Errors (CFG)
// ============================================================================

var (
	// ErrNotInitialized indicates an operation needing the API endpoint ran before Init.
	ErrNotInitialized = NewDomainError("X2-CFG-1000", "connector not initialized")

	// ErrConfigUnresolvable indicates neither an http config nor a config path was supplied.
	ErrConfigUnresolvable = NewDomainError("X2-CFG-1001", "no configuration source")

	// ErrConfigFetch indicates the remote configuration could not be fetched.
	ErrConfigFetch = NewDomainError("X2-CFG-1002", "config fetch failed")

	// ErrConfigConflict indicates a re-initialization disagreeing with the resolved config.
	ErrConfigConflict = NewDomainError("X2-CFG-1003", "conflicting re-initialization")

	// ErrConfigMalformed indicates the configuration is present but invalid.
	ErrConfigMalformed = NewDomainError("X2-CFG-1004", "malformed configuration")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrUnauthenticated indicates a protected operation was called without a token.
	ErrUnauthenticated = NewDomainError("X2-AUTH-4010", "not authenticated")

	// ErrInvalidCredentials indicates the login was rejected.
	ErrInvalidCredentials = NewDomainError("X2-AUTH-4011", "login rejected")

	// ErrTokenRejected indicates the server rejected the current token.
	ErrTokenRejected = NewDomainError("X2-AUTH-4012", "token rejected")
)

// ============================================================================
// Request Errors (REQ)
// ============================================================================

var (
	// ErrRequestFailed indicates a non-2xx response.
	ErrRequestFailed = NewDomainError("X2-REQ-4000", "request failed")

	// ErrTransport indicates the request never produced a response.
	ErrTransport = NewDomainError("X2-REQ-5000", "transport error")
)

// ============================================================================
// Renewal Errors (RENEW)
// ============================================================================

// ErrRenewalFailed indicates the token renewal call failed. It is never
// returned to callers; the manager converts it into a logout.
var ErrRenewalFailed = NewDomainError("X2-RENEW-5000", "token renewal failed")
