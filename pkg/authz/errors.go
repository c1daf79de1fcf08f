package authz

import (
	"errors"
	"fmt"
	"net/http"
)

// AccessDeniedMessage is the fixed message for ownership denials.
const AccessDeniedMessage = "Access denied: You do not own this resource"

// Authorization error codes.
const (
	ErrCodeForbidden           = "authz.forbidden"             // Ownership check failed or unknown type
	ErrCodeMissingCaller       = "authz.missing_caller"        // No authenticated caller
	ErrCodeMissingResourceID   = "authz.missing_resource_id"   // No id/resourceId/userId parameter
	ErrCodeMissingResourceType = "authz.missing_resource_type" // Route declared no resource type
	ErrCodeInternal            = "authz.internal"              // Directory failure
)

// httpStatusMap maps error codes to HTTP status codes.
var httpStatusMap = map[string]int{
	ErrCodeForbidden:           http.StatusForbidden,           // 403
	ErrCodeMissingCaller:       http.StatusUnauthorized,        // 401
	ErrCodeMissingResourceID:   http.StatusBadRequest,          // 400
	ErrCodeMissingResourceType: http.StatusBadRequest,          // 400
	ErrCodeInternal:            http.StatusInternalServerError, // 500
}

// AuthzError represents an authorization error with a structured code.
type AuthzError struct {
	Code    string // One of the ErrCode* constants
	Message string // Human-readable error description
	Status  int    // HTTP status code
}

// Error implements the error interface.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *AuthzError) HTTPStatus() int {
	return e.Status
}

func newError(code, message string) *AuthzError {
	return &AuthzError{
		Code:    code,
		Message: message,
		Status:  httpStatusMap[code],
	}
}

// ErrForbidden is returned for not-owner and unknown-type denials.
func ErrForbidden() *AuthzError {
	return newError(ErrCodeForbidden, AccessDeniedMessage)
}

// ErrMissingCaller is returned when no caller is attached to the request.
func ErrMissingCaller() *AuthzError {
	return newError(ErrCodeMissingCaller, "authentication required")
}

// ErrMissingResourceID is returned when the request names no resource.
func ErrMissingResourceID() *AuthzError {
	return newError(ErrCodeMissingResourceID, "resource id is required")
}

// ErrMissingResourceType is returned when the route declared no resource type.
func ErrMissingResourceType() *AuthzError {
	return newError(ErrCodeMissingResourceType, "resource type is not configured for this route")
}

// ErrInternal wraps a directory failure for the HTTP boundary.
// The detail is logged, never sent to the client.
func ErrInternal() *AuthzError {
	return newError(ErrCodeInternal, "internal error")
}

// ErrorCode extracts the authz error code from an error.
// Returns empty string if the error is not an AuthzError.
func ErrorCode(err error) string {
	var authzErr *AuthzError
	if errors.As(err, &authzErr) {
		return authzErr.Code
	}
	return ""
}

// IsForbidden reports whether err is an ownership denial.
func IsForbidden(err error) bool {
	return ErrorCode(err) == ErrCodeForbidden
}
