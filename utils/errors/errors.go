package errors

import (
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrInvalidInput = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrUnauthorized = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden    = NewAPIError("FORBIDDEN", "Not authorized to perform this action", http.StatusForbidden)
	ErrNotFound     = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrInternal     = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// BadRequest builds a validation or conflict error. Duplicate joins, self-follows
// and capacity failures all surface as 400 with a short human-readable message.
func BadRequest(message string) *APIError {
	return NewAPIError("BAD_REQUEST", message, http.StatusBadRequest)
}

// NotFound builds a 404 with a resource-specific message. Also used for resources
// that exist but are not owned by the caller, to avoid leaking existence.
func NotFound(message string) *APIError {
	return NewAPIError("NOT_FOUND", message, http.StatusNotFound)
}

// Forbidden builds a 403 for authenticated but unauthorized callers.
func Forbidden(message string) *APIError {
	return NewAPIError("FORBIDDEN", message, http.StatusForbidden)
}

func Wrap(err error, code, message string, status int) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}
