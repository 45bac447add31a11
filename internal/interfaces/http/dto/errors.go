package dto

import "net/http"

// Error codes used across the API. Domain errors carry these directly.
const (
	ErrCodeInternal = "INTERNAL"

	ErrCodeValidation   = "VALIDATION"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeBadRequest   = "BAD_REQUEST"

	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"

	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"

	ErrCodePreconditionFailed  = "PRECONDITION_FAILED"
	ErrCodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes. Failed state
// preconditions answer 400, matching what checkout and admin clients expect.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodePreconditionFailed:  http.StatusBadRequest,
	ErrCodePayloadTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeUpstreamUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes answer 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
