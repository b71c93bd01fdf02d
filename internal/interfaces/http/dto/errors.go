package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeUnknownResource is used for admin resources missing from the catalog
	ErrCodeUnknownResource = "ERR_UNKNOWN_RESOURCE"
	// ErrCodeSessionNotFound is used when a table view is closed or expired
	ErrCodeSessionNotFound = "ERR_SESSION_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Table error codes
const (
	// ErrCodeInvalidSort is used when sorting by a column that is not sortable
	ErrCodeInvalidSort = "ERR_INVALID_SORT"
	// ErrCodeInvalidColumn is used when a filter names an undeclared column
	ErrCodeInvalidColumn = "ERR_INVALID_COLUMN"
	// ErrCodeInvalidAction is used when a table action is malformed
	ErrCodeInvalidAction = "ERR_INVALID_ACTION"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Upstream error codes
const (
	// ErrCodeUpstreamUnavailable is used when the remote API is down
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
	// ErrCodeUpstreamFailed is used when the remote API rejects a request
	ErrCodeUpstreamFailed = "ERR_UPSTREAM_FAILED"
	// ErrCodeUpstreamInvalid is used when the remote API answers garbage
	ErrCodeUpstreamInvalid = "ERR_UPSTREAM_INVALID_RESPONSE"
)

// Capacity error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManySessions is used when the table view cap is reached
	ErrCodeTooManySessions = "ERR_TOO_MANY_SESSIONS"
	// ErrCodeMaxConnections is used when the event stream cap is reached
	ErrCodeMaxConnections = "ERR_MAX_CONNECTIONS_REACHED"
	// ErrCodeUnhealthy is used when a health check fails
	ErrCodeUnhealthy = "ERR_SERVICE_UNHEALTHY"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeUnknownResource: http.StatusNotFound,
	ErrCodeSessionNotFound: http.StatusNotFound,
	ErrCodeConflict:        http.StatusConflict,

	// Table errors -> 400 Bad Request
	ErrCodeInvalidSort:   http.StatusBadRequest,
	ErrCodeInvalidColumn: http.StatusBadRequest,
	ErrCodeInvalidAction: http.StatusBadRequest,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Upstream errors -> 502/503
	ErrCodeUpstreamUnavailable: http.StatusServiceUnavailable,
	ErrCodeUpstreamFailed:      http.StatusBadGateway,
	ErrCodeUpstreamInvalid:     http.StatusBadGateway,

	// Capacity errors
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManySessions: http.StatusTooManyRequests,
	ErrCodeMaxConnections:  http.StatusServiceUnavailable,
	ErrCodeUnhealthy:       http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"VALIDATION_ERROR": ErrCodeValidation,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,
	"UNKNOWN_RESOURCE": ErrCodeUnknownResource,
	"INVALID_SORT":     ErrCodeInvalidSort,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
