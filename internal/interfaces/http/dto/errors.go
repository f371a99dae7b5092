package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Payment and gateway error codes
const (
	// ErrCodeGatewayUnavailable is used when the payment provider is unreachable
	ErrCodeGatewayUnavailable = "ERR_GATEWAY_UNAVAILABLE"
	// ErrCodeNoPaymentMethod is used when no active card brand matches a BIN
	ErrCodeNoPaymentMethod = "ERR_NO_PAYMENT_METHOD"
	// ErrCodeNotificationRejected is used when a webhook payload fails validation
	ErrCodeNotificationRejected = "ERR_NOTIFICATION_REJECTED"
	// ErrCodeNotificationFailed is used when reconciliation failed and the
	// provider should redeliver
	ErrCodeNotificationFailed = "ERR_NOTIFICATION_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeGatewayUnavailable:   http.StatusBadGateway,
	ErrCodeNoPaymentMethod:      http.StatusNotFound,
	ErrCodeNotificationRejected: http.StatusBadRequest,
	ErrCodeNotificationFailed:   http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to transport codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeInvalidState,
	"INVALID_INPUT":  ErrCodeInvalidInput,
	"INVALID_STATE":  ErrCodeInvalidState,
	"INTERNAL_ERROR": ErrCodeInternal,

	"INVALID_AMOUNT":            ErrCodeInvalidInput,
	"INVALID_CLIENT_IDENTIFIER": ErrCodeInvalidInput,
	"INVALID_PAYMENT_REFERENCE": ErrCodeInvalidInput,
	"INVALID_GRANT_DURATION":    ErrCodeInvalidInput,
	"INVALID_TAX_ID":            ErrCodeInvalidInput,
	"INVALID_EMAIL":             ErrCodeInvalidInput,
	"STATUS_REGRESSION":         ErrCodeInvalidState,
}

// NormalizeErrorCode converts a domain error code to the transport format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if mapped, ok := DomainErrorCodeMapping[code]; ok {
		return mapped
	}
	return code
}
