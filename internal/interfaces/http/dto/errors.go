package dto

import (
	"net/http"

	"github.com/siocms/backend/internal/domain/shared"
)

// Error code constants returned by the admin API
// Format: ERR_<CATEGORY>
const (
	ErrCodeInternal          = "ERR_INTERNAL"
	ErrCodeValidation        = "ERR_VALIDATION"
	ErrCodeNotFound          = "ERR_NOT_FOUND"
	ErrCodePersistence       = "ERR_PERSISTENCE"
	ErrCodeSecondaryResource = "ERR_SECONDARY_RESOURCE"
	ErrCodeInvalidInput      = "ERR_INVALID_INPUT"
	ErrCodeRolledBack        = "ERR_ROLLED_BACK"
	ErrCodeBadRequest        = "ERR_BAD_REQUEST"
	ErrCodeRequestTooLarge   = "ERR_REQUEST_TOO_LARGE"
)

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeValidationFailed:        ErrCodeValidation,
	shared.CodeNotFound:                ErrCodeNotFound,
	shared.CodePersistenceFailed:       ErrCodePersistence,
	shared.CodeSecondaryResourceFailed: ErrCodeSecondaryResource,
	shared.CodeInvalidInput:            ErrCodeInvalidInput,
	shared.CodeRolledBack:              ErrCodeRolledBack,
}

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:          http.StatusInternalServerError,
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodePersistence:       http.StatusInternalServerError,
	ErrCodeSecondaryResource: http.StatusBadGateway,
	ErrCodeInvalidInput:      http.StatusBadRequest,
	ErrCodeRolledBack:        http.StatusConflict,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeRequestTooLarge:   http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code to its API form.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
