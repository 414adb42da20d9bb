package shared

import (
	"errors"
	"strings"
)

// Error codes used across the CMS core
const (
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeNotFound                = "NOT_FOUND"
	CodePersistenceFailed       = "PERSISTENCE_FAILED"
	CodeSecondaryResourceFailed = "SECONDARY_RESOURCE_FAILED"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeRolledBack              = "ROLLED_BACK"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets errors.Is(err, ErrNotFound) match errors carrying extra details.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrValidation        = NewDomainError(CodeValidationFailed, "Validation failed")
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrPersistence       = NewDomainError(CodePersistenceFailed, "Storage rejected the operation")
	ErrSecondaryResource = NewDomainError(CodeSecondaryResourceFailed, "Secondary resource operation failed")
	ErrInvalidInput      = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrRolledBack        = NewDomainError(CodeRolledBack, "Transaction was rolled back")
)

// NewValidationError aggregates field-level validation messages into one error
func NewValidationError(details []string) *DomainError {
	return &DomainError{
		Code:    CodeValidationFailed,
		Message: ErrValidation.Message,
		Details: append([]string(nil), details...),
	}
}

// NewNotFoundError creates a not-found error for the named resource
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: resource + " not found",
	}
}

// NewPersistenceError wraps a storage engine fault
func NewPersistenceError(op string, cause error) *DomainError {
	return &DomainError{
		Code:    CodePersistenceFailed,
		Message: op + " failed",
		Details: causeDetails(cause),
		cause:   cause,
	}
}

// NewSecondaryResourceError wraps a file store or configuration collaborator fault
func NewSecondaryResourceError(op string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeSecondaryResourceFailed,
		Message: op + " failed",
		Details: causeDetails(cause),
		cause:   cause,
	}
}

func causeDetails(cause error) []string {
	if cause == nil {
		return nil
	}
	return []string{cause.Error()}
}

// IsNotFound reports whether err is a NotFound domain error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a validation domain error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
