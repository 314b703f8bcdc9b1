package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound            = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists       = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation          = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation    = new(ErrCodeInvalidOperation, "invalid operation")
	ErrEventOrdering       = new(ErrCodeEventOrdering, "billing events out of order")
	ErrInvalidDateSequence = new(ErrCodeInvalidDateSequence, "invalid date sequence")
	ErrCatalog             = new(ErrCodeCatalog, "catalog lookup error")
	ErrLockTimeout         = new(ErrCodeLockTimeout, "lock acquisition timed out")
	ErrDatabase            = new(ErrCodeDatabase, "database error")
	ErrSystem              = new(ErrCodeSystemError, "system error")
)

const (
	ErrCodeSystemError         = "system_error"
	ErrCodeNotFound            = "not_found"
	ErrCodeAlreadyExists       = "already_exists"
	ErrCodeValidation          = "validation_error"
	ErrCodeInvalidOperation    = "invalid_operation"
	ErrCodeEventOrdering       = "event_ordering_violation"
	ErrCodeInvalidDateSequence = "invalid_date_sequence"
	ErrCodeCatalog             = "catalog_error"
	ErrCodeLockTimeout         = "lock_timeout"
	ErrCodeDatabase            = "database_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// new creates a new InternalError
func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsEventOrdering checks if an error is an event ordering precondition violation
func IsEventOrdering(err error) bool {
	return errors.Is(err, ErrEventOrdering)
}

// IsInvalidDateSequence checks if an error is an invalid date sequence error
func IsInvalidDateSequence(err error) bool {
	return errors.Is(err, ErrInvalidDateSequence)
}

// IsCatalog checks if an error is a catalog lookup error
func IsCatalog(err error) bool {
	return errors.Is(err, ErrCatalog)
}

// IsLockTimeout checks if an error is a lock timeout error.
// Lock timeouts are retryable; the caller decides the retry policy.
func IsLockTimeout(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}

// IsRetryable reports whether the operation may be retried as-is
func IsRetryable(err error) bool {
	return IsLockTimeout(err)
}
