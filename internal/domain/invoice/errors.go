package invoice

import (
	"errors"
)

var (
	// ErrInvoiceNotFound is returned when an invoice is not found
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrInvoiceAlreadyExists is returned when persisting a draft whose id
	// already exists
	ErrInvoiceAlreadyExists = errors.New("invoice already exists")
)

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrInvoiceNotFound)
}
