package testutil

import (
	"context"

	"github.com/flexprice/billrun/internal/domain/invoice"
)

// InMemoryInvoiceStore implements invoice.Repository for tests
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

// CreateDraft implements invoice.Repository. The draft and all of its line
// items are stored as one unit.
func (s *InMemoryInvoiceStore) CreateDraft(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := s.Create(ctx, inv.ID, inv); err != nil {
		return invoice.ErrInvoiceAlreadyExists
	}
	return nil
}

// GetLineItemsByAccount implements invoice.Repository
func (s *InMemoryInvoiceStore) GetLineItemsByAccount(ctx context.Context, accountID string) ([]*invoice.LineItem, error) {
	invoices, err := s.List(ctx, nil, func(ctx context.Context, inv *invoice.Invoice, _ interface{}) bool {
		return inv.AccountID == accountID
	}, func(i, j *invoice.Invoice) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}

	var items []*invoice.LineItem
	for _, inv := range invoices {
		items = append(items, inv.LineItems...)
	}
	return items, nil
}
