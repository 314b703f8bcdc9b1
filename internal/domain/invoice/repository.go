package invoice

import (
	"context"
)

// Repository is the invoice-store collaborator. It supplies previously
// persisted line items for idempotence checks and persists assembled drafts.
type Repository interface {
	// GetLineItemsByAccount returns every persisted line item for the
	// account, across all of its invoices.
	GetLineItemsByAccount(ctx context.Context, accountID string) ([]*LineItem, error)

	// CreateDraft persists a draft invoice and all of its line items as one
	// unit. Either the full draft is committed or nothing is.
	CreateDraft(ctx context.Context, inv *Invoice) error
}
