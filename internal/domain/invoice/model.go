// Package invoice holds the invoice aggregate produced by the generation
// pass and the invoice-store collaborator interface used for idempotence
// checks and draft persistence.
package invoice

import (
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is an aggregate of line items for one account, one invoice date,
// one target date and one currency. Once persisted it is never edited
// retroactively; corrections are additive adjustment items.
type Invoice struct {
	ID            string              `json:"id"`
	InvoiceNumber string              `json:"invoice_number"`
	AccountID     string              `json:"account_id"`
	InvoiceDate   types.Date          `json:"invoice_date"`
	TargetDate    types.Date          `json:"target_date"`
	Currency      string              `json:"currency"`
	Status        types.InvoiceStatus `json:"status"`
	LineItems     []*LineItem         `json:"line_items"`
}

// NewDraft assembles a draft invoice from candidate line items. The caller
// guarantees a non-empty, single-currency item set.
func NewDraft(accountID string, invoiceDate, targetDate types.Date, items []*LineItem) (*Invoice, error) {
	if len(items) == 0 {
		return nil, ierr.NewError("draft invoice has no line items").
			WithHint("An empty candidate set produces no invoice, not an empty one").
			Mark(ierr.ErrInvalidOperation)
	}

	// Validate the whole candidate set before stamping anything so a bad
	// item leaves no candidate mutated.
	currency := items[0].Currency
	for _, item := range items {
		if item.Currency != currency {
			return nil, ierr.NewError("mixed currencies on draft invoice").
				WithHintf("item %s is in %s, invoice is in %s", item.ID, item.Currency, currency).
				Mark(ierr.ErrValidation)
		}
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}

	inv := &Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		InvoiceNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE),
		AccountID:     accountID,
		InvoiceDate:   invoiceDate,
		TargetDate:    targetDate,
		Currency:      currency,
		Status:        types.InvoiceStatusDraft,
	}
	for _, item := range items {
		item.InvoiceID = inv.ID
		item.AccountID = accountID
		inv.LineItems = append(inv.LineItems, item)
	}

	return inv, nil
}

// Total returns the sum of all line item amounts
func (inv *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.LineItems {
		total = total.Add(item.Amount)
	}
	return total
}

func (inv *Invoice) Validate() error {
	if inv.AccountID == "" {
		return ierr.NewError("invoice account id is required").
			WithHint("Invoice account id is required").
			Mark(ierr.ErrValidation)
	}
	if inv.TargetDate.IsZero() {
		return ierr.NewError("invoice target date is required").
			WithHint("Invoice target date is required").
			Mark(ierr.ErrValidation)
	}
	for _, item := range inv.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}
