package invoice

import (
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem is a single invoice line item. The Type field discriminates the
// variant; usage items additionally carry the usage section name and the
// interval they cover.
type LineItem struct {
	ID             string  `json:"id"`
	InvoiceID      string  `json:"invoice_id"`
	AccountID      string  `json:"account_id"`
	SubscriptionID string  `json:"subscription_id,omitempty"`
	BundleID       *string `json:"bundle_id,omitempty"`

	Type types.InvoiceItemType `json:"type"`

	PlanName  string `json:"plan_name,omitempty"`
	PhaseName string `json:"phase_name,omitempty"`

	// UsageName is set on USAGE items only
	UsageName string `json:"usage_name,omitempty"`

	StartDate types.Date  `json:"start_date"`
	EndDate   *types.Date `json:"end_date,omitempty"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	Description string `json:"description,omitempty"`
}

func (i *LineItem) Validate() error {
	if err := i.Type.Validate(); err != nil {
		return err
	}

	if i.StartDate.IsZero() {
		return ierr.NewError("invoice line item start date is required").
			WithHint("Invoice line item start date is required").
			Mark(ierr.ErrValidation)
	}

	if i.EndDate != nil && i.EndDate.Before(i.StartDate) {
		return ierr.NewError("invoice line item period is inverted").
			WithHintf("end date %s is before start date %s", i.EndDate, i.StartDate).
			Mark(ierr.ErrValidation)
	}

	// Usage cannot produce a credit; credits come from adjustment items.
	if !i.Type.IsAdjustment() && i.Amount.IsNegative() {
		return ierr.NewError("invoice line item amount is negative").
			WithHintf("%s items must have a non-negative amount, got %s", i.Type, i.Amount).
			Mark(ierr.ErrValidation)
	}

	if i.Type == types.InvoiceItemTypeUsage && i.UsageName == "" {
		return ierr.NewError("usage line item has no usage section name").
			WithHint("Usage line items must reference a usage section").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// CoversSameUsageRange reports whether the item is a USAGE item for the same
// subscription, usage section and exact (start, end) sub-range. Idempotent
// reconciliation keys coverage by this identity, never by interval identity
// alone.
func (i *LineItem) CoversSameUsageRange(subscriptionID, usageName string, startDate types.Date, endDate *types.Date) bool {
	if i.Type != types.InvoiceItemTypeUsage {
		return false
	}
	if i.SubscriptionID != subscriptionID || i.UsageName != usageName {
		return false
	}
	if !i.StartDate.Equal(startDate) {
		return false
	}
	if (i.EndDate == nil) != (endDate == nil) {
		return false
	}
	return i.EndDate == nil || i.EndDate.Equal(*endDate)
}
