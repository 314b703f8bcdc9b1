package types

import (
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/samber/lo"
)

// InvoiceItemType discriminates invoice line item variants
type InvoiceItemType string

const (
	InvoiceItemTypeFixed     InvoiceItemType = "FIXED"
	InvoiceItemTypeRecurring InvoiceItemType = "RECURRING"
	InvoiceItemTypeUsage     InvoiceItemType = "USAGE"
	InvoiceItemTypeItemAdj   InvoiceItemType = "ITEM_ADJ"
	InvoiceItemTypeRefundAdj InvoiceItemType = "REFUND_ADJ"
	InvoiceItemTypeCBAAdj    InvoiceItemType = "CBA_ADJ"
)

func (t InvoiceItemType) String() string {
	return string(t)
}

// IsAdjustment reports whether the item type is an adjustment appended to an
// already persisted invoice
func (t InvoiceItemType) IsAdjustment() bool {
	return t == InvoiceItemTypeItemAdj ||
		t == InvoiceItemTypeRefundAdj ||
		t == InvoiceItemTypeCBAAdj
}

func (t InvoiceItemType) Validate() error {
	allowedValues := []InvoiceItemType{
		InvoiceItemTypeFixed,
		InvoiceItemTypeRecurring,
		InvoiceItemTypeUsage,
		InvoiceItemTypeItemAdj,
		InvoiceItemTypeRefundAdj,
		InvoiceItemTypeCBAAdj,
	}

	if !lo.Contains(allowedValues, t) {
		return ierr.NewError("invalid invoice item type").
			WithHint("Invalid invoice item type").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": t,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// InvoiceStatus is the lifecycle status of an invoice. The core only ever
// produces drafts; finalization is the invoice store's concern.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusCommitted InvoiceStatus = "COMMITTED"
	InvoiceStatusVoided    InvoiceStatus = "VOIDED"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowedValues := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusCommitted,
		InvoiceStatusVoided,
	}

	if !lo.Contains(allowedValues, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Invalid invoice status").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": s,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
