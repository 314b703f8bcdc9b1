// Package billing defines the billing event timeline: the ordered sequence
// of subscription lifecycle transitions, each carrying the catalog pricing
// snapshot effective at that instant. The subscription engine producing
// these events is an external collaborator; this package only consumes them.
package billing

import (
	"github.com/flexprice/billrun/internal/domain/catalog"
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Event is an immutable billing event: one subscription lifecycle transition
// with the plan/phase pricing effective from that instant.
type Event struct {
	ID             string `json:"id"`
	AccountID      string `json:"account_id"`
	SubscriptionID string `json:"subscription_id"`

	// EffectiveDate is the calendar date (account timezone already applied)
	// the transition takes effect
	EffectiveDate types.Date `json:"effective_date"`

	// BillCycleDayLocal is the day-of-month recurring charges align to, as
	// seen for that subscription at that time
	BillCycleDayLocal int `json:"bill_cycle_day_local"`

	PlanName  string `json:"plan_name"`
	PhaseName string `json:"phase_name"`

	BillingPeriod  types.BillingPeriod  `json:"billing_period"`
	TransitionType types.TransitionType `json:"transition_type"`

	// FixedPrice is a one-time charge for the phase (nil when the phase has
	// none). Trial phases carry a zero fixed price.
	FixedPrice *decimal.Decimal `json:"fixed_price,omitempty"`

	// RecurringPrice is the per-period recurring charge (nil when the phase
	// has none)
	RecurringPrice *decimal.Decimal `json:"recurring_price,omitempty"`

	Currency string `json:"currency"`

	// TotalOrdering is a monotonically increasing key used strictly for
	// deterministic tie-breaking among same-instant events
	TotalOrdering int64 `json:"total_ordering"`

	// Usages are the usage sections active from this event onward
	Usages []catalog.Usage `json:"usages,omitempty"`

	Description string `json:"description,omitempty"`
}

func (e *Event) Validate() error {
	if e.SubscriptionID == "" {
		return ierr.NewError("billing event subscription id is required").
			WithHint("Billing event subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if e.EffectiveDate.IsZero() {
		return ierr.NewError("billing event effective date is required").
			WithHintf("billing event %s has no effective date", e.ID).
			Mark(ierr.ErrValidation)
	}
	if e.BillCycleDayLocal < 1 || e.BillCycleDayLocal > 31 {
		return ierr.NewError("billing event bill cycle day out of range").
			WithHintf("bill cycle day must be in [1, 31], got %d", e.BillCycleDayLocal).
			Mark(ierr.ErrValidation)
	}
	if err := e.TransitionType.Validate(); err != nil {
		return err
	}
	if e.RecurringPrice != nil || e.FixedPrice != nil {
		if err := e.BillingPeriod.Validate(); err != nil {
			return err
		}
	}
	for _, usage := range e.Usages {
		if err := usage.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Compare orders events by (effective date, total ordering key)
func (e *Event) Compare(other *Event) int {
	if c := e.EffectiveDate.Compare(other.EffectiveDate); c != 0 {
		return c
	}
	switch {
	case e.TotalOrdering < other.TotalOrdering:
		return -1
	case e.TotalOrdering > other.TotalOrdering:
		return 1
	default:
		return 0
	}
}

// ConsumableInArrearUsages returns the subset of the event's usage sections
// that are metered consumption billed in arrear, empty when there are none.
func (e *Event) ConsumableInArrearUsages() []catalog.Usage {
	return lo.Filter(e.Usages, func(u catalog.Usage, _ int) bool {
		return u.IsConsumableInArrear()
	})
}
