package usage

import (
	"fmt"

	"github.com/flexprice/billrun/internal/domain/billing"
	"github.com/flexprice/billrun/internal/domain/calendar"
	"github.com/flexprice/billrun/internal/domain/catalog"
	"github.com/flexprice/billrun/internal/domain/invoice"
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
	"github.com/shopspring/decimal"
)

// ContiguousInterval is a maximal time span during which a subscription's
// billing events continuously reference one usage section. It is derived
// fresh on every generation pass and never persisted. Intervals for the same
// usage section never overlap; at most one per section is open.
type ContiguousInterval struct {
	Usage          catalog.Usage
	SubscriptionID string

	// StartDate is the effective date of the first referencing event
	StartDate types.Date

	// EndDate is the effective date of the closing event, nil while the
	// interval is open (billing continues into the future)
	EndDate *types.Date

	Closed bool

	events            []*billing.Event
	rawUsage          []*RawUsageRecord
	targetDate        types.Date
	rawUsageStartDate types.Date
}

// Events returns the ordered billing events active during the interval. For
// a closed interval the last event is the closing boundary; the same event
// may also head the next interval for sections it references.
func (ci *ContiguousInterval) Events() []*billing.Event {
	return ci.events
}

// UsageRange is one billing-period sub-range inside a contiguous interval.
// Reconciliation is keyed by these exact (start, end) pairs, never by
// interval identity alone.
type UsageRange struct {
	StartDate types.Date
	EndDate   types.Date
}

// BillingRanges partitions the interval into billing-period sub-ranges: the
// leading stub from the interval start to the first aligned billing cycle
// date, then whole periods, then (for closed intervals) the trailing stub to
// the closing date. Only sub-ranges ending on or before the target date are
// returned; an open interval's in-progress trailing span is billed once its
// boundary is reached.
//
// Boundaries follow the event in effect: a mid-interval transition that
// moves the bill cycle day or the billing period realigns every boundary
// after it. The range straddling such a transition ends on the first
// boundary aligned to the new values.
func (ci *ContiguousInterval) BillingRanges() []UsageRange {
	limit := ci.targetDate
	if ci.Closed && ci.EndDate.Before(limit) {
		limit = *ci.EndDate
	}
	if !limit.After(ci.StartDate) {
		return nil
	}

	var ranges []UsageRange
	cur := ci.StartDate
	for i, event := range ci.events {
		spanEnd := limit
		if i+1 < len(ci.events) {
			if next := ci.events[i+1].EffectiveDate; next.Before(spanEnd) {
				spanEnd = next
			}
		}
		if !spanEnd.After(cur) {
			continue
		}

		months := event.BillingPeriod.Months()
		if months == 0 {
			// Events without a recurring price may omit the billing period;
			// usage in arrear settles monthly in that case.
			months = 1
		}
		bcd := event.BillCycleDayLocal

		// An unaligned cur gets a stub up to the first aligned date; an
		// aligned cur steps a whole period.
		boundary := calendar.BillingCycleDateOnOrAfter(cur, bcd)
		if boundary.Equal(cur) {
			boundary = calendar.BillingCycleDateOnOrAfter(cur.AddMonths(months), bcd)
		}
		for !boundary.After(spanEnd) {
			ranges = append(ranges, UsageRange{StartDate: cur, EndDate: boundary})
			cur = boundary
			boundary = calendar.BillingCycleDateOnOrAfter(boundary.AddMonths(months), bcd)
		}
	}

	if ci.Closed && cur.Before(limit) {
		ranges = append(ranges, UsageRange{StartDate: cur, EndDate: limit})
	}

	return ranges
}

// ComputeMissingItems reconciles the interval against what is already on
// disk: for each billing sub-range it aggregates the raw usage inside it,
// prices it, subtracts the amount already invoiced for the exact same
// sub-range and emits the positive residue. Re-running with unchanged inputs
// is a no-op.
func (ci *ContiguousInterval) ComputeMissingItems(existingItems []*invoice.LineItem) ([]*invoice.LineItem, error) {
	var items []*invoice.LineItem

	for _, rng := range ci.BillingRanges() {
		// Sub-ranges entirely before the raw usage rescan window would
		// aggregate to zero anyway; skip them outright so stale existing
		// coverage is never contradicted.
		if !rng.EndDate.After(ci.rawUsageStartDate) {
			continue
		}

		quantity := ci.quantityInRange(rng)
		if quantity.IsZero() {
			continue
		}

		gross, err := ci.Usage.PriceAmount(quantity)
		if err != nil {
			return nil, err
		}

		endDate := rng.EndDate
		billed := decimal.Zero
		for _, existing := range existingItems {
			if existing.CoversSameUsageRange(ci.SubscriptionID, ci.Usage.Name, rng.StartDate, &endDate) {
				billed = billed.Add(existing.Amount)
			}
		}

		currency := ci.events[0].Currency
		delta := gross.Sub(billed).Round(types.GetCurrencyPrecision(currency))
		if delta.LessThanOrEqual(decimal.Zero) {
			continue
		}

		items = append(items, &invoice.LineItem{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			SubscriptionID: ci.SubscriptionID,
			Type:           types.InvoiceItemTypeUsage,
			PlanName:       ci.events[0].PlanName,
			PhaseName:      ci.events[0].PhaseName,
			UsageName:      ci.Usage.Name,
			StartDate:      rng.StartDate,
			EndDate:        &endDate,
			Amount:         delta,
			Currency:       currency,
			Description:    fmt.Sprintf("%s usage (%s to %s)", ci.Usage.Name, rng.StartDate, rng.EndDate),
		})
	}

	return items, nil
}

// quantityInRange aggregates raw usage for the interval's unit type inside
// [start, end), excluding records before the rescan window start.
func (ci *ContiguousInterval) quantityInRange(rng UsageRange) decimal.Decimal {
	total := decimal.Zero
	for _, record := range ci.rawUsage {
		if record.UnitType != ci.Usage.UnitType {
			continue
		}
		if record.Date.Before(ci.rawUsageStartDate) {
			continue
		}
		if record.Date.Before(rng.StartDate) || !record.Date.Before(rng.EndDate) {
			continue
		}
		total = total.Add(record.Amount)
	}
	return total
}

// intervalAccumulator collects the billing events of one in-flight interval
// while the segmenter walks the timeline.
type intervalAccumulator struct {
	usage             catalog.Usage
	subscriptionID    string
	events            []*billing.Event
	rawUsage          []*RawUsageRecord
	targetDate        types.Date
	rawUsageStartDate types.Date
}

func newIntervalAccumulator(u catalog.Usage, subscriptionID string, rawUsage []*RawUsageRecord, targetDate, rawUsageStartDate types.Date) *intervalAccumulator {
	return &intervalAccumulator{
		usage:             u,
		subscriptionID:    subscriptionID,
		rawUsage:          rawUsage,
		targetDate:        targetDate,
		rawUsageStartDate: rawUsageStartDate,
	}
}

func (a *intervalAccumulator) addEvent(event *billing.Event) {
	a.events = append(a.events, event)
}

func (a *intervalAccumulator) build(closed bool) (*ContiguousInterval, error) {
	if len(a.events) == 0 {
		return nil, ierr.NewError("usage interval has no billing events").
			WithHintf("usage section '%s' interval built without events", a.usage.Name).
			Mark(ierr.ErrSystem)
	}

	interval := &ContiguousInterval{
		Usage:             a.usage,
		SubscriptionID:    a.subscriptionID,
		StartDate:         a.events[0].EffectiveDate,
		Closed:            closed,
		events:            a.events,
		rawUsage:          a.rawUsage,
		targetDate:        a.targetDate,
		rawUsageStartDate: a.rawUsageStartDate,
	}
	if closed {
		end := a.events[len(a.events)-1].EffectiveDate
		interval.EndDate = &end
	}
	return interval, nil
}
