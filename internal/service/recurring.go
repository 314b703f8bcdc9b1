package service

import (
	"fmt"

	"github.com/flexprice/billrun/internal/domain/billing"
	"github.com/flexprice/billrun/internal/domain/calendar"
	"github.com/flexprice/billrun/internal/domain/invoice"
	"github.com/flexprice/billrun/internal/types"
	"github.com/shopspring/decimal"
)

// computeFixedAndRecurringItems produces the FIXED and RECURRING candidate
// items of one subscription up to the target date, deduplicated against the
// items already on disk. Recurring charges are billed in advance: a leading
// stub from the phase start to the first aligned billing cycle date, whole
// periods after that, and a trailing stub when a later event cuts the last
// period short.
func computeFixedAndRecurringItems(timeline *billing.Timeline, targetDate types.Date, existingItems []*invoice.LineItem) ([]*invoice.LineItem, error) {
	var items []*invoice.LineItem

	events := timeline.Events()
	billingDisabled := false

	for i, event := range events {
		switch event.TransitionType {
		case types.TransitionStartBillingDisable:
			billingDisabled = true
			continue
		case types.TransitionEndBillingDisable:
			billingDisabled = false
		case types.TransitionCancel:
			// The cancel date bounds the previous span; the event itself
			// bills nothing.
			continue
		}
		if billingDisabled {
			continue
		}
		if event.EffectiveDate.After(targetDate) {
			continue
		}

		// The span of this event ends where the next event takes over.
		var spanEnd *types.Date
		if i+1 < len(events) {
			end := events[i+1].EffectiveDate
			spanEnd = &end
		}

		if event.FixedPrice != nil {
			item := buildFixedItem(event, existingItems)
			if item != nil {
				items = append(items, item)
			}
		}

		if event.RecurringPrice != nil && !event.RecurringPrice.IsZero() {
			recurring, err := buildRecurringItems(event, spanEnd, targetDate, existingItems)
			if err != nil {
				return nil, err
			}
			items = append(items, recurring...)
		}
	}

	return items, nil
}

// buildFixedItem returns the one-time charge of the event's phase, or nil
// when the same charge is already invoiced. Trial phases legitimately carry
// a zero fixed price and still produce an item.
func buildFixedItem(event *billing.Event, existingItems []*invoice.LineItem) *invoice.LineItem {
	for _, existing := range existingItems {
		if existing.Type == types.InvoiceItemTypeFixed &&
			existing.SubscriptionID == event.SubscriptionID &&
			existing.PhaseName == event.PhaseName &&
			existing.StartDate.Equal(event.EffectiveDate) {
			return nil
		}
	}

	return &invoice.LineItem{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
		SubscriptionID: event.SubscriptionID,
		Type:           types.InvoiceItemTypeFixed,
		PlanName:       event.PlanName,
		PhaseName:      event.PhaseName,
		StartDate:      event.EffectiveDate,
		Amount:         *event.FixedPrice,
		Currency:       event.Currency,
		Description:    fmt.Sprintf("%s (fixed price)", event.PhaseName),
	}
}

// buildRecurringItems bills the event's recurring price in advance from the
// event date until the effective end of its span.
func buildRecurringItems(event *billing.Event, spanEnd *types.Date, targetDate types.Date, existingItems []*invoice.LineItem) ([]*invoice.LineItem, error) {
	var items []*invoice.LineItem

	period := event.BillingPeriod
	months := period.Months()
	price := *event.RecurringPrice

	firstBCD := calendar.BillingCycleDateOnOrAfter(event.EffectiveDate, event.BillCycleDayLocal)
	effectiveEnd := calendar.EffectiveEndDate(firstBCD, targetDate, spanEnd, period)

	appendItem := func(start, end types.Date, amount decimal.Decimal) {
		amount = amount.Round(types.GetCurrencyPrecision(event.Currency))
		if amount.IsZero() {
			return
		}
		for _, existing := range existingItems {
			if existing.Type == types.InvoiceItemTypeRecurring &&
				existing.SubscriptionID == event.SubscriptionID &&
				existing.StartDate.Equal(start) &&
				existing.EndDate != nil && existing.EndDate.Equal(end) {
				return
			}
		}
		endDate := end
		items = append(items, &invoice.LineItem{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			SubscriptionID: event.SubscriptionID,
			Type:           types.InvoiceItemTypeRecurring,
			PlanName:       event.PlanName,
			PhaseName:      event.PhaseName,
			StartDate:      start,
			EndDate:        &endDate,
			Amount:         amount,
			Currency:       event.Currency,
			Description:    fmt.Sprintf("%s (%s to %s)", event.PhaseName, start, endDate),
		})
	}

	// Leading stub before the first aligned billing cycle date.
	if event.EffectiveDate.Before(firstBCD) {
		stubEnd := types.MinDate(firstBCD, effectiveEnd)
		fraction, err := calendar.ProrationBetweenDates(event.EffectiveDate, stubEnd, firstBCD.AddMonths(-months), firstBCD)
		if err != nil {
			return nil, err
		}
		appendItem(event.EffectiveDate, stubEnd, price.Mul(fraction))
	}

	// Whole periods from the first aligned date.
	cur := firstBCD
	next := calendar.BillingCycleDateOnOrAfter(cur.AddMonths(months), event.BillCycleDayLocal)
	for !cur.After(effectiveEnd) && !next.After(effectiveEnd) {
		appendItem(cur, next, price)
		cur = next
		next = calendar.BillingCycleDateOnOrAfter(next.AddMonths(months), event.BillCycleDayLocal)
	}

	// Trailing stub when the span's hard end cuts the last period short.
	if cur.Before(effectiveEnd) {
		fraction, err := calendar.ProrationAfterLastBillingCycleDate(effectiveEnd, cur, period)
		if err != nil {
			return nil, err
		}
		appendItem(cur, effectiveEnd, price.Mul(fraction))
	}

	return items, nil
}
