package usage

import (
	"github.com/flexprice/billrun/internal/domain/billing"
	"github.com/flexprice/billrun/internal/domain/invoice"
	"github.com/flexprice/billrun/internal/types"
	"github.com/samber/lo"
)

// SubscriptionUsageInArrear computes the missing usage invoice items of one
// subscription. There is one instance per subscription referenced in the
// billing events of a generation pass.
type SubscriptionUsageInArrear struct {
	timeline *billing.Timeline

	// rawUsage is the subscription's raw usage sorted by (date, unit, id)
	rawUsage []*RawUsageRecord

	targetDate types.Date

	// rawUsageStartDate bounds how far back raw usage is rescanned. Records
	// before it are excluded even when they fall inside a logically open
	// interval; see config.BillingConfig.MaxRawUsagePreviousPeriod.
	rawUsageStartDate types.Date
}

// NewSubscriptionUsageInArrear extracts the subscription's raw usage from
// the account-wide records and sorts it.
func NewSubscriptionUsageInArrear(timeline *billing.Timeline, rawUsage []*RawUsageRecord, targetDate, rawUsageStartDate types.Date) *SubscriptionUsageInArrear {
	records := lo.Filter(rawUsage, func(r *RawUsageRecord, _ int) bool {
		return r.SubscriptionID == timeline.SubscriptionID()
	})
	records = append([]*RawUsageRecord{}, records...)
	SortRecords(records)

	return &SubscriptionUsageInArrear{
		timeline:          timeline,
		rawUsage:          records,
		targetDate:        targetDate,
		rawUsageStartDate: rawUsageStartDate,
	}
}

// ComputeMissingItems figures out, based on the billing events, the existing
// on-disk usage items and the target date, what usage remains to be billed.
func (s *SubscriptionUsageInArrear) ComputeMissingItems(existingItems []*invoice.LineItem) ([]*invoice.LineItem, error) {
	intervals, err := s.ComputeIntervals()
	if err != nil {
		return nil, err
	}

	var result []*invoice.LineItem
	for _, interval := range intervals {
		items, err := interval.ComputeMissingItems(existingItems)
		if err != nil {
			return nil, err
		}
		result = append(result, items...)
	}
	return result, nil
}

// ComputeIntervals partitions the subscription's lifetime into contiguous
// intervals per usage section. It walks the ordered events keeping one
// in-flight accumulator per referenced section; a section seen before but
// not referenced by the current event is closed with that event as its
// terminal boundary. An event closing one section and referencing another at
// the same instant belongs to both intervals: the tail of one and the head
// of the other. Remaining in-flight accumulators are emitted open.
//
// A START_BILLING_DISABLED event closes every in-flight interval at its
// date regardless of what it references; nothing reopens until the matching
// END_BILLING_DISABLED event, whose sections start fresh intervals.
func (s *SubscriptionUsageInArrear) ComputeIntervals() ([]*ContiguousInterval, error) {
	var intervals []*ContiguousInterval

	inFlight := make(map[string]*intervalAccumulator)

	// Insertion-ordered so closing and final emission are deterministic.
	var allSeenUsage []string

	billingDisabled := false

	for _, event := range s.timeline.Events() {
		switch event.TransitionType {
		case types.TransitionStartBillingDisable:
			billingDisabled = true
			for _, name := range allSeenUsage {
				acc, ok := inFlight[name]
				if !ok {
					continue
				}
				acc.addEvent(event)
				interval, err := acc.build(true)
				if err != nil {
					return nil, err
				}
				intervals = append(intervals, interval)
				delete(inFlight, name)
			}
			continue
		case types.TransitionEndBillingDisable:
			billingDisabled = false
		}
		if billingDisabled {
			continue
		}

		usages := s.timeline.FindConsumableInArrearUsages(event)

		referenced := make(map[string]struct{}, len(usages))
		for _, u := range usages {
			referenced[u.Name] = struct{}{}
			if !lo.Contains(allSeenUsage, u.Name) {
				allSeenUsage = append(allSeenUsage, u.Name)
			}
		}

		for _, u := range usages {
			acc, ok := inFlight[u.Name]
			if !ok {
				acc = newIntervalAccumulator(u, s.timeline.SubscriptionID(), s.rawUsage, s.targetDate, s.rawUsageStartDate)
				inFlight[u.Name] = acc
			}
			acc.addEvent(event)
		}

		// Every previously seen section the current event does not reference
		// is closed; the closing event carries the boundary date.
		for _, name := range allSeenUsage {
			if _, ok := referenced[name]; ok {
				continue
			}
			acc, ok := inFlight[name]
			if !ok {
				continue
			}
			acc.addEvent(event)
			interval, err := acc.build(true)
			if err != nil {
				return nil, err
			}
			intervals = append(intervals, interval)
			delete(inFlight, name)
		}
	}

	for _, name := range allSeenUsage {
		acc, ok := inFlight[name]
		if !ok {
			continue
		}
		interval, err := acc.build(false)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, interval)
	}

	return intervals, nil
}
