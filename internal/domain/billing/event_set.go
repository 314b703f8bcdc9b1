package billing

import (
	"github.com/flexprice/billrun/internal/domain/catalog"
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/samber/lo"
)

// EventSet is the ordered, deduplicated collection of billing events for one
// account, plus the account-level invoicing suppression flags. It is built
// once per invoice generation pass and read-only thereafter.
type EventSet struct {
	events []*Event

	// AccountAutoInvoiceOff suppresses invoice generation for the whole
	// account
	AccountAutoInvoiceOff bool

	// SubscriptionsAutoInvoiceOff suppresses new items for the listed
	// subscriptions only
	SubscriptionsAutoInvoiceOff []string
}

// NewEventSet builds an event set from events already sorted by (effective
// date, total ordering key). Ordering defines the correctness of every
// downstream step, so unsorted or duplicate-keyed input fails fast instead
// of being re-sorted.
func NewEventSet(events []*Event) (*EventSet, error) {
	seenOrdering := make(map[int64]struct{}, len(events))
	for i, event := range events {
		if err := event.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seenOrdering[event.TotalOrdering]; ok {
			return nil, ierr.NewError("duplicate billing event ordering key").
				WithHintf("total ordering key %d appears more than once", event.TotalOrdering).
				Mark(ierr.ErrEventOrdering)
		}
		seenOrdering[event.TotalOrdering] = struct{}{}

		if i > 0 && events[i-1].Compare(event) >= 0 {
			return nil, ierr.NewError("billing events out of order").
				WithHintf("event %s (%s, ordering %d) does not follow its predecessor",
					event.ID, event.EffectiveDate, event.TotalOrdering).
				Mark(ierr.ErrEventOrdering)
		}
	}

	return &EventSet{events: events}, nil
}

// Events returns the ordered events. Callers must not mutate the slice.
func (s *EventSet) Events() []*Event {
	return s.events
}

// IsEmpty reports whether the set contains no events
func (s *EventSet) IsEmpty() bool {
	return len(s.events) == 0
}

// SubscriptionIDs returns the distinct subscription ids referenced by the
// set, in order of first appearance.
func (s *EventSet) SubscriptionIDs() []string {
	return lo.Uniq(lo.Map(s.events, func(e *Event, _ int) string {
		return e.SubscriptionID
	}))
}

// IsSubscriptionAutoInvoiceOff reports whether new items for the given
// subscription are suppressed
func (s *EventSet) IsSubscriptionAutoInvoiceOff(subscriptionID string) bool {
	return lo.Contains(s.SubscriptionsAutoInvoiceOff, subscriptionID)
}

// TimelineFor returns the per-subscription timeline view of this set
func (s *EventSet) TimelineFor(subscriptionID string) (*Timeline, error) {
	events := lo.Filter(s.events, func(e *Event, _ int) bool {
		return e.SubscriptionID == subscriptionID
	})
	return NewTimeline(subscriptionID, events)
}

// Usages returns every usage section referenced by any event in the set,
// keyed by section name
func (s *EventSet) Usages() map[string]catalog.Usage {
	result := make(map[string]catalog.Usage)
	for _, event := range s.events {
		for _, usage := range event.Usages {
			result[usage.Name] = usage
		}
	}
	return result
}
