package billing

import (
	"github.com/flexprice/billrun/internal/domain/catalog"
	ierr "github.com/flexprice/billrun/internal/errors"
)

// Timeline is the ordered billing event sequence of a single subscription.
// It is immutable after construction.
type Timeline struct {
	subscriptionID string
	events         []*Event
}

// NewTimeline builds a timeline from events already sorted by (effective
// date, total ordering key). Out-of-order or foreign events are a
// precondition violation.
func NewTimeline(subscriptionID string, events []*Event) (*Timeline, error) {
	for i, event := range events {
		if event.SubscriptionID != subscriptionID {
			return nil, ierr.NewError("billing event belongs to another subscription").
				WithHintf("event %s belongs to subscription %s, not %s",
					event.ID, event.SubscriptionID, subscriptionID).
				Mark(ierr.ErrValidation)
		}
		if i > 0 && events[i-1].Compare(event) >= 0 {
			return nil, ierr.NewError("billing events out of order").
				WithHintf("event %s (%s, ordering %d) does not follow its predecessor",
					event.ID, event.EffectiveDate, event.TotalOrdering).
				Mark(ierr.ErrEventOrdering)
		}
	}

	return &Timeline{subscriptionID: subscriptionID, events: events}, nil
}

func (t *Timeline) SubscriptionID() string {
	return t.subscriptionID
}

// Events returns the ordered events. Callers must not mutate the slice.
func (t *Timeline) Events() []*Event {
	return t.events
}

func (t *Timeline) IsEmpty() bool {
	return len(t.events) == 0
}

// FindConsumableInArrearUsages returns the usage sections of the event that
// are metered consumption billed in arrear, empty when there are none.
func (t *Timeline) FindConsumableInArrearUsages(event *Event) []catalog.Usage {
	return event.ConsumableInArrearUsages()
}
