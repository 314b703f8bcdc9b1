package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/flexprice/billrun/internal/domain/billing"
	"github.com/flexprice/billrun/internal/types"
	"github.com/samber/lo"
)

// storedEvent associates a billing event with its account for filtering
type storedEvent struct {
	AccountID string
	Event     *billing.Event
}

// InMemoryBillingEventStore implements billing.Repository for tests
type InMemoryBillingEventStore struct {
	*InMemoryStore[*storedEvent]

	mu                          sync.RWMutex
	accountAutoInvoiceOff       map[string]bool
	subscriptionsAutoInvoiceOff map[string][]string
}

func NewInMemoryBillingEventStore() *InMemoryBillingEventStore {
	return &InMemoryBillingEventStore{
		InMemoryStore:               NewInMemoryStore[*storedEvent](),
		accountAutoInvoiceOff:       make(map[string]bool),
		subscriptionsAutoInvoiceOff: make(map[string][]string),
	}
}

// AddEvent registers a billing event for an account
func (s *InMemoryBillingEventStore) AddEvent(ctx context.Context, accountID string, event *billing.Event) error {
	event.AccountID = accountID
	return s.Create(ctx, event.ID, &storedEvent{AccountID: accountID, Event: event})
}

// SetAccountAutoInvoiceOff toggles account-level invoice suppression
func (s *InMemoryBillingEventStore) SetAccountAutoInvoiceOff(accountID string, off bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountAutoInvoiceOff[accountID] = off
}

// SetSubscriptionAutoInvoiceOff adds a per-subscription suppression override
func (s *InMemoryBillingEventStore) SetSubscriptionAutoInvoiceOff(accountID, subscriptionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptionsAutoInvoiceOff[accountID] = append(s.subscriptionsAutoInvoiceOff[accountID], subscriptionID)
}

// GetBillingEventSet implements billing.Repository
func (s *InMemoryBillingEventStore) GetBillingEventSet(ctx context.Context, accountID string, targetDate types.Date) (*billing.EventSet, error) {
	stored, err := s.List(ctx, nil, func(ctx context.Context, item *storedEvent, _ interface{}) bool {
		return item.AccountID == accountID && !item.Event.EffectiveDate.After(targetDate)
	}, func(i, j *storedEvent) bool {
		return i.Event.Compare(j.Event) < 0
	})
	if err != nil {
		return nil, err
	}

	events := lo.Map(stored, func(item *storedEvent, _ int) *billing.Event {
		return item.Event
	})
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Compare(events[j]) < 0
	})

	eventSet, err := billing.NewEventSet(events)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	eventSet.AccountAutoInvoiceOff = s.accountAutoInvoiceOff[accountID]
	eventSet.SubscriptionsAutoInvoiceOff = s.subscriptionsAutoInvoiceOff[accountID]
	return eventSet, nil
}
