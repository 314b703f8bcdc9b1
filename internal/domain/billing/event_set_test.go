package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexprice/billrun/internal/domain/catalog"
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
)

func newTestEvent(subscriptionID, effectiveDate string, ordering int64) *Event {
	price := decimal.NewFromInt(10)
	return &Event{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_EVENT),
		AccountID:         "acct-1",
		SubscriptionID:    subscriptionID,
		EffectiveDate:     types.MustParseDate(effectiveDate),
		BillCycleDayLocal: 16,
		PlanName:          "shotgun-monthly",
		PhaseName:         "shotgun-monthly-evergreen",
		BillingPeriod:     types.BILLING_PERIOD_MONTHLY,
		TransitionType:    types.TransitionCreate,
		RecurringPrice:    &price,
		Currency:          "USD",
		TotalOrdering:     ordering,
	}
}

func consumableSection(name string) catalog.Usage {
	return catalog.Usage{
		Name:        name,
		UnitType:    "call",
		UsageType:   types.UsageTypeConsumable,
		BillingMode: types.BillingModeInArrear,
		TierMode:    types.BILLING_TIER_VOLUME,
		Tiers:       []catalog.UsageTier{{UpTo: nil, UnitAmount: decimal.NewFromInt(1)}},
	}
}

func TestNewEventSetOrdered(t *testing.T) {
	set, err := NewEventSet([]*Event{
		newTestEvent("sub-1", "2012-01-16", 1),
		newTestEvent("sub-2", "2012-02-01", 2),
		newTestEvent("sub-1", "2012-03-16", 3),
	})
	require.NoError(t, err)
	assert.False(t, set.IsEmpty())
	assert.Equal(t, []string{"sub-1", "sub-2"}, set.SubscriptionIDs())
}

func TestNewEventSetRejectsDuplicateOrdering(t *testing.T) {
	_, err := NewEventSet([]*Event{
		newTestEvent("sub-1", "2012-01-16", 1),
		newTestEvent("sub-1", "2012-02-16", 1),
	})
	require.Error(t, err)
	assert.True(t, ierr.IsEventOrdering(err))
}

func TestNewEventSetRejectsUnsortedEvents(t *testing.T) {
	_, err := NewEventSet([]*Event{
		newTestEvent("sub-1", "2012-02-16", 2),
		newTestEvent("sub-1", "2012-01-16", 1),
	})
	require.Error(t, err)
	assert.True(t, ierr.IsEventOrdering(err))
}

func TestNewEventSetSameDateOrdersByTotalOrdering(t *testing.T) {
	// Two transitions on the same date are legal as long as the ordering key
	// breaks the tie.
	set, err := NewEventSet([]*Event{
		newTestEvent("sub-1", "2012-01-16", 1),
		newTestEvent("sub-1", "2012-01-16", 2),
	})
	require.NoError(t, err)
	assert.Len(t, set.Events(), 2)

	_, err = NewEventSet([]*Event{
		newTestEvent("sub-1", "2012-01-16", 2),
		newTestEvent("sub-1", "2012-01-16", 3),
		newTestEvent("sub-1", "2012-01-16", 1),
	})
	require.Error(t, err)
	assert.True(t, ierr.IsEventOrdering(err))
}

func TestTimelineFor(t *testing.T) {
	set, err := NewEventSet([]*Event{
		newTestEvent("sub-1", "2012-01-16", 1),
		newTestEvent("sub-2", "2012-02-01", 2),
		newTestEvent("sub-1", "2012-03-16", 3),
	})
	require.NoError(t, err)

	timeline, err := set.TimelineFor("sub-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", timeline.SubscriptionID())
	assert.Len(t, timeline.Events(), 2)

	other, err := set.TimelineFor("sub-3")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestNewTimelineRejectsForeignEvent(t *testing.T) {
	_, err := NewTimeline("sub-1", []*Event{newTestEvent("sub-2", "2012-01-16", 1)})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestSubscriptionAutoInvoiceOff(t *testing.T) {
	set, err := NewEventSet([]*Event{newTestEvent("sub-1", "2012-01-16", 1)})
	require.NoError(t, err)

	set.SubscriptionsAutoInvoiceOff = []string{"sub-1"}
	assert.True(t, set.IsSubscriptionAutoInvoiceOff("sub-1"))
	assert.False(t, set.IsSubscriptionAutoInvoiceOff("sub-2"))
}

func TestConsumableInArrearUsages(t *testing.T) {
	event := newTestEvent("sub-1", "2012-01-16", 1)
	inAdvance := consumableSection("capacity")
	inAdvance.BillingMode = types.BillingModeInAdvance
	event.Usages = []catalog.Usage{consumableSection("api-calls"), inAdvance}

	arrear := event.ConsumableInArrearUsages()
	require.Len(t, arrear, 1)
	assert.Equal(t, "api-calls", arrear[0].Name)

	set, err := NewEventSet([]*Event{event})
	require.NoError(t, err)
	assert.Len(t, set.Usages(), 2)
}

func TestEventValidate(t *testing.T) {
	valid := newTestEvent("sub-1", "2012-01-16", 1)
	require.NoError(t, valid.Validate())

	noSub := newTestEvent("", "2012-01-16", 1)
	assert.Error(t, noSub.Validate())

	badBCD := newTestEvent("sub-1", "2012-01-16", 1)
	badBCD.BillCycleDayLocal = 32
	assert.Error(t, badBCD.Validate())

	noPeriod := newTestEvent("sub-1", "2012-01-16", 1)
	noPeriod.BillingPeriod = ""
	assert.Error(t, noPeriod.Validate())
}
