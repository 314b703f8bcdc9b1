package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexprice/billrun/internal/domain/billing"
	"github.com/flexprice/billrun/internal/types"
)

func recurringEvent(effectiveDate string, ordering int64, transition types.TransitionType, price *decimal.Decimal) *billing.Event {
	return &billing.Event{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_EVENT),
		SubscriptionID:    "sub-1",
		EffectiveDate:     types.MustParseDate(effectiveDate),
		BillCycleDayLocal: 31,
		PlanName:          "shotgun-monthly",
		PhaseName:         "shotgun-monthly-evergreen",
		BillingPeriod:     types.BILLING_PERIOD_MONTHLY,
		TransitionType:    transition,
		RecurringPrice:    price,
		Currency:          "USD",
		TotalOrdering:     ordering,
	}
}

func recurringTimeline(t *testing.T, events ...*billing.Event) *billing.Timeline {
	t.Helper()
	timeline, err := billing.NewTimeline("sub-1", events)
	require.NoError(t, err)
	return timeline
}

func TestRecurringLeadingStubProration(t *testing.T) {
	price := decimal.NewFromInt(10)
	timeline := recurringTimeline(t,
		recurringEvent("2012-01-16", 1, types.TransitionCreate, &price))

	items, err := computeFixedAndRecurringItems(timeline, types.MustParseDate("2012-02-01"), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// 15 of the 31 days of the notional period ending on the first aligned
	// billing cycle date.
	stub := items[0]
	assert.Equal(t, "2012-01-16", stub.StartDate.String())
	require.NotNil(t, stub.EndDate)
	assert.Equal(t, "2012-01-31", stub.EndDate.String())
	assert.True(t, stub.Amount.Equal(decimal.RequireFromString("4.84")), "got %s", stub.Amount)

	whole := items[1]
	assert.Equal(t, "2012-01-31", whole.StartDate.String())
	require.NotNil(t, whole.EndDate)
	assert.Equal(t, "2012-02-29", whole.EndDate.String())
	assert.True(t, whole.Amount.Equal(decimal.NewFromInt(10)), "got %s", whole.Amount)
}

func TestRecurringCancelTrailingStub(t *testing.T) {
	price := decimal.NewFromInt(10)
	timeline := recurringTimeline(t,
		recurringEvent("2012-01-31", 1, types.TransitionCreate, &price),
		recurringEvent("2012-02-15", 2, types.TransitionCancel, nil))

	items, err := computeFixedAndRecurringItems(timeline, types.MustParseDate("2012-03-01"), nil)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// 15 of the 29 days of the cut-short February period; nothing billed for
	// the cancel event itself.
	item := items[0]
	assert.Equal(t, "2012-01-31", item.StartDate.String())
	require.NotNil(t, item.EndDate)
	assert.Equal(t, "2012-02-15", item.EndDate.String())
	assert.True(t, item.Amount.Equal(decimal.RequireFromString("5.17")), "got %s", item.Amount)
}

func TestRecurringBillingDisabledSpan(t *testing.T) {
	price := decimal.NewFromInt(10)
	timeline := recurringTimeline(t,
		recurringEvent("2012-01-31", 1, types.TransitionCreate, &price),
		recurringEvent("2012-02-29", 2, types.TransitionStartBillingDisable, nil),
		recurringEvent("2012-03-31", 3, types.TransitionEndBillingDisable, &price))

	items, err := computeFixedAndRecurringItems(timeline, types.MustParseDate("2012-04-01"), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// January's period ends where the disable starts; March's resumes where
	// it ends. Nothing covers the disabled span in between.
	assert.Equal(t, "2012-01-31", items[0].StartDate.String())
	assert.Equal(t, "2012-02-29", items[0].EndDate.String())
	assert.Equal(t, "2012-03-31", items[1].StartDate.String())
	assert.Equal(t, "2012-04-30", items[1].EndDate.String())
}

func TestRecurringSkipsFutureEvents(t *testing.T) {
	price := decimal.NewFromInt(10)
	timeline := recurringTimeline(t,
		recurringEvent("2012-01-31", 1, types.TransitionCreate, &price),
		recurringEvent("2012-06-30", 2, types.TransitionChange, &price))

	items, err := computeFixedAndRecurringItems(timeline, types.MustParseDate("2012-02-01"), nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2012-01-31", items[0].StartDate.String())
}

func TestRecurringZeroPriceBillsNothing(t *testing.T) {
	price := decimal.Zero
	timeline := recurringTimeline(t,
		recurringEvent("2012-01-31", 1, types.TransitionCreate, &price))

	items, err := computeFixedAndRecurringItems(timeline, types.MustParseDate("2012-03-01"), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
