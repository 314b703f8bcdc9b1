package calendar

import (
	"testing"

	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) types.Date {
	return types.MustParseDate(s)
}

func TestBillingCycleDateOnOrAfter(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		bcd      int
		expected string
	}{
		{"bcd_later_in_month", "2012-01-16", 17, "2012-01-17"},
		{"bcd_clamped_to_leap_february", "2012-02-16", 30, "2012-02-29"},
		{"bcd_before_date_rolls_to_clamped_next_month", "2012-01-31", 30, "2012-02-29"},
		{"bcd_before_date_rolls_forward", "2012-07-16", 15, "2012-08-15"},
		{"day_before_bcd", "2012-03-02", 3, "2012-03-03"},
		{"day_equals_bcd", "2012-03-03", 3, "2012-03-03"},
		{"day_after_bcd", "2012-03-04", 3, "2012-04-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BillingCycleDateOnOrAfter(d(tt.date), tt.bcd)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestBillingCycleDateOnOrAfterIsIdempotent(t *testing.T) {
	// Applying the alignment to its own output must not move the date, even
	// when the billing cycle day was clamped.
	for _, tt := range []struct {
		date string
		bcd  int
	}{
		{"2012-02-16", 30},
		{"2012-01-16", 17},
		{"2012-01-31", 31},
		{"2011-02-01", 31},
	} {
		aligned := BillingCycleDateOnOrAfter(d(tt.date), tt.bcd)
		again := BillingCycleDateOnOrAfter(aligned, tt.bcd)
		assert.True(t, aligned.Equal(again), "bcd %d: %s realigned to %s", tt.bcd, aligned, again)
	}
}

func TestBillingCycleDateAfter(t *testing.T) {
	// Strictly-after variant advances one month when already aligned.
	assert.Equal(t, "2012-04-03", BillingCycleDateAfter(d("2012-03-03"), 3).String())
	assert.Equal(t, "2012-03-03", BillingCycleDateAfter(d("2012-03-02"), 3).String())
	assert.Equal(t, "2012-03-31", BillingCycleDateAfter(d("2012-02-29"), 31).String())
}

func TestProrationWithDays(t *testing.T) {
	// A 29-day span over a 29-day period is exactly one.
	fraction, err := ProrationWithDays(d("2012-03-02"), d("2012-03-31"), 29)
	require.NoError(t, err)
	assert.True(t, fraction.Equal(decimal.NewFromInt(1)), "got %s", fraction)

	// Half a 30-day period.
	fraction, err = ProrationWithDays(d("2012-04-01"), d("2012-04-16"), 30)
	require.NoError(t, err)
	assert.True(t, fraction.Equal(decimal.NewFromFloat(0.5)), "got %s", fraction)

	// A non-positive period length yields zero.
	fraction, err = ProrationWithDays(d("2012-03-02"), d("2012-03-31"), 0)
	require.NoError(t, err)
	assert.True(t, fraction.IsZero())
}

func TestProrationInvalidDateSequence(t *testing.T) {
	_, err := ProrationWithDays(d("2012-03-31"), d("2012-03-02"), 29)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidDateSequence(err))

	_, err = ProrationBetweenDates(d("2012-03-31"), d("2012-03-02"), d("2012-03-01"), d("2012-04-01"))
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidDateSequence(err))
}

func TestProrationBeforeFirstBillingPeriod(t *testing.T) {
	// Subscription starts mid-period; the stub runs to the first aligned
	// billing cycle date.
	fraction, err := ProrationBeforeFirstBillingPeriod(d("2012-01-16"), d("2012-02-01"), types.BILLING_PERIOD_MONTHLY)
	require.NoError(t, err)

	// 16 days of the 31-day period ending Feb 1.
	expected := decimal.NewFromInt(16).DivRound(decimal.NewFromInt(31), MaxProrationScale)
	assert.True(t, fraction.Equal(expected), "got %s, want %s", fraction, expected)
}

func TestProrationAfterLastBillingCycleDate(t *testing.T) {
	// Cancelled 15 days into a 29-day period.
	fraction, err := ProrationAfterLastBillingCycleDate(d("2012-02-16"), d("2012-02-01"), types.BILLING_PERIOD_MONTHLY)
	require.NoError(t, err)

	expected := decimal.NewFromInt(15).DivRound(decimal.NewFromInt(29), MaxProrationScale)
	assert.True(t, fraction.Equal(expected), "got %s, want %s", fraction, expected)
}

func TestWholePeriods(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		period   types.BillingPeriod
		expected int
	}{
		{"two_whole_months", "2012-01-31", "2012-03-31", types.BILLING_PERIOD_MONTHLY, 2},
		{"month_end_clamped_counts_whole", "2012-01-31", "2012-02-29", types.BILLING_PERIOD_MONTHLY, 1},
		{"partial_truncates", "2012-01-15", "2012-03-14", types.BILLING_PERIOD_MONTHLY, 1},
		{"quarterly", "2012-01-01", "2012-07-01", types.BILLING_PERIOD_QUARTERLY, 2},
		{"annual_partial", "2012-01-01", "2013-06-01", types.BILLING_PERIOD_ANNUAL, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WholePeriods(d(tt.start), d(tt.end), tt.period)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := WholePeriods(d("2012-03-31"), d("2012-03-02"), types.BILLING_PERIOD_MONTHLY)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidDateSequence(err))
}

func TestEffectiveEndDate(t *testing.T) {
	// First period boundary strictly after the target date.
	got := EffectiveEndDate(d("2012-07-16"), d("2012-08-16"), nil, types.BILLING_PERIOD_MONTHLY)
	assert.Equal(t, "2012-09-16", got.String())

	// Target before the bill cycle date.
	got = EffectiveEndDate(d("2012-08-15"), d("2012-07-16"), nil, types.BILLING_PERIOD_MONTHLY)
	assert.Equal(t, "2012-08-15", got.String())

	// A hard end date inside the last period wins.
	end := d("2012-09-15")
	got = EffectiveEndDate(d("2012-07-16"), d("2012-08-16"), &end, types.BILLING_PERIOD_MONTHLY)
	assert.Equal(t, "2012-09-15", got.String())

	// Target on or past the hard end date: the end date wins outright.
	end = d("2012-08-01")
	got = EffectiveEndDate(d("2012-07-16"), d("2012-08-16"), &end, types.BILLING_PERIOD_MONTHLY)
	assert.Equal(t, "2012-08-01", got.String())
}

func TestLastBillingCycleDateBefore(t *testing.T) {
	// Latest boundary not after the date.
	got := LastBillingCycleDateBefore(d("2012-09-15"), d("2012-07-16"), 16, types.BILLING_PERIOD_MONTHLY)
	assert.Equal(t, "2012-08-16", got.String())

	// Never before the previous bill cycle date.
	got = LastBillingCycleDateBefore(d("2012-08-15"), d("2012-08-15"), 15, types.BILLING_PERIOD_MONTHLY)
	assert.Equal(t, "2012-08-15", got.String())

	// Day-of-month realigned with clamping after walking through a short
	// month.
	got = LastBillingCycleDateBefore(d("2012-04-15"), d("2012-01-31"), 31, types.BILLING_PERIOD_MONTHLY)
	assert.Equal(t, "2012-03-31", got.String())
}
