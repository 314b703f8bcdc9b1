// Package calendar implements the pure billing-cycle date arithmetic used by
// invoice generation: billing-cycle-day alignment with month-end clamping,
// partial-period proration and whole-period counting. All functions are
// deterministic and side-effect free; they operate on calendar dates only.
package calendar

import (
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
	"github.com/shopspring/decimal"
)

// MaxProrationScale is the decimal scale proration fractions are rounded to
// before being multiplied into monetary amounts.
const MaxProrationScale = 15

// BillingCycleDateOnOrAfter returns the first date on or after the given date
// whose day-of-month equals the billing cycle day. When the billing cycle day
// exceeds the month length the result is clamped to the last day of that
// month (bcd 31 in February yields Feb 28/29).
//
// Precondition: bcd is in [1, 31].
func BillingCycleDateOnOrAfter(date types.Date, bcd int) types.Date {
	day := bcd
	if last := types.DaysInMonth(date.Year, date.Month); day > last {
		day = last
	}

	proposed := types.NewDate(date.Year, date.Month, day)
	for proposed.Before(date) {
		proposed = proposed.AddMonths(1)
	}
	return proposed
}

// BillingCycleDateAfter is the strictly-after variant of
// BillingCycleDateOnOrAfter: when the date is already aligned it advances to
// the next month's billing cycle date, restoring the alignment a clamped
// month would otherwise lose.
func BillingCycleDateAfter(date types.Date, bcd int) types.Date {
	return BillingCycleDateOnOrAfter(date.AddDays(1), bcd)
}

// ProrationBetweenDates returns the fraction of the period [periodStart,
// periodEnd) covered by [startDate, endDate), at MaxProrationScale with
// round-half-up.
func ProrationBetweenDates(startDate, endDate, periodStart, periodEnd types.Date) (decimal.Decimal, error) {
	return ProrationWithDays(startDate, endDate, types.DaysBetween(periodStart, periodEnd))
}

// ProrationWithDays returns daysBetween(startDate, endDate) / daysInPeriod.
// A non-positive period length yields zero.
func ProrationWithDays(startDate, endDate types.Date, daysInPeriod int) (decimal.Decimal, error) {
	if endDate.Before(startDate) {
		return decimal.Zero, ierr.NewError("end date is before start date").
			WithHintf("cannot prorate from %s to %s", startDate, endDate).
			Mark(ierr.ErrInvalidDateSequence)
	}
	if daysInPeriod <= 0 {
		return decimal.Zero, nil
	}

	days := decimal.NewFromInt(int64(types.DaysBetween(startDate, endDate)))
	return days.DivRound(decimal.NewFromInt(int64(daysInPeriod)), MaxProrationScale), nil
}

// ProrationBeforeFirstBillingPeriod returns the fraction of one billing
// period covered by the leading stub span [startDate, firstBillingCycleDate).
func ProrationBeforeFirstBillingPeriod(startDate, firstBillingCycleDate types.Date, period types.BillingPeriod) (decimal.Decimal, error) {
	previousBillingCycleDate := firstBillingCycleDate.AddMonths(-period.Months())
	return ProrationBetweenDates(startDate, firstBillingCycleDate, previousBillingCycleDate, firstBillingCycleDate)
}

// ProrationAfterLastBillingCycleDate returns the fraction of one billing
// period covered by the trailing stub span [previousBillThroughDate, endDate).
// previousBillThroughDate is assumed to be aligned with the billing cycle day.
func ProrationAfterLastBillingCycleDate(endDate, previousBillThroughDate types.Date, period types.BillingPeriod) (decimal.Decimal, error) {
	nextBillThroughDate := previousBillThroughDate.AddMonths(period.Months())
	return ProrationBetweenDates(previousBillThroughDate, endDate, previousBillThroughDate, nextBillThroughDate)
}

// WholePeriods returns the number of whole billing periods between the two
// dates, truncating any partial period.
func WholePeriods(startDate, endDate types.Date, period types.BillingPeriod) (int, error) {
	if endDate.Before(startDate) {
		return 0, ierr.NewError("end date is before start date").
			WithHintf("cannot count periods from %s to %s", startDate, endDate).
			Mark(ierr.ErrInvalidDateSequence)
	}

	months := types.MonthsBetween(startDate, endDate)
	return months / period.Months(), nil
}

// EffectiveEndDate walks forward in period-sized steps from billCycleDate
// until the first boundary strictly after targetDate. When endDate is
// supplied and falls before that boundary (and before the target date) the
// end date wins.
func EffectiveEndDate(billCycleDate, targetDate types.Date, endDate *types.Date, period types.BillingPeriod) types.Date {
	if endDate != nil && !targetDate.Before(*endDate) {
		return *endDate
	}

	if targetDate.Before(billCycleDate) {
		return billCycleDate
	}

	months := period.Months()
	numberOfPeriods := 0
	proposed := billCycleDate
	for !proposed.After(targetDate) {
		proposed = billCycleDate.AddMonths(numberOfPeriods * months)
		numberOfPeriods++
	}

	if endDate != nil && endDate.Before(proposed) {
		return *endDate
	}
	return proposed
}

// LastBillingCycleDateBefore walks forward in period steps from
// previousBillCycleDate to the latest period boundary not after date, then
// re-aligns the day-of-month to the billing cycle day with month-end
// clamping. The result is never before previousBillCycleDate.
func LastBillingCycleDateBefore(date, previousBillCycleDate types.Date, billingCycleDay int, period types.BillingPeriod) types.Date {
	months := period.Months()
	proposed := previousBillCycleDate

	numberOfPeriods := 0
	for !proposed.After(date) {
		proposed = previousBillCycleDate.AddMonths(numberOfPeriods * months)
		numberOfPeriods++
	}
	proposed = proposed.AddMonths(-months)

	// The period walk can land on a shorter month and lose the billing cycle
	// day alignment; restore it with clamping.
	if proposed.Day < billingCycleDay {
		day := billingCycleDay
		if last := types.DaysInMonth(proposed.Year, proposed.Month); day > last {
			day = last
		}
		proposed = types.NewDate(proposed.Year, proposed.Month, day)
	}

	if proposed.Before(previousBillCycleDate) {
		return previousBillCycleDate
	}
	return proposed
}
