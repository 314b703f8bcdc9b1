package types

import (
	"fmt"
	"time"

	ierr "github.com/flexprice/billrun/internal/errors"
)

// Date is a calendar date with no time-of-day component. All billing cycle
// and proration arithmetic operates on this type; converting instants to
// calendar dates (account timezone handling) happens before the core is
// called.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// NewDate returns the date for the given year, month and day.
// The day is not validated against the month length; use AddDays/AddMonths
// for normalized arithmetic.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in "2006-01-02" form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ierr.WithError(err).
			WithHintf("invalid date '%s', expected YYYY-MM-DD", s).
			Mark(ierr.ErrValidation)
	}
	return DateOf(t), nil
}

// MustParseDate parses a date in "2006-01-02" form and panics on failure.
// Intended for tests and static initialization only.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return d.toTime().Format(dateLayout)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) toTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	a, b := d.toTime(), other.toTime()
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

func (d Date) Equal(other Date) bool {
	return d.Compare(other) == 0
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.toTime().AddDate(0, 0, n))
}

// AddMonths returns the date n months after d, clamping the day-of-month to
// the last valid day of the resulting month. Adding one month to Jan 31
// yields Feb 28 (or Feb 29 in leap years), not Mar 2/3.
func (d Date) AddMonths(n int) Date {
	y := d.Year
	m := int(d.Month) + n
	for m > 12 {
		m -= 12
		y++
	}
	for m < 1 {
		m += 12
		y--
	}

	day := d.Day
	if last := DaysInMonth(y, time.Month(m)); day > last {
		day = last
	}
	return Date{Year: y, Month: time.Month(m), Day: day}
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the number of days from start to end. Negative when
// end is before start.
func DaysBetween(start, end Date) int {
	return int(end.toTime().Sub(start.toTime()).Hours() / 24)
}

// MonthsBetween returns the number of whole calendar months from start to
// end. The day-of-month of start is clamped to the length of end's month so
// that month-end aligned dates (e.g. Jan 31 -> Feb 28) count as whole months.
func MonthsBetween(start, end Date) int {
	months := (end.Year-start.Year)*12 + int(end.Month) - int(start.Month)

	anchor := start.Day
	if last := DaysInMonth(end.Year, end.Month); anchor > last {
		anchor = last
	}
	if end.Day < anchor {
		months--
	}
	return months
}

// MinDate returns the earlier of a and b.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// MaxDate returns the later of a and b.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// MarshalJSON implements json.Marshaler using the YYYY-MM-DD form.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ierr.NewError("invalid date json").
			WithHintf("expected quoted YYYY-MM-DD string, got %s", s).
			Mark(ierr.ErrValidation)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
