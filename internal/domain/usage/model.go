// Package usage implements the usage-in-arrear half of invoice generation:
// segmenting a subscription's lifetime into contiguous billing intervals per
// usage unit, and reconciling raw metered usage inside each interval against
// what has already been invoiced.
package usage

import (
	"sort"

	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
	"github.com/shopspring/decimal"
)

// RawUsageRecord is a single metered usage observation. Records are append
// only: once recorded they are never mutated, only aggregated.
type RawUsageRecord struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"subscription_id"`
	UnitType       string          `json:"unit_type"`
	Date           types.Date      `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
}

func (r *RawUsageRecord) Validate() error {
	if r.SubscriptionID == "" {
		return ierr.NewError("raw usage subscription id is required").
			WithHint("Raw usage subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if r.UnitType == "" {
		return ierr.NewError("raw usage unit type is required").
			WithHint("Raw usage unit type is required").
			Mark(ierr.ErrValidation)
	}
	if r.Date.IsZero() {
		return ierr.NewError("raw usage date is required").
			WithHint("Raw usage date is required").
			Mark(ierr.ErrValidation)
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("raw usage amount is negative").
			WithHintf("usage amounts cannot be negative, got %s", r.Amount).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SortRecords sorts raw usage records in place by (date, unit type, id).
// The id is a stable tiebreaker only.
func SortRecords(records []*RawUsageRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if c := records[i].Date.Compare(records[j].Date); c != 0 {
			return c < 0
		}
		if records[i].UnitType != records[j].UnitType {
			return records[i].UnitType < records[j].UnitType
		}
		return records[i].ID < records[j].ID
	})
}
