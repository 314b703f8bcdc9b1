// Package catalog holds the pricing snapshot types carried on billing
// events. The catalog itself (plans, phases, version resolution) is an
// external collaborator; billing events arrive with their usage sections
// already resolved.
package catalog

import (
	"math"
	"sort"

	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
	"github.com/shopspring/decimal"
)

// UsageTier is one pricing tier of a usage section
type UsageTier struct {
	// UpTo is the quantity up to which this tier applies. It is nil for the
	// last tier
	UpTo *uint64 `json:"up_to"`
	// UnitAmount is the amount per unit for the given tier
	UnitAmount decimal.Decimal `json:"unit_amount"`
	// FlatAmount is applied on top of unit_amount*quantity for the tier.
	// It covers cases like 2.7% + 5c
	FlatAmount *decimal.Decimal `json:"flat_amount,omitempty"`
}

// TierUpTo returns the up_to value treating the open last tier as MaxUint64.
// Only to be used for sorting of tiers.
func (t UsageTier) TierUpTo() uint64 {
	if t.UpTo != nil {
		return *t.UpTo
	}
	return math.MaxUint64
}

// TierAmount returns unit_amount*quantity plus the flat amount if present
func (t UsageTier) TierAmount(quantity decimal.Decimal) decimal.Decimal {
	amount := t.UnitAmount.Mul(quantity)
	if t.FlatAmount != nil {
		amount = amount.Add(*t.FlatAmount)
	}
	return amount
}

// Usage is a usage section definition as resolved from the catalog at the
// instant of a billing event: what unit is metered, how it is billed and at
// what price.
type Usage struct {
	Name        string            `json:"name"`
	UnitType    string            `json:"unit_type"`
	UsageType   types.UsageType   `json:"usage_type"`
	BillingMode types.BillingMode `json:"billing_mode"`
	TierMode    types.TierMode    `json:"tier_mode"`
	Tiers       []UsageTier       `json:"tiers"`
}

func (u Usage) Validate() error {
	if u.Name == "" {
		return ierr.NewError("usage section name is required").
			WithHint("Usage section name is required").
			Mark(ierr.ErrValidation)
	}
	if u.UnitType == "" {
		return ierr.NewError("usage section unit type is required").
			WithHintf("usage section '%s' has no unit type", u.Name).
			Mark(ierr.ErrValidation)
	}
	if err := u.UsageType.Validate(); err != nil {
		return err
	}
	if err := u.BillingMode.Validate(); err != nil {
		return err
	}
	if err := u.TierMode.Validate(); err != nil {
		return err
	}
	for _, tier := range u.Tiers {
		if tier.UnitAmount.IsNegative() {
			return ierr.NewError("negative tier unit amount").
				WithHintf("usage section '%s' has a negative unit amount", u.Name).
				Mark(ierr.ErrValidation)
		}
		if tier.FlatAmount != nil && tier.FlatAmount.IsNegative() {
			return ierr.NewError("negative tier flat amount").
				WithHintf("usage section '%s' has a negative flat amount", u.Name).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// IsConsumableInArrear reports whether this section is metered consumption
// billed after the fact. Only such sections participate in usage interval
// segmentation.
func (u Usage) IsConsumableInArrear() bool {
	return u.UsageType == types.UsageTypeConsumable && u.BillingMode == types.BillingModeInArrear
}

// PriceAmount applies the section's tiered pricing to an aggregated quantity.
// A section without tiers cannot be priced and aborts the invoice generation
// pass with a catalog error rather than producing a partially priced invoice.
func (u Usage) PriceAmount(quantity decimal.Decimal) (decimal.Decimal, error) {
	if quantity.IsZero() {
		return decimal.Zero, nil
	}

	if len(u.Tiers) == 0 {
		return decimal.Zero, ierr.NewError("no pricing tiers for usage section").
			WithHintf("usage section '%s' has no pricing tiers", u.Name).
			Mark(ierr.ErrCatalog)
	}

	tiers := make([]UsageTier, len(u.Tiers))
	copy(tiers, u.Tiers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].TierUpTo() < tiers[j].TierUpTo()
	})

	switch u.TierMode {
	case types.BILLING_TIER_VOLUME:
		// The whole quantity is priced at the tier it falls into.
		selected := tiers[len(tiers)-1]
		for _, tier := range tiers {
			if tier.UpTo == nil || quantity.LessThan(decimal.NewFromUint64(*tier.UpTo)) {
				selected = tier
				break
			}
		}
		return selected.TierAmount(quantity), nil

	case types.BILLING_TIER_SLAB:
		amount := decimal.Zero
		remaining := quantity
		for _, tier := range tiers {
			tierQuantity := remaining
			if tier.UpTo != nil {
				upTo := decimal.NewFromUint64(*tier.UpTo)
				if remaining.GreaterThan(upTo) {
					tierQuantity = upTo
				}
			}

			amount = amount.Add(tier.TierAmount(tierQuantity))
			remaining = remaining.Sub(tierQuantity)
			if remaining.LessThanOrEqual(decimal.Zero) {
				break
			}
		}
		return amount, nil

	default:
		return decimal.Zero, ierr.NewError("invalid tier mode").
			WithHintf("usage section '%s' has invalid tier mode '%s'", u.Name, u.TierMode).
			Mark(ierr.ErrCatalog)
	}
}
