package types

import (
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/samber/lo"
)

// BillingPeriod is the recurrence of a subscription phase's recurring price
type BillingPeriod string

const (
	BILLING_PERIOD_MONTHLY   BillingPeriod = "MONTHLY"
	BILLING_PERIOD_QUARTERLY BillingPeriod = "QUARTERLY"
	BILLING_PERIOD_ANNUAL    BillingPeriod = "ANNUAL"
)

func (p BillingPeriod) String() string {
	return string(p)
}

// Months returns the number of calendar months in one billing period
func (p BillingPeriod) Months() int {
	switch p {
	case BILLING_PERIOD_MONTHLY:
		return 1
	case BILLING_PERIOD_QUARTERLY:
		return 3
	case BILLING_PERIOD_ANNUAL:
		return 12
	default:
		return 0
	}
}

func (p BillingPeriod) Validate() error {
	allowedValues := []BillingPeriod{
		BILLING_PERIOD_MONTHLY,
		BILLING_PERIOD_QUARTERLY,
		BILLING_PERIOD_ANNUAL,
	}

	if !lo.Contains(allowedValues, p) {
		return ierr.NewError("invalid billing period").
			WithHint("Invalid billing period").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": p,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// BillingMode indicates whether charges are billed before or after the
// period they cover
type BillingMode string

const (
	BillingModeInAdvance BillingMode = "IN_ADVANCE"
	BillingModeInArrear  BillingMode = "IN_ARREAR"
)

func (m BillingMode) String() string {
	return string(m)
}

func (m BillingMode) Validate() error {
	allowedValues := []BillingMode{BillingModeInAdvance, BillingModeInArrear}

	if !lo.Contains(allowedValues, m) {
		return ierr.NewError("invalid billing mode").
			WithHint("Invalid billing mode").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": m,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// UsageType distinguishes metered (consumable) usage from capacity usage
// billed up front
type UsageType string

const (
	UsageTypeConsumable UsageType = "CONSUMABLE"
	UsageTypeCapacity   UsageType = "CAPACITY"
)

func (u UsageType) String() string {
	return string(u)
}

func (u UsageType) Validate() error {
	allowedValues := []UsageType{UsageTypeConsumable, UsageTypeCapacity}

	if !lo.Contains(allowedValues, u) {
		return ierr.NewError("invalid usage type").
			WithHint("Invalid usage type").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": u,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// TierMode controls how tiered usage pricing is applied
type TierMode string

const (
	// BILLING_TIER_VOLUME prices the whole quantity at the tier it lands in
	BILLING_TIER_VOLUME TierMode = "VOLUME"
	// BILLING_TIER_SLAB prices each tier's slice of the quantity separately
	BILLING_TIER_SLAB TierMode = "SLAB"
)

func (t TierMode) String() string {
	return string(t)
}

func (t TierMode) Validate() error {
	allowedValues := []TierMode{BILLING_TIER_VOLUME, BILLING_TIER_SLAB}

	if !lo.Contains(allowedValues, t) {
		return ierr.NewError("invalid tier mode").
			WithHint("Invalid tier mode").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": t,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// TransitionType is the subscription lifecycle transition that produced a
// billing event
type TransitionType string

const (
	TransitionCreate              TransitionType = "CREATE"
	TransitionReCreate            TransitionType = "RE_CREATE"
	TransitionChange              TransitionType = "CHANGE"
	TransitionCancel              TransitionType = "CANCEL"
	TransitionPhase               TransitionType = "PHASE"
	TransitionTransfer            TransitionType = "TRANSFER"
	TransitionMigrate             TransitionType = "MIGRATE_BILLING"
	TransitionStartBillingDisable TransitionType = "START_BILLING_DISABLED"
	TransitionEndBillingDisable   TransitionType = "END_BILLING_DISABLED"
)

func (t TransitionType) String() string {
	return string(t)
}

func (t TransitionType) Validate() error {
	allowedValues := []TransitionType{
		TransitionCreate,
		TransitionReCreate,
		TransitionChange,
		TransitionCancel,
		TransitionPhase,
		TransitionTransfer,
		TransitionMigrate,
		TransitionStartBillingDisable,
		TransitionEndBillingDisable,
	}

	if !lo.Contains(allowedValues, t) {
		return ierr.NewError("invalid transition type").
			WithHint("Invalid transition type").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": t,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
