package billing

import (
	"context"

	"github.com/flexprice/billrun/internal/types"
)

// Repository is the subscription/catalog collaborator: it supplies the
// ordered billing event stream for an account as of a target date, with the
// catalog pricing snapshots already resolved.
type Repository interface {
	// GetBillingEventSet returns the account's ordered billing events up to
	// and including the target date, with the account-level suppression
	// flags populated.
	GetBillingEventSet(ctx context.Context, accountID string, targetDate types.Date) (*EventSet, error)
}
