package usage

import (
	"context"

	"github.com/flexprice/billrun/internal/types"
)

// Repository is the usage-store collaborator supplying raw usage records
// for reconciliation.
type Repository interface {
	// GetRawUsageForAccount returns the account's raw usage records observed
	// on or after startDate, across all of its subscriptions.
	GetRawUsageForAccount(ctx context.Context, accountID string, startDate types.Date) ([]*RawUsageRecord, error)
}
