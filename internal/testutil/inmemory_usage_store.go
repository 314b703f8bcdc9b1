package testutil

import (
	"context"

	"github.com/flexprice/billrun/internal/domain/usage"
	"github.com/flexprice/billrun/internal/types"
	"github.com/samber/lo"
)

// storedUsage associates a raw usage record with its account
type storedUsage struct {
	AccountID string
	Record    *usage.RawUsageRecord
}

// InMemoryUsageStore implements usage.Repository for tests
type InMemoryUsageStore struct {
	*InMemoryStore[*storedUsage]
}

func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{
		InMemoryStore: NewInMemoryStore[*storedUsage](),
	}
}

// AddRecord registers a raw usage record for an account
func (s *InMemoryUsageStore) AddRecord(ctx context.Context, accountID string, record *usage.RawUsageRecord) error {
	if record.ID == "" {
		record.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_RECORD)
	}
	if err := record.Validate(); err != nil {
		return err
	}
	return s.Create(ctx, record.ID, &storedUsage{AccountID: accountID, Record: record})
}

// GetRawUsageForAccount implements usage.Repository
func (s *InMemoryUsageStore) GetRawUsageForAccount(ctx context.Context, accountID string, startDate types.Date) ([]*usage.RawUsageRecord, error) {
	stored, err := s.List(ctx, nil, func(ctx context.Context, item *storedUsage, _ interface{}) bool {
		return item.AccountID == accountID && !item.Record.Date.Before(startDate)
	}, nil)
	if err != nil {
		return nil, err
	}

	records := lo.Map(stored, func(item *storedUsage, _ int) *usage.RawUsageRecord {
		return item.Record
	})
	usage.SortRecords(records)
	return records, nil
}
