package service

import (
	"context"
	"time"

	"github.com/flexprice/billrun/internal/domain/billing"
	"github.com/flexprice/billrun/internal/domain/invoice"
	"github.com/flexprice/billrun/internal/domain/usage"
	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
)

// InvoiceService generates draft invoices. Generation is idempotent:
// re-running with unchanged events, usage and persisted items produces no
// new invoice. The event bus triggering generation delivers at least once,
// which is exactly why idempotence is a correctness requirement here and not
// an optimization.
type InvoiceService interface {
	// GenerateInvoice computes and persists the draft invoice for an account
	// as of the target date. A nil invoice with a nil error is the
	// legitimate "nothing to bill" outcome.
	GenerateInvoice(ctx context.Context, accountID string, targetDate types.Date) (*invoice.Invoice, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{ServiceParams: params}
}

func (s *invoiceService) GenerateInvoice(ctx context.Context, accountID string, targetDate types.Date) (*invoice.Invoice, error) {
	if accountID == "" {
		return nil, ierr.NewError("account id is required").
			WithHint("Account id is required").
			Mark(ierr.ErrValidation)
	}
	if targetDate.IsZero() {
		return nil, ierr.NewError("target date is required").
			WithHint("Target date is required").
			Mark(ierr.ErrValidation)
	}

	// The whole read-compute-persist sequence runs under the account lock so
	// concurrent triggers cannot double-bill the same interval.
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWaitTimeout())
	defer cancel()
	release, err := s.Locker.Acquire(lockCtx, accountID)
	if err != nil {
		return nil, err
	}
	defer release()

	eventSet, err := s.BillingEventRepo.GetBillingEventSet(ctx, accountID, targetDate)
	if err != nil {
		return nil, err
	}
	if eventSet == nil || eventSet.IsEmpty() {
		s.Logger.Debugw("no billing events for account, nothing to bill",
			"account_id", accountID, "target_date", targetDate.String())
		return nil, nil
	}
	if eventSet.AccountAutoInvoiceOff {
		s.Logger.Infow("account has auto invoice off, skipping generation",
			"account_id", accountID)
		return nil, nil
	}

	existingItems, err := s.InvoiceRepo.GetLineItemsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	rawUsage, err := s.fetchRawUsage(ctx, accountID, eventSet, targetDate)
	if err != nil {
		return nil, err
	}

	var candidates []*invoice.LineItem
	for _, subscriptionID := range eventSet.SubscriptionIDs() {
		if err := ctx.Err(); err != nil {
			return nil, ierr.WithError(err).
				WithHint("invoice generation cancelled before completion").
				Mark(ierr.ErrSystem)
		}
		if eventSet.IsSubscriptionAutoInvoiceOff(subscriptionID) {
			s.Logger.Debugw("subscription has auto invoice off, skipping",
				"account_id", accountID, "subscription_id", subscriptionID)
			continue
		}

		timeline, err := eventSet.TimelineFor(subscriptionID)
		if err != nil {
			return nil, err
		}

		fixedAndRecurring, err := computeFixedAndRecurringItems(timeline, targetDate, existingItems)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, fixedAndRecurring...)

		inArrear := usage.NewSubscriptionUsageInArrear(
			timeline, rawUsage, targetDate, s.rawUsageStartDate(timeline, targetDate))
		usageItems, err := inArrear.ComputeMissingItems(existingItems)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, usageItems...)
	}

	if len(candidates) == 0 {
		s.Logger.Debugw("no new items to bill", "account_id", accountID,
			"target_date", targetDate.String())
		return nil, nil
	}

	draft, err := invoice.NewDraft(accountID, targetDate, targetDate, candidates)
	if err != nil {
		return nil, err
	}

	// The repository persists the full draft or nothing.
	if err := s.InvoiceRepo.CreateDraft(ctx, draft); err != nil {
		return nil, err
	}

	s.Logger.Infow("generated draft invoice",
		"account_id", accountID,
		"invoice_id", draft.ID,
		"invoice_number", draft.InvoiceNumber,
		"line_items", len(draft.LineItems),
		"total", draft.Total().String())

	return draft, nil
}

func (s *invoiceService) lockWaitTimeout() time.Duration {
	if s.Config != nil && s.Config.Billing.LockWaitTimeout > 0 {
		return s.Config.Billing.LockWaitTimeout
	}
	return 10 * time.Second
}

// fetchRawUsage reads the account's raw usage once, starting at the earliest
// rescan window of any of its subscriptions.
func (s *invoiceService) fetchRawUsage(ctx context.Context, accountID string, eventSet *billing.EventSet, targetDate types.Date) ([]*usage.RawUsageRecord, error) {
	earliest := targetDate
	for _, subscriptionID := range eventSet.SubscriptionIDs() {
		timeline, err := eventSet.TimelineFor(subscriptionID)
		if err != nil {
			return nil, err
		}
		earliest = types.MinDate(earliest, s.rawUsageStartDate(timeline, targetDate))
	}
	return s.UsageRepo.GetRawUsageForAccount(ctx, accountID, earliest)
}

// rawUsageStartDate is the lower bound of the raw usage rescan for a
// subscription: the configured number of billing periods before the target
// date. Usage recorded before it is excluded even when an interval is still
// logically open. This bounds recomputation cost; it is a deliberate,
// configurable approximation.
func (s *invoiceService) rawUsageStartDate(timeline *billing.Timeline, targetDate types.Date) types.Date {
	periods := 2
	if s.Config != nil {
		periods = s.Config.Billing.MaxRawUsagePreviousPeriod
	}

	// The longest period any event on the timeline bills with; a mid-stream
	// change to a longer period must not shrink the window.
	months := 1
	for _, event := range timeline.Events() {
		if m := event.BillingPeriod.Months(); m > months {
			months = m
		}
	}

	return targetDate.AddMonths(-periods * months)
}
