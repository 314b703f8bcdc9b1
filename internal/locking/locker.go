// Package locking provides the per-account mutual exclusion scope required
// by invoice generation: the whole "read events and usage, compute draft,
// persist" sequence for one account must run as a single non-interleaved
// unit, or concurrent triggers could both consider the same usage interval
// unbilled and double-invoice it.
package locking

import (
	"context"
)

// AccountLocker serializes invoice generation per account. Distributed
// deployments supply their own implementation; the process-local one below
// covers single-node use and tests.
type AccountLocker interface {
	// Acquire blocks until the account's lock is held or ctx is done. On
	// success it returns a release function the caller must invoke exactly
	// once. Failure to acquire within the caller's deadline is reported as a
	// retryable lock timeout.
	Acquire(ctx context.Context, accountID string) (release func(), err error)
}
