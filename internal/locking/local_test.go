package locking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/flexprice/billrun/internal/errors"
)

func TestAcquireAndRelease(t *testing.T) {
	locker := NewLocalAccountLocker()

	release, err := locker.Acquire(context.Background(), "acct-1")
	require.NoError(t, err)
	release()

	// Released locks can be taken again.
	release, err = locker.Acquire(context.Background(), "acct-1")
	require.NoError(t, err)
	release()
}

func TestAcquireTimesOutWhenHeld(t *testing.T) {
	locker := NewLocalAccountLocker()

	release, err := locker.Acquire(context.Background(), "acct-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Acquire(ctx, "acct-1")
	require.Error(t, err)
	assert.True(t, ierr.IsLockTimeout(err))
	assert.True(t, ierr.IsRetryable(err))
}

func TestAccountsDoNotContend(t *testing.T) {
	locker := NewLocalAccountLocker()

	releaseA, err := locker.Acquire(context.Background(), "acct-1")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	releaseB, err := locker.Acquire(ctx, "acct-2")
	require.NoError(t, err)
	releaseB()
}

func TestReleaseIsIdempotent(t *testing.T) {
	locker := NewLocalAccountLocker()

	release, err := locker.Acquire(context.Background(), "acct-1")
	require.NoError(t, err)

	// Calling release twice must not free the semaphore for a third holder.
	release()
	release()

	again, err := locker.Acquire(context.Background(), "acct-1")
	require.NoError(t, err)
	defer again()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Acquire(ctx, "acct-1")
	require.Error(t, err)
	assert.True(t, ierr.IsLockTimeout(err))
}
