package locking

import (
	"context"
	"sync"

	ierr "github.com/flexprice/billrun/internal/errors"
)

// localAccountLocker is a process-local AccountLocker backed by one
// buffered-channel semaphore per account id. Different accounts never
// contend.
type localAccountLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalAccountLocker returns a process-local per-account locker
func NewLocalAccountLocker() AccountLocker {
	return &localAccountLocker{
		locks: make(map[string]chan struct{}),
	}
}

func (l *localAccountLocker) semaphore(accountID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[accountID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[accountID] = sem
	}
	return sem
}

func (l *localAccountLocker) Acquire(ctx context.Context, accountID string) (func(), error) {
	sem := l.semaphore(accountID)

	select {
	case sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-sem })
		}, nil
	case <-ctx.Done():
		return nil, ierr.WithError(ctx.Err()).
			WithHintf("account %s is busy, retry later", accountID).
			Mark(ierr.ErrLockTimeout)
	}
}
