package scheduler

import (
	"context"
	"errors"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/lock"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
)

var errLockNotAcquired = errors.New("lock not acquired")

// withLock runs fn while holding key. It returns errLockNotAcquired when the
// lock is busy. Unlock always runs and its failure is logged, never returned.
func withLock(ctx context.Context, registry lock.Registry, key string, logger *logging.Logger, fn func(context.Context) error) (err error) {
	l := registry.Obtain(key)
	acquired, err := l.TryLock(ctx, LockWait)
	if err != nil {
		return err
	}
	if !acquired {
		logger.WithContext(ctx).Debug("Lock held elsewhere, skipping cycle", "lock", key)
		return errLockNotAcquired
	}

	defer func() {
		// Unlock must not inherit a cancelled cycle context
		if uerr := l.Unlock(context.WithoutCancel(ctx)); uerr != nil {
			logger.WithContext(ctx).Error("Failed to release lock", "lock", key, "error", uerr)
		}
	}()

	return fn(ctx)
}
