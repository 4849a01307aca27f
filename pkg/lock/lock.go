// Package lock provides named cross-process mutual exclusion for
// periodic jobs.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotHeld is returned by Unlock when the caller does not own the lock
var ErrNotHeld = errors.New("lock not held")

// Lock is a named lock obtained from a Registry
type Lock interface {
	// TryLock waits up to wait for the lock and reports whether it was acquired
	TryLock(ctx context.Context, wait time.Duration) (bool, error)
	Unlock(ctx context.Context) error
}

// Registry hands out locks by key
type Registry interface {
	Obtain(key string) Lock
}

// retryInterval is how often TryLock re-attempts acquisition while waiting
const retryInterval = 100 * time.Millisecond

// tryUntil calls attempt until it succeeds, fails, or wait elapses
func tryUntil(ctx context.Context, wait time.Duration, attempt func(context.Context) (bool, error)) (bool, error) {
	deadline := time.Now().Add(wait)
	for {
		ok, err := attempt(ctx)
		if err != nil || ok {
			return ok, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}

		timer := time.NewTimer(min(retryInterval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}

// LocalRegistry is an in-process Registry for single-instance deployments and tests
type LocalRegistry struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalRegistry creates an empty LocalRegistry
func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{held: make(map[string]bool)}
}

// Obtain returns the lock for key
func (r *LocalRegistry) Obtain(key string) Lock {
	return &localLock{registry: r, key: key}
}

type localLock struct {
	registry *LocalRegistry
	key      string
	owned    bool
}

func (l *localLock) TryLock(ctx context.Context, wait time.Duration) (bool, error) {
	ok, err := tryUntil(ctx, wait, func(context.Context) (bool, error) {
		l.registry.mu.Lock()
		defer l.registry.mu.Unlock()
		if l.registry.held[l.key] {
			return false, nil
		}
		l.registry.held[l.key] = true
		return true, nil
	})
	if ok {
		l.owned = true
	}
	return ok, err
}

func (l *localLock) Unlock(ctx context.Context) error {
	if !l.owned {
		return ErrNotHeld
	}
	l.registry.mu.Lock()
	defer l.registry.mu.Unlock()
	delete(l.registry.held, l.key)
	l.owned = false
	return nil
}
