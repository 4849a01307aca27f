package scheduler

import (
	"context"
	"errors"

	"github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/lock"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// Observer poll lock keys, one per observer kind
const (
	InventoryObserverLockKey = "inventory-observer-poll"
	OrderObserverLockKey     = "order-observer-poll"
	WesObserverLockKey       = "wes-observer-poll"
)

// ObserverPoller polls every active observer of a kind
type ObserverPoller interface {
	PollAllActive(ctx context.Context, kind domain.ObserverKind) error
}

// ObserverScheduler serializes observer polls per kind across instances
type ObserverScheduler struct {
	kind    domain.ObserverKind
	key     string
	poller  ObserverPoller
	locks   lock.Registry
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// LockKeyFor returns the poll lock key of kind
func LockKeyFor(kind domain.ObserverKind) string {
	switch kind {
	case domain.KindInventory:
		return InventoryObserverLockKey
	case domain.KindOrder:
		return OrderObserverLockKey
	case domain.KindWes:
		return WesObserverLockKey
	default:
		return "observer-poll-" + string(kind)
	}
}

// NewObserverScheduler creates the poll scheduler for one observer kind
func NewObserverScheduler(kind domain.ObserverKind, poller ObserverPoller, locks lock.Registry, logger *logging.Logger, m *metrics.Metrics) *ObserverScheduler {
	key := LockKeyFor(kind)
	return &ObserverScheduler{
		kind:    kind,
		key:     key,
		poller:  poller,
		locks:   locks,
		logger:  logger.WithComponent(key),
		metrics: m,
	}
}

// RunCycle polls all active observers of the scheduler's kind. It reports
// false when the cycle was skipped because the lock was busy.
func (s *ObserverScheduler) RunCycle(ctx context.Context) (bool, error) {
	ctx = logging.ContextWithTrigger(ctx, TriggerSourceScheduler, s.key)

	err := withLock(ctx, s.locks, s.key, s.logger, func(ctx context.Context) error {
		return s.poller.PollAllActive(ctx, s.kind)
	})
	if errors.Is(err, errLockNotAcquired) {
		if s.metrics != nil {
			s.metrics.RecordSchedulerLockSkip(s.key)
		}
		return false, nil
	}
	if s.metrics != nil {
		s.metrics.RecordSchedulerRun(s.key, err == nil)
	}
	return true, err
}

// Run satisfies Job
func (s *ObserverScheduler) Run(ctx context.Context) {
	if _, err := s.RunCycle(ctx); err != nil {
		s.logger.WithContext(ctx).Warn("Observer poll cycle had failures", "kind", s.kind, "error", err)
	}
}
