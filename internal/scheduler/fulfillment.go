package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/lock"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// FulfillmentLockKey guards the fulfillment initiation cycle across instances
const FulfillmentLockKey = "order-fulfillment-initiation"

// LockWait bounds how long a cycle waits for its lock before it is skipped
const LockWait = time.Second

// TriggerSourceScheduler marks work started by a scheduled cycle
const TriggerSourceScheduler = "scheduler"

// OrderFulfillment is the part of the order service the scheduler drives
type OrderFulfillment interface {
	FindReadyForFulfillment(ctx context.Context, now time.Time) ([]*domain.Order, error)
	InitiateFulfillment(ctx context.Context, orderID string) error
}

// CycleResult summarises one scheduler cycle
type CycleResult struct {
	Skipped   bool
	Initiated int
	Failed    int
}

// FulfillmentScheduler releases scheduled orders once their fulfillment window opens
type FulfillmentScheduler struct {
	orders  OrderFulfillment
	locks   lock.Registry
	logger  *logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewFulfillmentScheduler creates a FulfillmentScheduler
func NewFulfillmentScheduler(orders OrderFulfillment, locks lock.Registry, logger *logging.Logger, m *metrics.Metrics) *FulfillmentScheduler {
	return &FulfillmentScheduler{
		orders:  orders,
		locks:   locks,
		logger:  logger.WithComponent("fulfillment-scheduler"),
		metrics: m,
		now:     time.Now,
	}
}

// RunCycle initiates fulfillment for every ready order. The cycle is skipped
// when another instance holds the lock. One order failing does not stop the
// others.
func (s *FulfillmentScheduler) RunCycle(ctx context.Context) (CycleResult, error) {
	ctx = logging.ContextWithTrigger(ctx, TriggerSourceScheduler, FulfillmentLockKey)

	var result CycleResult
	err := withLock(ctx, s.locks, FulfillmentLockKey, s.logger, func(ctx context.Context) error {
		now := s.now()
		orders, err := s.orders.FindReadyForFulfillment(ctx, now)
		if err != nil {
			return err
		}

		for _, order := range orders {
			if err := s.orders.InitiateFulfillment(ctx, order.ID()); err != nil {
				result.Failed++
				s.logger.WithContext(ctx).Error("Failed to initiate fulfillment", "orderId", order.ID(), "error", err)
				continue
			}
			result.Initiated++
		}
		if len(orders) > 0 {
			s.logger.WithContext(ctx).Info("Fulfillment cycle finished",
				"ready", len(orders), "initiated", result.Initiated, "failed", result.Failed)
		}
		return nil
	})
	if errors.Is(err, errLockNotAcquired) {
		result.Skipped = true
		s.recordSkip()
		return result, nil
	}

	if s.metrics != nil {
		s.metrics.RecordSchedulerRun(FulfillmentLockKey, err == nil)
	}
	return result, err
}

// Run satisfies Job
func (s *FulfillmentScheduler) Run(ctx context.Context) {
	if _, err := s.RunCycle(ctx); err != nil {
		s.logger.WithContext(ctx).Error("Fulfillment cycle failed", "error", err)
	}
}

func (s *FulfillmentScheduler) recordSkip() {
	if s.metrics != nil {
		s.metrics.RecordSchedulerLockSkip(FulfillmentLockKey)
	}
}
