package application

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// Fulfillment modes recorded when an order is created
const (
	ModeImmediate = "immediate"
	ModeScheduled = "scheduled"
)

// OrderService drives the order lifecycle
type OrderService struct {
	repo    domain.OrderRepository
	sink    events.Sink
	logger  *logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	repo domain.OrderRepository,
	sink events.Sink,
	logger *logging.Logger,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		repo:    repo,
		sink:    sink,
		logger:  logger.WithComponent("order-service"),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder creates and persists an order. Creating an order id that
// already exists returns the stored order unchanged.
func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	existing, err := s.repo.FindByID(ctx, cmd.OrderID)
	if err == nil {
		s.logger.WithContext(ctx).Info("Order already exists, skipping creation", "orderId", cmd.OrderID)
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	lines := make([]domain.OrderLineItem, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		line, err := domain.NewOrderLineItem(item.SKU, item.Quantity, item.Price)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	order, err := domain.NewOrder(cmd.OrderID, lines)
	if err != nil {
		return nil, err
	}

	mode := ModeImmediate
	if cmd.ScheduledPickupTime != nil {
		mode = ModeScheduled
		if err := s.schedule(order, *cmd.ScheduledPickupTime, cmd.FulfillmentLeadTime); err != nil {
			return nil, err
		}
	} else if err := order.MarkReadyForFulfillment(); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("Order created",
		"orderId", order.ID(),
		"status", order.Status(),
		"lines", len(lines),
		"mode", mode,
	)
	if s.metrics != nil {
		s.metrics.RecordOrderCreated(mode)
	}
	return order, nil
}

// ScheduleOrder schedules a CREATED order for later fulfillment
func (s *OrderService) ScheduleOrder(ctx context.Context, cmd ScheduleOrderCommand) error {
	order, err := s.repo.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if err := s.schedule(order, cmd.ScheduledPickupTime, cmd.FulfillmentLeadTime); err != nil {
		return err
	}
	return s.persist(ctx, order)
}

// schedule applies the pickup time and releases the order at once when its
// fulfillment window is already open
func (s *OrderService) schedule(order *domain.Order, at time.Time, lead *time.Duration) error {
	pickup, err := domain.NewScheduledPickupTime(at)
	if err != nil {
		return err
	}
	leadTime := domain.DefaultFulfillmentLeadTime()
	if lead != nil {
		if leadTime, err = domain.NewFulfillmentLeadTime(*lead); err != nil {
			return err
		}
	}
	if err := order.ScheduleForLaterFulfillment(pickup, leadTime); err != nil {
		return err
	}
	if order.IsReadyForFulfillment(s.now()) {
		return order.MarkReadyForFulfillment()
	}
	return nil
}

// InitiateFulfillment releases a CREATED or SCHEDULED order for fulfillment
func (s *OrderService) InitiateFulfillment(ctx context.Context, orderID string) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	err = order.MarkReadyForFulfillment()
	if err == nil {
		err = s.persist(ctx, order)
	}
	if s.metrics != nil {
		s.metrics.RecordFulfillmentInitiated(err == nil)
	}
	return err
}

// FindReadyForFulfillment returns the SCHEDULED orders whose fulfillment window is open at now
func (s *OrderService) FindReadyForFulfillment(ctx context.Context, now time.Time) ([]*domain.Order, error) {
	candidates, err := s.repo.FindScheduledReadyForFulfillment(ctx, now)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(candidates, func(o *domain.Order) bool {
		return !o.IsReadyForFulfillment(now)
	}), nil
}

// ShipOrder records the shipment of a COMMITTED order
func (s *OrderService) ShipOrder(ctx context.Context, cmd ShipOrderCommand) error {
	info, err := domain.NewShipmentInfo(cmd.Carrier, cmd.TrackingNumber)
	if err != nil {
		return err
	}
	return s.update(ctx, cmd.OrderID, func(order *domain.Order) error {
		return order.MarkAsShipped(info)
	})
}

// GetOrder returns one order
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

// ListOrdersByStatus returns the orders in status
func (s *OrderService) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError("status", "unknown order status "+string(status))
	}
	return s.repo.FindByStatus(ctx, status)
}

// RecordLineReservation marks one unreserved line per sku as reserved by transactionID
func (s *OrderService) RecordLineReservation(ctx context.Context, orderID string, skus []string, transactionID, externalReservationID, warehouseID string) error {
	return s.update(ctx, orderID, func(order *domain.Order) error {
		for _, sku := range skus {
			line, ok := firstLine(order, sku, func(l domain.OrderLineItem) bool { return !l.IsReserved() })
			if !ok {
				return apperrors.NewNotFoundError("unreserved order line", orderID+"/"+sku)
			}
			if err := order.ReserveLineItem(line.LineID, transactionID, externalReservationID, warehouseID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordLineReservationFailure marks one pending line per sku as failed. Once
// no line is reserved or still pending, the order fails to reserve.
func (s *OrderService) RecordLineReservationFailure(ctx context.Context, orderID string, skus []string, reason string) error {
	return s.update(ctx, orderID, func(order *domain.Order) error {
		for _, sku := range skus {
			line, ok := firstLine(order, sku, func(l domain.OrderLineItem) bool {
				return !l.IsReserved() && !l.Reservation.IsFailed()
			})
			if !ok {
				continue
			}
			if err := order.MarkLineReservationFailed(line.LineID, reason); err != nil {
				return err
			}
		}
		if order.Status().CanFailToReserve() && !order.IsPartiallyReserved() && !order.HasPendingReservations() {
			return order.MarkAsFailedToReserve(reason)
		}
		return nil
	})
}

// MarkPickingInProgress links the lines of skus to a submitted picking task
func (s *OrderService) MarkPickingInProgress(ctx context.Context, orderID string, skus []string, pickingTaskID string) error {
	return s.update(ctx, orderID, func(order *domain.Order) error {
		return order.MarkItemsAsPickingInProgress(skus, pickingTaskID)
	})
}

// CommitPickedLines commits every reserved, uncommitted line whose sku was picked
func (s *OrderService) CommitPickedLines(ctx context.Context, orderID string, skus []string, wesTransactionID string) error {
	return s.update(ctx, orderID, func(order *domain.Order) error {
		for _, line := range pickable(order, skus) {
			if err := order.CommitLineItem(line.LineID, wesTransactionID); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkPickingFailed records a failed commitment on every reserved, uncommitted line of skus
func (s *OrderService) MarkPickingFailed(ctx context.Context, orderID string, skus []string, reason string) error {
	return s.update(ctx, orderID, func(order *domain.Order) error {
		for _, line := range pickable(order, skus) {
			if err := order.MarkLineCommitmentFailed(line.LineID, reason); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrderService) update(ctx context.Context, orderID string, mutate func(*domain.Order) error) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := mutate(order); err != nil {
		return err
	}
	return s.persist(ctx, order)
}

func (s *OrderService) persist(ctx context.Context, order *domain.Order) error {
	if err := s.repo.Save(ctx, order); err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID(), err)
	}
	if err := events.Flush(ctx, s.sink, order.PullEvents()); err != nil {
		return fmt.Errorf("failed to publish events of order %s: %w", order.ID(), err)
	}
	return nil
}

func firstLine(order *domain.Order, sku string, match func(domain.OrderLineItem) bool) (domain.OrderLineItem, bool) {
	for _, line := range order.Lines() {
		if line.SKU == sku && match(line) {
			return line, true
		}
	}
	return domain.OrderLineItem{}, false
}

func pickable(order *domain.Order, skus []string) []domain.OrderLineItem {
	var out []domain.OrderLineItem
	for _, line := range order.Lines() {
		if slices.Contains(skus, line.SKU) && line.IsReserved() && !line.IsCommitted() && !line.Commitment.IsFailed() {
			out = append(out, line)
		}
	}
	return out
}
