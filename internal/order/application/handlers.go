package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	invapp "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/application"
	invdomain "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	obsdomain "github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	wesapp "github.com/wms-platform/fulfillment-orchestrator/internal/wes/application"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
)

// PickingPriority is the priority of tasks created for reserved orders
const PickingPriority = wesdomain.DefaultPriority

// InventoryReserver reserves stock for one order line
type InventoryReserver interface {
	ReserveInventory(ctx context.Context, cmd invapp.ReserveInventoryCommand) (string, error)
}

// PickingTaskCreator creates and submits a picking task for a reserved order
type PickingTaskCreator interface {
	CreatePickingTaskForOrder(ctx context.Context, cmd wesapp.CreatePickingTaskForOrderCommand) (string, error)
}

// ObservedOrderAcknowledger tells an order source that an order was taken over
type ObservedOrderAcknowledger interface {
	AcknowledgeOrder(ctx context.Context, observerID, orderID string) error
}

// Choreography reacts to inventory, WES and observation events on behalf of orders
type Choreography struct {
	orders      *OrderService
	inventory   InventoryReserver
	picking     PickingTaskCreator
	ack         ObservedOrderAcknowledger
	warehouseID string
	logger      *logging.Logger
}

// NewChoreography creates the order event handlers. Lines are reserved in warehouseID.
func NewChoreography(
	orders *OrderService,
	inventory InventoryReserver,
	picking PickingTaskCreator,
	ack ObservedOrderAcknowledger,
	warehouseID string,
	logger *logging.Logger,
) *Choreography {
	return &Choreography{
		orders:      orders,
		inventory:   inventory,
		picking:     picking,
		ack:         ack,
		warehouseID: warehouseID,
		logger:      logger.WithComponent("order-choreography"),
	}
}

// Register subscribes every handler on d
func (c *Choreography) Register(d *events.Dispatcher) {
	events.On(d, c.onReadyForFulfillment)
	events.On(d, c.onInventoryReserved)
	events.On(d, c.onReservationFailed)
	events.On(d, c.onOrderReserved)
	events.On(d, c.onPickingTaskSubmitted)
	events.On(d, c.onPickingTaskCompleted)
	events.On(d, c.onPickingTaskFailed)
	events.On(d, c.onNewOrderObserved)
}

// onReadyForFulfillment reserves every line. A failed reservation is
// recorded on the order by onReservationFailed, so the remaining lines are
// still attempted.
func (c *Choreography) onReadyForFulfillment(ctx context.Context, e *domain.OrderReadyForFulfillmentEvent) error {
	order, err := c.orders.GetOrder(ctx, e.OrderID)
	if err != nil {
		return err
	}
	var errs []error
	for _, line := range order.Lines() {
		_, err := c.inventory.ReserveInventory(ctx, invapp.ReserveInventoryCommand{
			OrderID:     order.ID(),
			SKU:         line.SKU,
			WarehouseID: c.warehouseID,
			Quantity:    line.Quantity,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("reserve %s: %w", line.SKU, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Choreography) onInventoryReserved(ctx context.Context, e *invdomain.InventoryReservedEvent) error {
	if e.OrderID == "" {
		return nil
	}
	return c.orders.RecordLineReservation(ctx, e.OrderID, e.SKUs, e.TransactionID, e.ExternalReservationID, e.WarehouseID)
}

func (c *Choreography) onReservationFailed(ctx context.Context, e *invdomain.ReservationFailedEvent) error {
	if e.OrderID == "" {
		return nil
	}
	return c.orders.RecordLineReservationFailure(ctx, e.OrderID, e.SKUs, e.Reason)
}

func (c *Choreography) onOrderReserved(ctx context.Context, e *domain.OrderReservedEvent) error {
	order, err := c.orders.GetOrder(ctx, e.OrderID)
	if err != nil {
		return err
	}
	lines := order.ReservedLines()
	items := make([]wesdomain.TaskItem, 0, len(lines))
	for _, line := range lines {
		item, err := wesdomain.NewTaskItem(line.SKU, line.Quantity, line.Reservation.WarehouseID)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	taskID, err := c.picking.CreatePickingTaskForOrder(ctx, wesapp.CreatePickingTaskForOrderCommand{
		OrderID:  order.ID(),
		Items:    items,
		Priority: PickingPriority,
	})
	if err != nil {
		return err
	}
	c.logger.WithContext(ctx).Info("Picking task created for reserved order", "orderId", order.ID(), "taskId", taskID)
	return nil
}

func (c *Choreography) onPickingTaskSubmitted(ctx context.Context, e *wesdomain.PickingTaskSubmittedEvent) error {
	if !e.IsOrchestratorTask() {
		return nil
	}
	return c.orders.MarkPickingInProgress(ctx, e.OrderID, wesdomain.SKUs(e.Items), e.TaskID)
}

func (c *Choreography) onPickingTaskCompleted(ctx context.Context, e *wesdomain.PickingTaskCompletedEvent) error {
	if !e.IsOrchestratorTask() {
		return nil
	}
	reference := string(e.WesTaskID)
	if reference == "" {
		reference = e.TaskID
	}
	return c.orders.CommitPickedLines(ctx, e.OrderID, wesdomain.SKUs(e.Items), reference)
}

func (c *Choreography) onPickingTaskFailed(ctx context.Context, e *wesdomain.PickingTaskFailedEvent) error {
	if !e.IsOrchestratorTask() {
		return nil
	}
	return c.orders.MarkPickingFailed(ctx, e.OrderID, wesdomain.SKUs(e.Items), e.Reason)
}

// onNewOrderObserved takes over an order found in an external source and
// acknowledges it there once stored
func (c *Choreography) onNewOrderObserved(ctx context.Context, e *obsdomain.NewOrderObservedEvent) error {
	observed := e.Order
	items := make([]OrderItem, 0, len(observed.Items))
	for _, item := range observed.Items {
		items = append(items, OrderItem{SKU: item.SKU, Quantity: item.Quantity, Price: item.Price})
	}
	if _, err := c.orders.CreateOrder(ctx, CreateOrderCommand{
		OrderID:             observed.OrderID,
		Items:               items,
		ScheduledPickupTime: observed.ScheduledPickupTime,
	}); err != nil {
		return err
	}
	return c.ack.AcknowledgeOrder(ctx, e.ObserverID, observed.OrderID)
}
