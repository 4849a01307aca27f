package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	invapp "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/application"
	invdomain "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	obsdomain "github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
)

var errOutOfStock = errors.New("out of stock")

type choreographyFixture struct {
	dispatcher *events.Dispatcher
	repo       *fakeOrderRepo
	orders     *OrderService
	reserver   *fakeReserver
	picking    *fakePickingCreator
	ack        *fakeAcknowledger
}

// newChoreographyFixture wires the handlers to a dispatcher and answers
// reservations the way the inventory service does: SKUs named OOS fail.
func newChoreographyFixture() *choreographyFixture {
	f := &choreographyFixture{
		dispatcher: events.NewDispatcher(logging.NewNop()),
		repo:       newFakeOrderRepo(),
		picking:    &fakePickingCreator{},
		ack:        &fakeAcknowledger{},
	}
	f.orders = newService(f.repo, f.dispatcher)
	f.reserver = &fakeReserver{respond: func(ctx context.Context, cmd invapp.ReserveInventoryCommand) (string, error) {
		txID := "TX-" + cmd.SKU
		if cmd.SKU == "OOS" {
			_ = f.dispatcher.Publish(ctx, &invdomain.ReservationFailedEvent{
				TransactionEventBase: invdomain.TransactionEventBase{TransactionID: txID},
				OrderID:              cmd.OrderID,
				SKUs:                 []string{cmd.SKU},
				Reason:               errOutOfStock.Error(),
			})
			return "", errOutOfStock
		}
		_ = f.dispatcher.Publish(ctx, &invdomain.InventoryReservedEvent{
			TransactionEventBase:  invdomain.TransactionEventBase{TransactionID: txID},
			OrderID:               cmd.OrderID,
			SKUs:                  []string{cmd.SKU},
			ExternalReservationID: "E-" + cmd.SKU,
			WarehouseID:           cmd.WarehouseID,
		})
		return txID, nil
	}}
	NewChoreography(f.orders, f.reserver, f.picking, f.ack, "WH001", logging.NewNop()).Register(f.dispatcher)
	return f
}

func orchestratorBase(orderID string) wesdomain.PickingTaskEventBase {
	return wesdomain.PickingTaskEventBase{TaskID: "PICK-1", OrderID: orderID, Origin: wesdomain.OriginOrchestratorSubmitted}
}

func TestChoreography_OrderToCommitted(t *testing.T) {
	f := newChoreographyFixture()
	ctx := context.Background()

	_, err := f.orders.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1", "SKU-2")})
	require.NoError(t, err)

	require.Len(t, f.reserver.calls, 2)
	assert.Equal(t, "WH001", f.reserver.calls[0].WarehouseID)
	assert.Equal(t, 2, f.reserver.calls[1].Quantity)
	assert.Equal(t, domain.OrderReserved, f.repo.status(t, "ORD-1"))

	require.Len(t, f.picking.calls, 1)
	task := f.picking.calls[0]
	assert.Equal(t, "ORD-1", task.OrderID)
	assert.Equal(t, PickingPriority, task.Priority)
	assert.Equal(t, []wesdomain.TaskItem{
		{SKU: "SKU-1", Quantity: 2, Location: "WH001"},
		{SKU: "SKU-2", Quantity: 2, Location: "WH001"},
	}, task.Items)

	require.NoError(t, f.dispatcher.Publish(ctx, &wesdomain.PickingTaskSubmittedEvent{
		PickingTaskEventBase: orchestratorBase("ORD-1"), WesTaskID: "WES-1", Items: task.Items,
	}))
	order, err := f.orders.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "PICK-1", order.Lines()[0].Commitment.Reference)

	require.NoError(t, f.dispatcher.Publish(ctx, &wesdomain.PickingTaskCompletedEvent{
		PickingTaskEventBase: orchestratorBase("ORD-1"), WesTaskID: "WES-1", Items: task.Items,
	}))
	order, err = f.orders.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCommitted, order.Status())
	assert.Equal(t, "WES-1", order.Lines()[1].Commitment.Reference)
}

func TestChoreography_AllLinesOutOfStock(t *testing.T) {
	f := newChoreographyFixture()

	_, err := f.orders.CreateOrder(context.Background(), CreateOrderCommand{OrderID: "ORD-1", Items: items("OOS")})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderFailedToReserve, f.repo.status(t, "ORD-1"))
	assert.Empty(t, f.picking.calls)
}

func TestChoreography_PickingFailed(t *testing.T) {
	f := newChoreographyFixture()
	ctx := context.Background()

	_, err := f.orders.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1")})
	require.NoError(t, err)

	require.NoError(t, f.dispatcher.Publish(ctx, &wesdomain.PickingTaskFailedEvent{
		PickingTaskEventBase: orchestratorBase("ORD-1"),
		Items:                f.picking.calls[0].Items,
		Reason:               wesdomain.ReasonFailedInWes,
	}))

	order, err := f.orders.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.True(t, order.Lines()[0].Commitment.IsFailed())
	assert.Equal(t, domain.OrderReserved, order.Status())
}

func TestChoreography_IgnoresWesDirectTasks(t *testing.T) {
	f := newChoreographyFixture()
	ctx := context.Background()

	require.NoError(t, f.dispatcher.Publish(ctx, &wesdomain.PickingTaskCompletedEvent{
		PickingTaskEventBase: wesdomain.PickingTaskEventBase{TaskID: "PICK-9", Origin: wesdomain.OriginWesDirect},
		WesTaskID:            "WES-9",
		Items:                []wesdomain.TaskItem{{SKU: "SKU-1", Quantity: 1}},
	}))

	assert.Zero(t, f.repo.saves)
}

func TestChoreography_NewOrderObserved(t *testing.T) {
	f := newChoreographyFixture()
	ctx := context.Background()
	event := &obsdomain.NewOrderObservedEvent{
		ObserverEventBase: obsdomain.ObserverEventBase{ObserverID: "OBS-1", Kind: obsdomain.KindOrder},
		Order: obsdomain.ObservationResult{
			OrderID: "EXT-1",
			Items: []obsdomain.ObservedOrderItem{
				{SKU: "SKU-1", ProductName: "Widget", Quantity: 3, Price: decimal.RequireFromString("1.25")},
			},
		},
	}

	require.NoError(t, f.dispatcher.Publish(ctx, event))
	require.NoError(t, f.dispatcher.Publish(ctx, event))

	order, err := f.orders.GetOrder(ctx, "EXT-1")
	require.NoError(t, err)
	assert.Equal(t, 3, order.Lines()[0].Quantity)
	assert.Len(t, f.reserver.calls, 1, "a redelivered observation does not create the order twice")
	assert.Equal(t, []ackCall{{"OBS-1", "EXT-1"}, {"OBS-1", "EXT-1"}}, f.ack.calls)
}
