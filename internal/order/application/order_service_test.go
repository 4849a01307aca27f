package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

func TestCreateOrder_WithoutPickupIsReleased(t *testing.T) {
	repo := newFakeOrderRepo()
	sink := &recordingSink{}
	svc := newService(repo, sink)

	order, err := svc.CreateOrder(context.Background(), CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1", "SKU-2")})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderAwaitingFulfillment, order.Status())
	assert.Len(t, order.Lines(), 2)
	assert.Equal(t, []string{domain.EventOrderCreated, domain.EventOrderReadyForFulfillment}, sink.types())
}

func TestCreateOrder_Scheduling(t *testing.T) {
	tests := []struct {
		name   string
		pickup time.Time
		lead   *time.Duration
		want   domain.OrderStatus
	}{
		{"outside window", clock.Add(5 * time.Hour), nil, domain.OrderScheduled},
		{"inside default window", clock.Add(time.Hour), nil, domain.OrderAwaitingFulfillment},
		{"custom lead time", clock.Add(5 * time.Hour), durationPtr(6 * time.Hour), domain.OrderAwaitingFulfillment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(newFakeOrderRepo(), &recordingSink{})
			pickup := tt.pickup

			order, err := svc.CreateOrder(context.Background(), CreateOrderCommand{
				OrderID:             "ORD-1",
				Items:               items("SKU-1"),
				ScheduledPickupTime: &pickup,
				FulfillmentLeadTime: tt.lead,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, order.Status())
		})
	}
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestCreateOrder_Idempotent(t *testing.T) {
	repo := newFakeOrderRepo()
	sink := &recordingSink{}
	svc := newService(repo, sink)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1")})
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-9", "SKU-8")})
	require.NoError(t, err)

	assert.Equal(t, first.Lines()[0].LineID, second.Lines()[0].LineID)
	assert.Equal(t, 1, repo.saves)
	assert.Len(t, sink.events, 2)
}

func TestCreateOrder_Validation(t *testing.T) {
	svc := newService(newFakeOrderRepo(), &recordingSink{})
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: []OrderItem{{SKU: "SKU-1"}}})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestInitiateFulfillment(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newService(repo, &recordingSink{})
	ctx := context.Background()
	pickup := clock.Add(24 * time.Hour)

	_, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1"), ScheduledPickupTime: &pickup})
	require.NoError(t, err)

	require.NoError(t, svc.InitiateFulfillment(ctx, "ORD-1"))
	assert.Equal(t, domain.OrderAwaitingFulfillment, repo.status(t, "ORD-1"))

	err = svc.InitiateFulfillment(ctx, "ORD-1")
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))

	assert.True(t, apperrors.IsNotFound(svc.InitiateFulfillment(ctx, "ORD-404")))
}

func TestFindReadyForFulfillment(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newService(repo, &recordingSink{})
	ctx := context.Background()
	soon := clock.Add(3 * time.Hour)
	later := clock.Add(10 * time.Hour)

	_, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-SOON", Items: items("SKU-1"), ScheduledPickupTime: &soon})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-LATER", Items: items("SKU-1"), ScheduledPickupTime: &later})
	require.NoError(t, err)

	ready, err := svc.FindReadyForFulfillment(ctx, clock)
	require.NoError(t, err)
	assert.Empty(t, ready)

	ready, err = svc.FindReadyForFulfillment(ctx, clock.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "ORD-SOON", ready[0].ID())
}

func TestRecordLineReservation_DuplicateSKUs(t *testing.T) {
	repo := newFakeOrderRepo()
	sink := &recordingSink{}
	svc := newService(repo, sink)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1", "SKU-1")})
	require.NoError(t, err)

	require.NoError(t, svc.RecordLineReservation(ctx, "ORD-1", []string{"SKU-1"}, "TX-1", "E1", "WH001"))
	assert.Equal(t, domain.OrderPartiallyReserved, repo.status(t, "ORD-1"))

	require.NoError(t, svc.RecordLineReservation(ctx, "ORD-1", []string{"SKU-1"}, "TX-2", "E2", "WH001"))
	assert.Equal(t, domain.OrderReserved, repo.status(t, "ORD-1"))
	assert.Contains(t, sink.types(), domain.EventOrderReserved)

	err = svc.RecordLineReservation(ctx, "ORD-1", []string{"SKU-1"}, "TX-3", "E3", "WH001")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRecordLineReservationFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("every line failed", func(t *testing.T) {
		repo := newFakeOrderRepo()
		sink := &recordingSink{}
		svc := newService(repo, sink)
		_, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1", "SKU-2")})
		require.NoError(t, err)

		require.NoError(t, svc.RecordLineReservationFailure(ctx, "ORD-1", []string{"SKU-1"}, "out of stock"))
		assert.Equal(t, domain.OrderAwaitingFulfillment, repo.status(t, "ORD-1"))

		require.NoError(t, svc.RecordLineReservationFailure(ctx, "ORD-1", []string{"SKU-2"}, "out of stock"))
		assert.Equal(t, domain.OrderFailedToReserve, repo.status(t, "ORD-1"))
		assert.Contains(t, sink.types(), domain.EventOrderFulfillmentFailed)
	})

	t.Run("mixed outcome stays partially reserved", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newService(repo, &recordingSink{})
		_, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1", "SKU-2")})
		require.NoError(t, err)

		require.NoError(t, svc.RecordLineReservation(ctx, "ORD-1", []string{"SKU-1"}, "TX-1", "E1", "WH001"))
		require.NoError(t, svc.RecordLineReservationFailure(ctx, "ORD-1", []string{"SKU-2"}, "out of stock"))
		assert.Equal(t, domain.OrderPartiallyReserved, repo.status(t, "ORD-1"))
	})
}

func TestPickingToShipment(t *testing.T) {
	repo := newFakeOrderRepo()
	sink := &recordingSink{}
	svc := newService(repo, sink)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1", "SKU-2")})
	require.NoError(t, err)
	require.NoError(t, svc.RecordLineReservation(ctx, "ORD-1", []string{"SKU-1", "SKU-2"}, "TX-1", "E1", "WH001"))

	err = svc.ShipOrder(ctx, ShipOrderCommand{OrderID: "ORD-1", Carrier: "UPS", TrackingNumber: "1Z"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))

	require.NoError(t, svc.MarkPickingInProgress(ctx, "ORD-1", []string{"SKU-1", "SKU-2"}, "PICK-1"))
	require.NoError(t, svc.CommitPickedLines(ctx, "ORD-1", []string{"SKU-1"}, "WES-1"))
	assert.Equal(t, domain.OrderPartiallyCommitted, repo.status(t, "ORD-1"))

	require.NoError(t, svc.CommitPickedLines(ctx, "ORD-1", []string{"SKU-1", "SKU-2"}, "WES-1"))
	assert.Equal(t, domain.OrderCommitted, repo.status(t, "ORD-1"))

	require.NoError(t, svc.ShipOrder(ctx, ShipOrderCommand{OrderID: "ORD-1", Carrier: "UPS", TrackingNumber: "1Z"}))
	order, err := svc.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderShipped, order.Status())
	shipment, ok := order.Shipment()
	require.True(t, ok)
	assert.Equal(t, "UPS", shipment.Carrier)
}

func TestMarkPickingFailed(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newService(repo, &recordingSink{})
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1")})
	require.NoError(t, err)
	require.NoError(t, svc.RecordLineReservation(ctx, "ORD-1", []string{"SKU-1"}, "TX-1", "E1", "WH001"))

	require.NoError(t, svc.MarkPickingFailed(ctx, "ORD-1", []string{"SKU-1"}, "Failed in WES"))

	order, err := svc.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.True(t, order.Lines()[0].Commitment.IsFailed())
	assert.Equal(t, "Failed in WES", order.Lines()[0].Commitment.FailureReason)
}

func TestListOrdersByStatus(t *testing.T) {
	svc := newService(newFakeOrderRepo(), &recordingSink{})
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderCommand{OrderID: "ORD-1", Items: items("SKU-1")})
	require.NoError(t, err)

	orders, err := svc.ListOrdersByStatus(ctx, domain.OrderAwaitingFulfillment)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	_, err = svc.ListOrdersByStatus(ctx, "LOST")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
