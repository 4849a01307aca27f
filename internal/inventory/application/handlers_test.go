package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	obsdomain "github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

func TestHandlers_PickingOutcomes(t *testing.T) {
	ctx := context.Background()
	port := &fakeInventoryPort{}
	svc := newInventoryService(newFakeTxRepo(), port, &recordingSink{})
	d := events.NewDispatcher(nopLogger())
	RegisterHandlers(d, svc, newAdjustmentFixture().svc)

	for _, order := range []string{"ORD-1", "ORD-2"} {
		_, err := svc.ReserveInventory(ctx, ReserveInventoryCommand{OrderID: order, SKU: "SKU-" + order, WarehouseID: "WH1", Quantity: 1})
		require.NoError(t, err)
	}

	require.NoError(t, d.Publish(ctx, &wesdomain.PickingTaskCompletedEvent{
		PickingTaskEventBase: wesdomain.PickingTaskEventBase{TaskID: "PICK-9", Origin: wesdomain.OriginWesDirect},
	}))
	assert.Empty(t, port.consumed)

	require.NoError(t, d.Publish(ctx, &wesdomain.PickingTaskCompletedEvent{
		PickingTaskEventBase: wesdomain.PickingTaskEventBase{TaskID: "PICK-1", OrderID: "ORD-1", Origin: wesdomain.OriginOrchestratorSubmitted},
		WesTaskID:            "WES-1",
	}))
	assert.Equal(t, []domain.ExternalReservationID{"EXT-SKU-ORD-1"}, port.consumed)

	require.NoError(t, d.Publish(ctx, &wesdomain.PickingTaskCanceledEvent{
		PickingTaskEventBase: wesdomain.PickingTaskEventBase{TaskID: "PICK-2", OrderID: "ORD-2", Origin: wesdomain.OriginOrchestratorSubmitted},
		Reason:               wesdomain.ReasonCanceledInWes,
	}))
	assert.Equal(t, []domain.ExternalReservationID{"EXT-SKU-ORD-2"}, port.released)
}

func TestHandlers_SnapshotObservedAppliesAdjustment(t *testing.T) {
	f := newAdjustmentFixture()
	f.reference.snapshots = []domain.StockSnapshot{stock("WH1", "SKU1", 8), stock("WH1", "SKU2", 4)}
	inventory := NewInventoryService(f.txs, f.port, f.sink, nopLogger(), metrics.New(metrics.DefaultConfig("test")))
	d := events.NewDispatcher(nopLogger())
	RegisterHandlers(d, inventory, f.svc)

	require.NoError(t, d.Publish(context.Background(), &obsdomain.InventorySnapshotObservedEvent{
		ObserverEventBase: obsdomain.ObserverEventBase{ObserverID: "OBS-1", Kind: obsdomain.KindInventory},
		Snapshots:         []domain.StockSnapshot{stock("WH1", "SKU1", 5), stock("WH1", "SKU2", 4)},
	}))

	require.Len(t, f.port.adjusted, 1)
	assert.Equal(t, "SKU1", f.port.adjusted[0].sku)
	assert.Len(t, f.txs.byType(domain.TransactionAdjustment), 1)
}
