package application

import (
	"context"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	obsdomain "github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
)

// RegisterHandlers subscribes the inventory reactions to picking and
// observation events. Register before the order handlers so stock is
// consumed before the order commits its lines.
func RegisterHandlers(d *events.Dispatcher, inventory *InventoryService, adjustments *AdjustmentService) {
	events.On(d, func(ctx context.Context, e *wesdomain.PickingTaskCompletedEvent) error {
		if !e.IsOrchestratorTask() {
			return nil
		}
		_, err := inventory.ConsumeReservationForOrder(ctx, e.OrderID)
		return err
	})

	events.On(d, func(ctx context.Context, e *wesdomain.PickingTaskCanceledEvent) error {
		if !e.IsOrchestratorTask() {
			return nil
		}
		return inventory.ReleaseReservationForOrder(ctx, e.OrderID)
	})

	events.On(d, func(ctx context.Context, e *obsdomain.InventorySnapshotObservedEvent) error {
		id, err := adjustments.DetectDiscrepancyFromSnapshots(ctx, e.Snapshots)
		if err != nil || id == "" {
			return err
		}
		return adjustments.ApplyAdjustment(ctx, id)
	})
}
