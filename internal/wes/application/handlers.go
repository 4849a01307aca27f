package application

import (
	"context"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	obsdomain "github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
)

// RegisterHandlers subscribes the service to the WES observer's events
func (s *PickingTaskService) RegisterHandlers(d *events.Dispatcher) {
	events.On(d, s.onWesTaskStatusUpdated)
	events.On(d, s.onWesTaskDiscovered)
}

func (s *PickingTaskService) onWesTaskStatusUpdated(ctx context.Context, e *obsdomain.WesTaskStatusUpdatedEvent) error {
	return s.SyncStatusFromWes(ctx, SyncStatusFromWesCommand{TaskID: e.TaskID, NewStatus: e.NewStatus})
}

func (s *PickingTaskService) onWesTaskDiscovered(ctx context.Context, e *obsdomain.WesTaskDiscoveredEvent) error {
	_, err := s.CreatePickingTaskFromWes(ctx, e.Task)
	return err
}
