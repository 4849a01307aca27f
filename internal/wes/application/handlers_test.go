package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	obsdomain "github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	"github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
)

func TestHandlers_FollowWesObserver(t *testing.T) {
	repo := newFakeTaskRepo()
	sink := &recordingSink{}
	svc := newService(repo, &fakeWesPort{}, sink)
	d := events.NewDispatcher(logging.NewNop())
	svc.RegisterHandlers(d)
	task := storedTask(t, repo, "WES-1")
	ctx := context.Background()

	require.NoError(t, d.Publish(ctx, &obsdomain.WesTaskStatusUpdatedEvent{
		TaskID: task.ID(), WesTaskID: "WES-1",
		PreviousStatus: domain.TaskSubmitted, NewStatus: domain.TaskCompleted,
	}))
	require.NoError(t, d.Publish(ctx, &obsdomain.WesTaskDiscoveredEvent{
		Task: domain.WesTaskRecord{WesTaskID: "WES-2", Priority: 4, Status: domain.TaskSubmitted},
	}))

	completed, _ := repo.FindByID(ctx, task.ID())
	assert.Equal(t, domain.TaskCompleted, completed.Status())

	discovered, err := repo.FindByWesTaskID(ctx, "WES-2")
	require.NoError(t, err)
	assert.Equal(t, domain.OriginWesDirect, discovered.Origin())
	assert.Equal(t, 4, discovered.Priority())
}
