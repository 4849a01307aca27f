package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	testutil "github.com/wms-platform/fulfillment-orchestrator/pkg/testing"
)

func TestPickingTaskDocument_PreservesState(t *testing.T) {
	task, err := domain.NewPickingTaskForOrder("ORD-1", []domain.TaskItem{{SKU: "SKU-1", Quantity: 2, Location: "WH001"}}, 5)
	require.NoError(t, err)
	require.NoError(t, task.SubmitToWes("WES-1"))

	assert.Equal(t, task.State(), toDocument(task).toDomain().State())
}

func TestPickingTaskRepository_Integration(t *testing.T) {
	db := testutil.MongoDatabase(t)
	ctx := context.Background()

	repo, err := NewPickingTaskRepository(ctx, db, nil)
	require.NoError(t, err)

	items := []domain.TaskItem{{SKU: "SKU-1", Quantity: 2, Location: "WH001"}}
	first, err := domain.NewPickingTaskForOrder("ORD-1", items, 5)
	require.NoError(t, err)
	second, err := domain.NewPickingTaskForOrder("ORD-1", items, 3)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second), "unsubmitted tasks share an empty WES id")

	require.NoError(t, first.SubmitToWes("WES-1"))
	require.NoError(t, repo.Save(ctx, first))

	found, err := repo.FindByWesTaskID(ctx, "WES-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID(), found.ID())
	assert.Equal(t, domain.TaskSubmitted, found.Status())
	assert.Equal(t, items, found.Items())

	byOrder, err := repo.FindByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Len(t, byOrder, 2)

	pending, err := repo.FindByStatus(ctx, domain.TaskPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID(), pending[0].ID())

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = repo.FindByWesTaskID(ctx, "WES-404")
	assert.True(t, apperrors.IsNotFound(err))
}
