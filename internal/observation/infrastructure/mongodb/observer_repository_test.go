package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	testutil "github.com/wms-platform/fulfillment-orchestrator/pkg/testing"
)

func every(t *testing.T, d time.Duration) domain.PollingInterval {
	t.Helper()
	p, err := domain.NewPollingInterval(d)
	require.NoError(t, err)
	return p
}

func TestObserverRepositories_Integration(t *testing.T) {
	db := testutil.MongoDatabase(t)
	ctx := context.Background()

	inventoryRepo, err := NewInventoryObserverRepository(ctx, db, nil)
	require.NoError(t, err)
	orderRepo, err := NewOrderObserverRepository(ctx, db, nil)
	require.NoError(t, err)
	wesRepo, err := NewWesObserverRepository(ctx, db, nil)
	require.NoError(t, err)

	rule, err := domain.NewObservationRule(5, 1)
	require.NoError(t, err)
	inventory, err := domain.NewInventoryObserver("OBS-INV", rule, every(t, time.Minute))
	require.NoError(t, err)
	require.NoError(t, inventoryRepo.Save(ctx, inventory))

	endpoint, err := domain.NewSourceEndpoint("postgres://orders/db", "reader", "secret")
	require.NoError(t, err)
	orders, err := domain.NewOrderObserver("OBS-ORD", endpoint, every(t, 30*time.Second))
	require.NoError(t, err)
	orders.Deactivate()
	require.NoError(t, orderRepo.Save(ctx, orders))

	tasks, err := domain.NewTaskEndpoint("http://wes:8080", "token")
	require.NoError(t, err)
	wes, err := domain.NewWesObserver("OBS-WES", tasks, every(t, 15*time.Second))
	require.NoError(t, err)
	require.NoError(t, wesRepo.Save(ctx, wes))

	foundInventory, err := inventoryRepo.FindByID(ctx, "OBS-INV")
	require.NoError(t, err)
	assert.Equal(t, rule, foundInventory.State().Rule)
	assert.Equal(t, time.Minute, foundInventory.PollingInterval().Duration())

	foundOrders, err := orderRepo.FindByID(ctx, "OBS-ORD")
	require.NoError(t, err)
	assert.Equal(t, endpoint, foundOrders.State().Endpoint)
	assert.False(t, foundOrders.IsActive())

	activeOrders, err := orderRepo.FindAllActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, activeOrders)

	allWes, err := wesRepo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, allWes, 1, "kinds share a collection but not their queries")
	assert.Equal(t, tasks, allWes[0].State().Endpoint)

	_, err = wesRepo.FindByID(ctx, "OBS-INV")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestScheduleDocument_Mapping(t *testing.T) {
	polled := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	state := domain.ScheduleState{ID: "OBS-1", PollingInterval: 90 * time.Second, LastPolledAt: &polled, Active: true}

	doc := toScheduleDocument(domain.KindWes, state)
	assert.Equal(t, "WES", doc.Kind)
	assert.Equal(t, int64(90000), doc.PollingIntervalMillis)
	assert.Equal(t, state, doc.state())
}
