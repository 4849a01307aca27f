package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invdomain "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	"github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

func createWesObserver(t *testing.T, f *fixture, id string) {
	t.Helper()
	_, err := f.svc.CreateWesObserver(context.Background(), CreateWesObserverCommand{
		ObserverID: id, URL: "http://wes:8080", AuthToken: "token", PollingInterval: 30 * time.Second,
	})
	require.NoError(t, err)
}

func TestCreateObservers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	invID, err := f.svc.CreateInventoryObserver(ctx, CreateInventoryObserverCommand{
		ThresholdPercent: 5, CheckFrequency: 1, PollingInterval: time.Minute,
	})
	require.NoError(t, err)
	assert.Contains(t, invID, "OBS-")

	ordID, err := f.svc.CreateOrderObserver(ctx, CreateOrderObserverCommand{
		ObserverID: "orders", DSN: "postgres://orders", Username: "reader", PollingInterval: 10 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "orders", ordID)

	_, err = f.svc.CreateWesObserver(ctx, CreateWesObserverCommand{URL: "http://wes", AuthToken: "t", PollingInterval: 5 * time.Second})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	listed, err := f.svc.ListObservers(ctx, domain.KindOrder)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Active)
	assert.Nil(t, listed[0].LastPolledAt)
}

func TestPollObserver_Inventory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, err := f.svc.CreateInventoryObserver(ctx, CreateInventoryObserverCommand{
		ObserverID: "inv", ThresholdPercent: 5, CheckFrequency: 1, PollingInterval: time.Minute,
	})
	require.NoError(t, err)
	f.invSource.rows = []invdomain.InventorySnapshot{{SKU: "SKU-1", WarehouseID: "WH001", AvailableQuantity: 3, UpdatedAt: f.clock}}

	require.NoError(t, f.svc.PollObserver(ctx, domain.KindInventory, id))
	assert.Equal(t, []string{domain.EventInventorySnapshotObserved}, f.sink.types())

	stored, err := f.inventory.FindByID(ctx, id)
	require.NoError(t, err)
	last, ok := stored.LastPolledAt()
	require.True(t, ok)
	assert.Equal(t, f.clock, last)

	require.NoError(t, f.svc.PollObserver(ctx, domain.KindInventory, id))
	assert.Len(t, f.sink.events, 1, "not due again within the interval")
}

func TestPollObserver_FetchFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, err := f.svc.CreateInventoryObserver(ctx, CreateInventoryObserverCommand{
		ObserverID: "inv", ThresholdPercent: 5, CheckFrequency: 1, PollingInterval: time.Minute,
	})
	require.NoError(t, err)
	down := errors.New("inventory down")
	f.invSource.err = down

	err = f.svc.PollObserver(ctx, domain.KindInventory, id)
	require.ErrorIs(t, err, down)
	assert.Empty(t, f.sink.events)
}

func TestPollAllActive_Wes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	createWesObserver(t, f, "wes-a")
	createWesObserver(t, f, "wes-b")
	require.NoError(t, f.svc.Deactivate(ctx, domain.KindWes, "wes-b"))

	item, err := wesdomain.NewTaskItem("SKU-1", 1, "WH001")
	require.NoError(t, err)
	task, err := wesdomain.NewPickingTaskForOrder("ORD-1", []wesdomain.TaskItem{item}, 5)
	require.NoError(t, err)
	require.NoError(t, task.SubmitToWes("WES-1"))
	f.tasks.tasks = []*wesdomain.PickingTask{task}
	f.wesSource.records = []wesdomain.WesTaskRecord{
		{WesTaskID: "WES-1", Status: wesdomain.TaskCompleted},
		{WesTaskID: "WES-2", Status: wesdomain.TaskSubmitted},
	}

	require.NoError(t, f.svc.PollAllActive(ctx, domain.KindWes))
	assert.Equal(t, []string{domain.EventWesTaskStatusUpdated, domain.EventWesTaskDiscovered}, f.sink.types())

	f.clock = f.clock.Add(time.Minute)
	require.NoError(t, f.svc.Activate(ctx, domain.KindWes, "wes-b"))
	require.NoError(t, f.svc.PollAllActive(ctx, domain.KindWes))
	assert.Len(t, f.sink.events, 6)
}

func TestPollAllActive_IsolatesFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := f.svc.CreateOrderObserver(ctx, CreateOrderObserverCommand{
			ObserverID: id, DSN: "postgres://orders", Username: "reader", PollingInterval: 10 * time.Second,
		})
		require.NoError(t, err)
	}
	down := errors.New("source down")
	f.ordSource.fetchErr = down

	err := f.svc.PollAllActive(ctx, domain.KindOrder)
	require.ErrorIs(t, err, down)
	assert.Equal(t, 4, f.orders.saves, "both observers were attempted and saved")
}

func TestPollObserver_OrderEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CreateOrderObserver(ctx, CreateOrderObserverCommand{
		ObserverID: "orders", DSN: "postgres://orders", Username: "reader", PollingInterval: 10 * time.Second,
	})
	require.NoError(t, err)
	f.ordSource.results = []domain.ObservationResult{{OrderID: "ORD-1"}, {OrderID: "ORD-2"}}

	require.NoError(t, f.svc.PollObserver(ctx, domain.KindOrder, "orders"))
	assert.Equal(t, []string{domain.EventNewOrderObserved, domain.EventNewOrderObserved}, f.sink.types())
}

func TestAcknowledgeOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CreateOrderObserver(ctx, CreateOrderObserverCommand{
		ObserverID: "orders", DSN: "postgres://orders", Username: "reader", PollingInterval: 10 * time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.AcknowledgeOrder(ctx, "orders", "ORD-1"))
	assert.Equal(t, []processedOrder{{dsn: "postgres://orders", orderID: "ORD-1"}}, f.ordSource.processed)

	err = f.svc.AcknowledgeOrder(ctx, "missing", "ORD-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUnknownKind(t *testing.T) {
	f := newFixture()
	err := f.svc.PollAllActive(context.Background(), domain.ObserverKind("FTP"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
