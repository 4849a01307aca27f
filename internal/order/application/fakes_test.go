package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	invapp "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/application"
	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	wesapp "github.com/wms-platform/fulfillment-orchestrator/internal/wes/application"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

type fakeOrderRepo struct {
	mu    sync.Mutex
	items map[string]domain.OrderState
	saves int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{items: make(map[string]domain.OrderState)}
}

func (f *fakeOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[order.ID()] = order.State()
	f.saves++
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.items[orderID]
	if !ok {
		return nil, apperrors.NewNotFoundError("order", orderID)
	}
	return domain.ReconstituteOrder(state), nil
}

func (f *fakeOrderRepo) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Order
	for _, state := range f.items {
		if state.Status == status {
			out = append(out, domain.ReconstituteOrder(state))
		}
	}
	return out, nil
}

// FindScheduledReadyForFulfillment returns every scheduled order; the
// service applies the window check itself
func (f *fakeOrderRepo) FindScheduledReadyForFulfillment(ctx context.Context, now time.Time) ([]*domain.Order, error) {
	return f.FindByStatus(ctx, domain.OrderScheduled)
}

func (f *fakeOrderRepo) status(t *testing.T, orderID string) domain.OrderStatus {
	t.Helper()
	order, err := f.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	return order.Status()
}

type recordingSink struct {
	events []events.DomainEvent
}

func (r *recordingSink) Publish(ctx context.Context, event events.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

// fakeReserver answers reservations through a callback so tests can publish
// the inventory outcome back onto a dispatcher
type fakeReserver struct {
	calls   []invapp.ReserveInventoryCommand
	respond func(ctx context.Context, cmd invapp.ReserveInventoryCommand) (string, error)
}

func (f *fakeReserver) ReserveInventory(ctx context.Context, cmd invapp.ReserveInventoryCommand) (string, error) {
	f.calls = append(f.calls, cmd)
	if f.respond == nil {
		return "TX-" + cmd.SKU, nil
	}
	return f.respond(ctx, cmd)
}

type fakePickingCreator struct {
	calls []wesapp.CreatePickingTaskForOrderCommand
	err   error
}

func (f *fakePickingCreator) CreatePickingTaskForOrder(ctx context.Context, cmd wesapp.CreatePickingTaskForOrderCommand) (string, error) {
	f.calls = append(f.calls, cmd)
	return "PICK-1", f.err
}

type ackCall struct {
	observerID string
	orderID    string
}

type fakeAcknowledger struct {
	calls []ackCall
}

func (f *fakeAcknowledger) AcknowledgeOrder(ctx context.Context, observerID, orderID string) error {
	f.calls = append(f.calls, ackCall{observerID: observerID, orderID: orderID})
	return nil
}

var clock = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newService(repo *fakeOrderRepo, sink events.Sink) *OrderService {
	svc := NewOrderService(repo, sink, logging.NewNop(), metrics.New(metrics.DefaultConfig("test")))
	svc.now = func() time.Time { return clock }
	return svc
}

func items(skus ...string) []OrderItem {
	out := make([]OrderItem, 0, len(skus))
	for _, sku := range skus {
		out = append(out, OrderItem{SKU: sku, Quantity: 2, Price: decimal.RequireFromString("4.50")})
	}
	return out
}
