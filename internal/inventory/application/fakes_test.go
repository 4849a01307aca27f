package application

import (
	"context"
	"errors"
	"sync"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
)

type savedTx struct {
	id     string
	status domain.TransactionStatus
}

type fakeTxRepo struct {
	mu      sync.Mutex
	items   map[string]domain.TransactionState
	saves   []savedTx
	saveErr error
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{items: make(map[string]domain.TransactionState)}
}

func (f *fakeTxRepo) Save(ctx context.Context, tx *domain.InventoryTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.items[tx.ID()] = tx.State()
	f.saves = append(f.saves, savedTx{id: tx.ID(), status: tx.Status()})
	return nil
}

func (f *fakeTxRepo) FindByID(ctx context.Context, id string) (*domain.InventoryTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("inventory transaction", id)
	}
	return domain.ReconstituteTransaction(state), nil
}

func (f *fakeTxRepo) FindBySourceReferenceID(ctx context.Context, ref string) ([]*domain.InventoryTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.InventoryTransaction
	for _, state := range f.items {
		if state.SourceReferenceID == ref {
			out = append(out, domain.ReconstituteTransaction(state))
		}
	}
	return out, nil
}

func (f *fakeTxRepo) FindByStatus(ctx context.Context, status domain.TransactionStatus) ([]*domain.InventoryTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.InventoryTransaction
	for _, state := range f.items {
		if state.Status == status {
			out = append(out, domain.ReconstituteTransaction(state))
		}
	}
	return out, nil
}

func (f *fakeTxRepo) byType(t domain.TransactionType) []domain.TransactionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TransactionState
	for _, state := range f.items {
		if state.Type == t {
			out = append(out, state)
		}
	}
	return out
}

func (f *fakeTxRepo) statusesOf(id string) []domain.TransactionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TransactionStatus
	for _, s := range f.saves {
		if s.id == id {
			out = append(out, s.status)
		}
	}
	return out
}

type fakeAdjustmentRepo struct {
	items map[string]domain.AdjustmentState
}

func newFakeAdjustmentRepo() *fakeAdjustmentRepo {
	return &fakeAdjustmentRepo{items: make(map[string]domain.AdjustmentState)}
}

func (f *fakeAdjustmentRepo) Save(ctx context.Context, a *domain.InventoryAdjustment) error {
	f.items[a.ID()] = a.State()
	return nil
}

func (f *fakeAdjustmentRepo) FindByID(ctx context.Context, id string) (*domain.InventoryAdjustment, error) {
	state, ok := f.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("inventory adjustment", id)
	}
	return domain.ReconstituteAdjustment(state), nil
}

func (f *fakeAdjustmentRepo) FindByStatus(ctx context.Context, status domain.AdjustmentStatus) ([]*domain.InventoryAdjustment, error) {
	var out []*domain.InventoryAdjustment
	for _, state := range f.items {
		if state.Status == status {
			out = append(out, domain.ReconstituteAdjustment(state))
		}
	}
	return out, nil
}

type adjustCall struct {
	sku         string
	warehouseID string
	quantity    int
	reason      string
}

type fakeInventoryPort struct {
	createFn    func(sku, warehouseID, orderID string, qty int) (domain.ExternalReservationID, error)
	consumeErr  error
	releaseErr  error
	increaseErr error
	adjustFn    func(call adjustCall) error
	snapshot    []domain.InventorySnapshot

	consumed []domain.ExternalReservationID
	released []domain.ExternalReservationID
	adjusted []adjustCall
}

func (f *fakeInventoryPort) CreateReservation(ctx context.Context, sku, warehouseID, orderID string, qty int) (domain.ExternalReservationID, error) {
	if f.createFn != nil {
		return f.createFn(sku, warehouseID, orderID, qty)
	}
	return "EXT-" + domain.ExternalReservationID(sku), nil
}

func (f *fakeInventoryPort) ConsumeReservation(ctx context.Context, id domain.ExternalReservationID) error {
	f.consumed = append(f.consumed, id)
	return f.consumeErr
}

func (f *fakeInventoryPort) ReleaseReservation(ctx context.Context, id domain.ExternalReservationID) error {
	f.released = append(f.released, id)
	return f.releaseErr
}

func (f *fakeInventoryPort) IncreaseInventory(ctx context.Context, sku, warehouseID string, qty int, reason string) error {
	return f.increaseErr
}

func (f *fakeInventoryPort) AdjustInventory(ctx context.Context, sku, warehouseID string, qty int, reason string) error {
	call := adjustCall{sku: sku, warehouseID: warehouseID, quantity: qty, reason: reason}
	f.adjusted = append(f.adjusted, call)
	if f.adjustFn != nil {
		return f.adjustFn(call)
	}
	return nil
}

func (f *fakeInventoryPort) GetInventorySnapshot(ctx context.Context) ([]domain.InventorySnapshot, error) {
	return f.snapshot, nil
}

type fakeStockSource struct {
	snapshots []domain.StockSnapshot
	err       error
}

func (f *fakeStockSource) GetInventorySnapshot(ctx context.Context) ([]domain.StockSnapshot, error) {
	return f.snapshots, f.err
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

var errInventoryDown = errors.New("inventory system unavailable")

func nopLogger() *logging.Logger { return logging.NewNop() }
