package application

import (
	"context"
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	invdomain "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	"github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// memRepo stores observers by id and keeps insertion order for listings
type memRepo[O any, S any] struct {
	order  []string
	items  map[string]S
	state  func(O) S
	build  func(S) O
	active func(S) bool
	saves  int
}

func newMemRepo[O any, S any](state func(O) S, build func(S) O, active func(S) bool) *memRepo[O, S] {
	return &memRepo[O, S]{items: make(map[string]S), state: state, build: build, active: active}
}

func (r *memRepo[O, S]) save(id string, o O) {
	if _, ok := r.items[id]; !ok {
		r.order = append(r.order, id)
	}
	r.items[id] = r.state(o)
	r.saves++
}

func (r *memRepo[O, S]) find(id string) (O, error) {
	s, ok := r.items[id]
	if !ok {
		var zero O
		return zero, apperrors.NewNotFoundError("observer", id)
	}
	return r.build(s), nil
}

func (r *memRepo[O, S]) list(onlyActive bool) []O {
	var out []O
	for _, id := range r.order {
		s := r.items[id]
		if onlyActive && !r.active(s) {
			continue
		}
		out = append(out, r.build(s))
	}
	return out
}

type inventoryRepo struct {
	*memRepo[*domain.InventoryObserver, domain.InventoryObserverState]
}

func (r inventoryRepo) Save(ctx context.Context, o *domain.InventoryObserver) error {
	r.save(o.ID(), o)
	return nil
}
func (r inventoryRepo) FindByID(ctx context.Context, id string) (*domain.InventoryObserver, error) {
	return r.find(id)
}
func (r inventoryRepo) FindAllActive(ctx context.Context) ([]*domain.InventoryObserver, error) {
	return r.list(true), nil
}
func (r inventoryRepo) FindAll(ctx context.Context) ([]*domain.InventoryObserver, error) {
	return r.list(false), nil
}

type orderRepo struct {
	*memRepo[*domain.OrderObserver, domain.OrderObserverState]
}

func (r orderRepo) Save(ctx context.Context, o *domain.OrderObserver) error {
	r.save(o.ID(), o)
	return nil
}
func (r orderRepo) FindByID(ctx context.Context, id string) (*domain.OrderObserver, error) {
	return r.find(id)
}
func (r orderRepo) FindAllActive(ctx context.Context) ([]*domain.OrderObserver, error) {
	return r.list(true), nil
}
func (r orderRepo) FindAll(ctx context.Context) ([]*domain.OrderObserver, error) {
	return r.list(false), nil
}

type wesRepo struct {
	*memRepo[*domain.WesObserver, domain.WesObserverState]
}

func (r wesRepo) Save(ctx context.Context, o *domain.WesObserver) error {
	r.save(o.ID(), o)
	return nil
}
func (r wesRepo) FindByID(ctx context.Context, id string) (*domain.WesObserver, error) {
	return r.find(id)
}
func (r wesRepo) FindAllActive(ctx context.Context) ([]*domain.WesObserver, error) {
	return r.list(true), nil
}
func (r wesRepo) FindAll(ctx context.Context) ([]*domain.WesObserver, error) {
	return r.list(false), nil
}

type fakeInventorySource struct {
	rows []invdomain.InventorySnapshot
	err  error
}

func (f *fakeInventorySource) GetInventorySnapshot(ctx context.Context) ([]invdomain.InventorySnapshot, error) {
	return f.rows, f.err
}

type processedOrder struct {
	dsn     string
	orderID string
}

type fakeOrderSource struct {
	results   []domain.ObservationResult
	fetchErr  error
	processed []processedOrder
}

func (f *fakeOrderSource) FetchNewOrders(ctx context.Context, endpoint domain.SourceEndpoint, since *time.Time) ([]domain.ObservationResult, error) {
	return f.results, f.fetchErr
}

func (f *fakeOrderSource) MarkOrderAsProcessed(ctx context.Context, endpoint domain.SourceEndpoint, orderID string) error {
	f.processed = append(f.processed, processedOrder{dsn: endpoint.DSN, orderID: orderID})
	return nil
}

type fakeWesSource struct {
	records []wesdomain.WesTaskRecord
}

func (f *fakeWesSource) PollAllTasks(ctx context.Context) ([]wesdomain.WesTaskRecord, error) {
	return f.records, nil
}

type fakeTaskFinder struct {
	tasks []*wesdomain.PickingTask
}

func (f *fakeTaskFinder) FindAll(ctx context.Context) ([]*wesdomain.PickingTask, error) {
	return f.tasks, nil
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

type fixture struct {
	svc       *ObserverService
	inventory inventoryRepo
	orders    orderRepo
	wes       wesRepo
	invSource *fakeInventorySource
	ordSource *fakeOrderSource
	wesSource *fakeWesSource
	tasks     *fakeTaskFinder
	sink      *recordingSink
	clock     time.Time
}

func newFixture() *fixture {
	f := &fixture{
		inventory: inventoryRepo{newMemRepo(
			(*domain.InventoryObserver).State, domain.ReconstituteInventoryObserver,
			func(s domain.InventoryObserverState) bool { return s.Active })},
		orders: orderRepo{newMemRepo(
			(*domain.OrderObserver).State, domain.ReconstituteOrderObserver,
			func(s domain.OrderObserverState) bool { return s.Active })},
		wes: wesRepo{newMemRepo(
			(*domain.WesObserver).State, domain.ReconstituteWesObserver,
			func(s domain.WesObserverState) bool { return s.Active })},
		invSource: &fakeInventorySource{},
		ordSource: &fakeOrderSource{},
		wesSource: &fakeWesSource{},
		tasks:     &fakeTaskFinder{},
		sink:      &recordingSink{},
		clock:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewObserverService(
		Repositories{Inventory: f.inventory, Order: f.orders, Wes: f.wes},
		Sources{Inventory: f.invSource, Orders: f.ordSource, Wes: f.wesSource, Tasks: f.tasks},
		f.sink,
		logging.NewNop(),
		metrics.New(metrics.DefaultConfig("test")),
	)
	f.svc.now = func() time.Time { return f.clock }
	return f
}
