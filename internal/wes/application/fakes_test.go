package application

import (
	"context"
	"errors"
	"sync"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	"github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

type fakeTaskRepo struct {
	mu    sync.Mutex
	items map[string]domain.PickingTaskState
	saves []domain.TaskStatus
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{items: make(map[string]domain.PickingTaskState)}
}

func (f *fakeTaskRepo) Save(ctx context.Context, task *domain.PickingTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[task.ID()] = task.State()
	f.saves = append(f.saves, task.Status())
	return nil
}

func (f *fakeTaskRepo) FindByID(ctx context.Context, id string) (*domain.PickingTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("picking task", id)
	}
	return domain.ReconstitutePickingTask(state), nil
}

func (f *fakeTaskRepo) FindByOrderID(ctx context.Context, orderID string) ([]*domain.PickingTask, error) {
	return f.filter(func(s domain.PickingTaskState) bool { return s.OrderID == orderID }), nil
}

func (f *fakeTaskRepo) FindByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.PickingTask, error) {
	return f.filter(func(s domain.PickingTaskState) bool { return s.Status == status }), nil
}

func (f *fakeTaskRepo) FindByWesTaskID(ctx context.Context, id domain.WesTaskID) (*domain.PickingTask, error) {
	found := f.filter(func(s domain.PickingTaskState) bool { return s.WesTaskID == id })
	if len(found) == 0 {
		return nil, apperrors.NewNotFoundError("picking task", string(id))
	}
	return found[0], nil
}

func (f *fakeTaskRepo) FindAll(ctx context.Context) ([]*domain.PickingTask, error) {
	return f.filter(func(domain.PickingTaskState) bool { return true }), nil
}

func (f *fakeTaskRepo) filter(keep func(domain.PickingTaskState) bool) []*domain.PickingTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.PickingTask
	for _, state := range f.items {
		if keep(state) {
			out = append(out, domain.ReconstitutePickingTask(state))
		}
	}
	return out
}

func (f *fakeTaskRepo) put(task *domain.PickingTask) {
	task.PullEvents()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[task.ID()] = task.State()
}

type priorityCall struct {
	id       domain.WesTaskID
	priority int
}

type fakeWesPort struct {
	submitID  domain.WesTaskID
	submitErr error
	updateErr error
	cancelErr error
	records   []domain.WesTaskRecord

	submitted  []*domain.PickingTask
	priorities []priorityCall
	canceled   []domain.WesTaskID
}

func (f *fakeWesPort) SubmitPickingTask(ctx context.Context, task *domain.PickingTask) (domain.WesTaskID, error) {
	f.submitted = append(f.submitted, task)
	return f.submitID, f.submitErr
}

func (f *fakeWesPort) GetTaskStatus(ctx context.Context, id domain.WesTaskID) (domain.TaskStatus, bool, error) {
	for _, r := range f.records {
		if r.WesTaskID == id {
			return r.Status, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeWesPort) UpdateTaskPriority(ctx context.Context, id domain.WesTaskID, priority int) error {
	f.priorities = append(f.priorities, priorityCall{id: id, priority: priority})
	return f.updateErr
}

func (f *fakeWesPort) CancelTask(ctx context.Context, id domain.WesTaskID) error {
	f.canceled = append(f.canceled, id)
	return f.cancelErr
}

func (f *fakeWesPort) PollAllTasks(ctx context.Context) ([]domain.WesTaskRecord, error) {
	return f.records, nil
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

var errWesDown = errors.New("WES unavailable")

func newService(repo *fakeTaskRepo, port *fakeWesPort, sink *recordingSink) *PickingTaskService {
	return NewPickingTaskService(repo, port, sink, logging.NewNop(), metrics.New(metrics.DefaultConfig("test")))
}
