package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

const (
	ReasonFailedInWes   = "Failed in WES"
	ReasonCanceledInWes = "Canceled in WES"
)

// PickingTask tracks one picking job in the WES, whether we submitted it or
// discovered it there
type PickingTask struct {
	id            string
	wesTaskID     WesTaskID
	orderID       string
	origin        TaskOrigin
	priority      int
	status        TaskStatus
	items         []TaskItem
	failureReason string
	createdAt     time.Time
	submittedAt   *time.Time
	completedAt   *time.Time
	canceledAt    *time.Time
	events        []PickingTaskEvent
}

// NewPickingTaskForOrder creates a PENDING task that still has to be submitted to the WES
func NewPickingTaskForOrder(orderID string, items []TaskItem, priority int) (*PickingTask, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, apperrors.NewValidationError("orderId", "cannot be blank")
	}
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("items", "at least one item is required")
	}
	if err := ValidatePriority(priority); err != nil {
		return nil, err
	}

	t := newPickingTask(OriginOrchestratorSubmitted, orderID, items, priority, TaskPending)
	t.raiseCreated()
	return t, nil
}

// NewPickingTaskFromWes records a task that was created directly in the WES.
// The task starts SUBMITTED. The WES task list carries no items, so items may be empty.
func NewPickingTaskFromWes(wesTaskID WesTaskID, items []TaskItem, priority int) (*PickingTask, error) {
	id, err := NewWesTaskID(string(wesTaskID))
	if err != nil {
		return nil, err
	}
	if err := ValidatePriority(priority); err != nil {
		return nil, err
	}

	t := newPickingTask(OriginWesDirect, "", items, priority, TaskSubmitted)
	t.wesTaskID = id
	submitted := t.createdAt
	t.submittedAt = &submitted
	t.raiseCreated()
	return t, nil
}

func newPickingTask(origin TaskOrigin, orderID string, items []TaskItem, priority int, status TaskStatus) *PickingTask {
	return &PickingTask{
		id:        "PICK-" + uuid.New().String(),
		orderID:   orderID,
		origin:    origin,
		priority:  priority,
		status:    status,
		items:     append([]TaskItem(nil), items...),
		createdAt: time.Now().UTC(),
	}
}

// SubmitToWes records the id the WES assigned to the task
func (t *PickingTask) SubmitToWes(wesTaskID WesTaskID) error {
	id, err := NewWesTaskID(string(wesTaskID))
	if err != nil {
		return err
	}
	if !t.status.CanSubmit() {
		return t.stateError("submit")
	}

	now := time.Now().UTC()
	t.wesTaskID = id
	t.status = TaskSubmitted
	t.submittedAt = &now
	t.raise(&PickingTaskSubmittedEvent{
		PickingTaskEventBase: t.eventBase(now),
		WesTaskID:            id,
		Items:                t.Items(),
	})
	return nil
}

// UpdateStatusFromWes follows a status reported by the WES. Reporting the
// current status again is a no-op.
func (t *PickingTask) UpdateStatusFromWes(status TaskStatus) error {
	if !status.IsValid() {
		return apperrors.NewValidationError("status", "unknown task status "+string(status))
	}
	if !t.status.CanUpdateFromWes() {
		return t.stateError("update from WES")
	}
	if t.status == status {
		return nil
	}
	if !t.status.CanTransitionTo(status) {
		return t.stateError("move to " + string(status))
	}

	now := time.Now().UTC()
	t.status = status
	switch status {
	case TaskCompleted:
		t.completedAt = &now
		t.raiseCompleted(now)
	case TaskFailed:
		t.completedAt = &now
		t.raiseFailed(now)
	case TaskCanceled:
		t.canceledAt = &now
		t.raiseCanceled(now)
	}
	return nil
}

// AdjustPriority changes the priority of a non-terminal task. Setting the
// current priority again is a no-op.
func (t *PickingTask) AdjustPriority(priority int) error {
	if err := ValidatePriority(priority); err != nil {
		return err
	}
	if t.status.IsTerminal() {
		return t.stateError("adjust priority of")
	}
	if t.priority == priority {
		return nil
	}

	old := t.priority
	t.priority = priority
	t.raise(&PickingTaskPriorityAdjustedEvent{
		PickingTaskEventBase: t.eventBase(time.Now().UTC()),
		OldPriority:          old,
		NewPriority:          priority,
	})
	return nil
}

// MarkCompleted completes the task outside the WES sync path
func (t *PickingTask) MarkCompleted() error {
	if t.status.IsTerminal() {
		return t.stateError("complete")
	}
	now := time.Now().UTC()
	t.status = TaskCompleted
	t.completedAt = &now
	t.raiseCompleted(now)
	return nil
}

// MarkFailed fails the task with reason
func (t *PickingTask) MarkFailed(reason string) error {
	if t.status.IsTerminal() {
		return t.stateError("fail")
	}
	now := time.Now().UTC()
	t.status = TaskFailed
	t.completedAt = &now
	t.failureReason = reason
	t.raiseFailed(now)
	return nil
}

// Cancel cancels a task that has not reached a terminal status
func (t *PickingTask) Cancel(reason string) error {
	if !t.status.CanCancel() {
		return t.stateError("cancel")
	}
	now := time.Now().UTC()
	t.status = TaskCanceled
	t.canceledAt = &now
	t.failureReason = reason
	t.raiseCanceled(now)
	return nil
}

// PullEvents returns the buffered events in emission order and clears the buffer
func (t *PickingTask) PullEvents() []PickingTaskEvent {
	events := t.events
	t.events = nil
	return events
}

func (t *PickingTask) raise(event PickingTaskEvent) {
	t.events = append(t.events, event)
}

func (t *PickingTask) raiseCreated() {
	t.raise(&PickingTaskCreatedEvent{
		PickingTaskEventBase: t.eventBase(t.createdAt),
		Priority:             t.priority,
		Items:                t.Items(),
	})
}

func (t *PickingTask) raiseCompleted(at time.Time) {
	t.raise(&PickingTaskCompletedEvent{
		PickingTaskEventBase: t.eventBase(at),
		WesTaskID:            t.wesTaskID,
		Items:                t.Items(),
	})
}

func (t *PickingTask) raiseFailed(at time.Time) {
	t.raise(&PickingTaskFailedEvent{
		PickingTaskEventBase: t.eventBase(at),
		WesTaskID:            t.wesTaskID,
		Items:                t.Items(),
		Reason:               t.failureReason,
	})
}

func (t *PickingTask) raiseCanceled(at time.Time) {
	t.raise(&PickingTaskCanceledEvent{
		PickingTaskEventBase: t.eventBase(at),
		WesTaskID:            t.wesTaskID,
		Reason:               t.failureReason,
	})
}

func (t *PickingTask) eventBase(at time.Time) PickingTaskEventBase {
	return PickingTaskEventBase{TaskID: t.id, OrderID: t.orderID, Origin: t.origin, Timestamp: at}
}

func (t *PickingTask) stateError(action string) error {
	return apperrors.NewStateTransitionError(AggregateTypePickingTask, action, string(t.status))
}

func (t *PickingTask) ID() string            { return t.id }
func (t *PickingTask) WesTaskID() WesTaskID  { return t.wesTaskID }
func (t *PickingTask) OrderID() string       { return t.orderID }
func (t *PickingTask) Origin() TaskOrigin    { return t.origin }
func (t *PickingTask) Priority() int         { return t.priority }
func (t *PickingTask) Status() TaskStatus    { return t.status }
func (t *PickingTask) FailureReason() string { return t.failureReason }
func (t *PickingTask) CreatedAt() time.Time  { return t.createdAt }

// HasWesTaskID reports whether the WES knows this task
func (t *PickingTask) HasWesTaskID() bool { return t.wesTaskID != "" }

// Items returns a copy of the task items
func (t *PickingTask) Items() []TaskItem {
	return append([]TaskItem(nil), t.items...)
}

// PickingTaskState is the flat representation used by persistence mappers
type PickingTaskState struct {
	ID            string
	WesTaskID     WesTaskID
	OrderID       string
	Origin        TaskOrigin
	Priority      int
	Status        TaskStatus
	Items         []TaskItem
	FailureReason string
	CreatedAt     time.Time
	SubmittedAt   *time.Time
	CompletedAt   *time.Time
	CanceledAt    *time.Time
}

// State copies the aggregate into a PickingTaskState
func (t *PickingTask) State() PickingTaskState {
	return PickingTaskState{
		ID:            t.id,
		WesTaskID:     t.wesTaskID,
		OrderID:       t.orderID,
		Origin:        t.origin,
		Priority:      t.priority,
		Status:        t.status,
		Items:         t.Items(),
		FailureReason: t.failureReason,
		CreatedAt:     t.createdAt,
		SubmittedAt:   copyTime(t.submittedAt),
		CompletedAt:   copyTime(t.completedAt),
		CanceledAt:    copyTime(t.canceledAt),
	}
}

// ReconstitutePickingTask rebuilds an aggregate from stored state without raising events
func ReconstitutePickingTask(s PickingTaskState) *PickingTask {
	return &PickingTask{
		id:            s.ID,
		wesTaskID:     s.WesTaskID,
		orderID:       s.OrderID,
		origin:        s.Origin,
		priority:      s.Priority,
		status:        s.Status,
		items:         append([]TaskItem(nil), s.Items...),
		failureReason: s.FailureReason,
		createdAt:     s.CreatedAt,
		submittedAt:   copyTime(s.SubmittedAt),
		completedAt:   copyTime(s.CompletedAt),
		canceledAt:    copyTime(s.CanceledAt),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	at := *t
	return &at
}
