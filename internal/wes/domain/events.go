package domain

import "time"

const AggregateTypePickingTask = "PickingTask"

// Event types
const (
	EventPickingTaskCreated          = "wms.picking.task-created"
	EventPickingTaskSubmitted        = "wms.picking.task-submitted"
	EventPickingTaskCompleted        = "wms.picking.task-completed"
	EventPickingTaskFailed           = "wms.picking.task-failed"
	EventPickingTaskCanceled         = "wms.picking.task-canceled"
	EventPickingTaskPriorityAdjusted = "wms.picking.task-priority-adjusted"
)

// PickingTaskEvent is the closed set of events raised by PickingTask
type PickingTaskEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
	pickingTaskEvent()
}

// PickingTaskEventBase carries the fields shared by every picking task event.
// OrderID is empty for tasks discovered in the WES.
type PickingTaskEventBase struct {
	TaskID    string     `json:"taskId"`
	OrderID   string     `json:"orderId,omitempty"`
	Origin    TaskOrigin `json:"origin"`
	Timestamp time.Time  `json:"occurredAt"`
}

func (b PickingTaskEventBase) AggregateID() string   { return b.TaskID }
func (b PickingTaskEventBase) AggregateType() string { return AggregateTypePickingTask }
func (b PickingTaskEventBase) OccurredAt() time.Time { return b.Timestamp }
func (b PickingTaskEventBase) pickingTaskEvent()     {}

// IsOrchestratorTask reports whether the task was created for one of our orders
func (b PickingTaskEventBase) IsOrchestratorTask() bool {
	return b.Origin == OriginOrchestratorSubmitted && b.OrderID != ""
}

// PickingTaskCreatedEvent is raised by both factories
type PickingTaskCreatedEvent struct {
	PickingTaskEventBase
	Priority int        `json:"priority"`
	Items    []TaskItem `json:"items"`
}

func (e *PickingTaskCreatedEvent) EventType() string { return EventPickingTaskCreated }

// PickingTaskSubmittedEvent is raised when the WES accepts the task
type PickingTaskSubmittedEvent struct {
	PickingTaskEventBase
	WesTaskID WesTaskID  `json:"wesTaskId"`
	Items     []TaskItem `json:"items"`
}

func (e *PickingTaskSubmittedEvent) EventType() string { return EventPickingTaskSubmitted }

// PickingTaskCompletedEvent is raised when picking finished
type PickingTaskCompletedEvent struct {
	PickingTaskEventBase
	WesTaskID WesTaskID  `json:"wesTaskId,omitempty"`
	Items     []TaskItem `json:"items"`
}

func (e *PickingTaskCompletedEvent) EventType() string { return EventPickingTaskCompleted }

// PickingTaskFailedEvent is raised when submission or picking failed
type PickingTaskFailedEvent struct {
	PickingTaskEventBase
	WesTaskID WesTaskID  `json:"wesTaskId,omitempty"`
	Items     []TaskItem `json:"items"`
	Reason    string     `json:"reason"`
}

func (e *PickingTaskFailedEvent) EventType() string { return EventPickingTaskFailed }

// PickingTaskCanceledEvent is raised when the task is canceled here or in the WES
type PickingTaskCanceledEvent struct {
	PickingTaskEventBase
	WesTaskID WesTaskID `json:"wesTaskId,omitempty"`
	Reason    string    `json:"reason"`
}

func (e *PickingTaskCanceledEvent) EventType() string { return EventPickingTaskCanceled }

// PickingTaskPriorityAdjustedEvent is raised when the priority changes
type PickingTaskPriorityAdjustedEvent struct {
	PickingTaskEventBase
	OldPriority int `json:"oldPriority"`
	NewPriority int `json:"newPriority"`
}

func (e *PickingTaskPriorityAdjustedEvent) EventType() string { return EventPickingTaskPriorityAdjusted }

// SKUs lists the skus of items in order
func SKUs(items []TaskItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.SKU)
	}
	return out
}
