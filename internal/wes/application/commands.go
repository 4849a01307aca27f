package application

import "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"

// CreatePickingTaskForOrderCommand creates and submits a picking task for an order
type CreatePickingTaskForOrderCommand struct {
	OrderID  string
	Items    []domain.TaskItem
	Priority int
}

// SyncStatusFromWesCommand applies a status change observed in the WES
type SyncStatusFromWesCommand struct {
	TaskID    string
	NewStatus domain.TaskStatus
}

// AdjustTaskPriorityCommand changes the priority of a task
type AdjustTaskPriorityCommand struct {
	TaskID   string
	Priority int
}

// CancelTaskCommand cancels a task here and, when submitted, in the WES
type CancelTaskCommand struct {
	TaskID string
	Reason string
}
