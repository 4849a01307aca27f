package domain

import "context"

// WesPort is the warehouse execution system as seen by the orchestrator
type WesPort interface {
	SubmitPickingTask(ctx context.Context, task *PickingTask) (WesTaskID, error)
	// GetTaskStatus reports false when the WES does not know the task
	GetTaskStatus(ctx context.Context, id WesTaskID) (TaskStatus, bool, error)
	UpdateTaskPriority(ctx context.Context, id WesTaskID, priority int) error
	CancelTask(ctx context.Context, id WesTaskID) error
	PollAllTasks(ctx context.Context) ([]WesTaskRecord, error)
}

// PickingTaskRepository defines the interface for picking task persistence
type PickingTaskRepository interface {
	Save(ctx context.Context, task *PickingTask) error
	FindByID(ctx context.Context, id string) (*PickingTask, error)
	FindByOrderID(ctx context.Context, orderID string) ([]*PickingTask, error)
	FindByStatus(ctx context.Context, status TaskStatus) ([]*PickingTask, error)
	FindByWesTaskID(ctx context.Context, id WesTaskID) (*PickingTask, error)
	FindAll(ctx context.Context) ([]*PickingTask, error)
}
