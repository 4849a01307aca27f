package dto

import (
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
)

// CreatePickingTaskRequest creates and submits a picking task for an order
type CreatePickingTaskRequest struct {
	OrderID  string            `json:"orderId" binding:"required,notblank"`
	Items    []TaskItemRequest `json:"items" binding:"required,min=1,dive"`
	Priority int               `json:"priority" binding:"min=1,max=10"`
}

// TaskItemRequest is one line of a picking task
type TaskItemRequest struct {
	SKU      string `json:"sku" binding:"required,sku"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Location string `json:"location" binding:"required,notblank"`
}

// UpdatePriorityRequest changes a task's priority
type UpdatePriorityRequest struct {
	Priority int `json:"priority" binding:"min=1,max=10"`
}

// CancelTaskRequest cancels a task
type CancelTaskRequest struct {
	Reason string `json:"reason" binding:"required,notblank"`
}

// PickingTaskResponse represents a picking task in the response
type PickingTaskResponse struct {
	TaskID        string            `json:"taskId"`
	WesTaskID     string            `json:"wesTaskId,omitempty"`
	OrderID       string            `json:"orderId,omitempty"`
	Origin        string            `json:"origin"`
	Priority      int               `json:"priority"`
	Status        string            `json:"status"`
	Items         []domain.TaskItem `json:"items"`
	FailureReason string            `json:"failureReason,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	SubmittedAt   *time.Time        `json:"submittedAt,omitempty"`
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`
	CanceledAt    *time.Time        `json:"canceledAt,omitempty"`
}

// ToPickingTaskResponse converts a domain PickingTask
func ToPickingTaskResponse(task *domain.PickingTask) PickingTaskResponse {
	s := task.State()
	return PickingTaskResponse{
		TaskID:        s.ID,
		WesTaskID:     string(s.WesTaskID),
		OrderID:       s.OrderID,
		Origin:        string(s.Origin),
		Priority:      s.Priority,
		Status:        string(s.Status),
		Items:         s.Items,
		FailureReason: s.FailureReason,
		CreatedAt:     s.CreatedAt,
		SubmittedAt:   s.SubmittedAt,
		CompletedAt:   s.CompletedAt,
		CanceledAt:    s.CanceledAt,
	}
}

// ToPickingTaskResponses converts a list of tasks
func ToPickingTaskResponses(tasks []*domain.PickingTask) []PickingTaskResponse {
	out := make([]PickingTaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToPickingTaskResponse(t))
	}
	return out
}
