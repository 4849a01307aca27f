package domain

import (
	"strings"
	"time"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

const (
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5
)

// WesTaskID is the task handle issued by the WES
type WesTaskID string

// NewWesTaskID validates and creates a WesTaskID
func NewWesTaskID(value string) (WesTaskID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidationError("wesTaskId", "cannot be blank")
	}
	return WesTaskID(value), nil
}

func (id WesTaskID) String() string { return string(id) }

// TaskItem is one sku to pick from a location
type TaskItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
}

// NewTaskItem validates and creates a TaskItem
func NewTaskItem(sku string, quantity int, location string) (TaskItem, error) {
	sku = strings.TrimSpace(sku)
	location = strings.TrimSpace(location)
	if sku == "" {
		return TaskItem{}, apperrors.NewValidationError("sku", "cannot be blank")
	}
	if quantity <= 0 {
		return TaskItem{}, apperrors.NewValidationError("quantity", "must be positive")
	}
	if location == "" {
		return TaskItem{}, apperrors.NewValidationError("location", "cannot be blank")
	}
	return TaskItem{SKU: sku, Quantity: quantity, Location: location}, nil
}

// ValidatePriority rejects priorities outside 1..10
func ValidatePriority(priority int) error {
	if priority < MinPriority || priority > MaxPriority {
		return apperrors.NewValidationError("priority", "must be between 1 and 10")
	}
	return nil
}

// WesTaskRecord is a task as listed by the WES
type WesTaskRecord struct {
	WesTaskID   WesTaskID
	TaskType    string
	OrderID     string
	WarehouseID string
	Priority    int
	Status      TaskStatus
	Items       []TaskItem
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}
