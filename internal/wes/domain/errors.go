package domain

import (
	"fmt"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// WesTimeoutError is returned when the WES did not answer in time
type WesTimeoutError struct {
	Operation string
	Err       error
}

func (e *WesTimeoutError) Error() string {
	return fmt.Sprintf("WES timed out during %s: %v", e.Operation, e.Err)
}

func (e *WesTimeoutError) Unwrap() error { return e.Err }

func (e *WesTimeoutError) ErrorKind() apperrors.Kind { return apperrors.KindTimeout }

// WesSubmissionError is returned when the WES rejects a new task
type WesSubmissionError struct {
	OrderID string
	Message string
	Err     error
}

func (e *WesSubmissionError) Error() string {
	return fmt.Sprintf("failed to submit picking task for order %s to WES: %s", e.OrderID, e.Message)
}

func (e *WesSubmissionError) Unwrap() error { return e.Err }

func (e *WesSubmissionError) ErrorKind() apperrors.Kind { return apperrors.KindExternal }

// WesTaskNotFoundError is returned when the WES does not know a task id
type WesTaskNotFoundError struct {
	WesTaskID WesTaskID
}

func (e *WesTaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found in WES: %s", e.WesTaskID)
}

func (e *WesTaskNotFoundError) ErrorKind() apperrors.Kind { return apperrors.KindNotFound }

// WesPriorityUpdateError is returned when the WES rejects a priority change
type WesPriorityUpdateError struct {
	WesTaskID WesTaskID
	Message   string
	Err       error
}

func (e *WesPriorityUpdateError) Error() string {
	return fmt.Sprintf("failed to update priority of WES task %s: %s", e.WesTaskID, e.Message)
}

func (e *WesPriorityUpdateError) Unwrap() error { return e.Err }

func (e *WesPriorityUpdateError) ErrorKind() apperrors.Kind { return apperrors.KindExternal }

// WesCancellationError is returned when the WES refuses to cancel a task
type WesCancellationError struct {
	WesTaskID WesTaskID
	Message   string
	Err       error
}

func (e *WesCancellationError) Error() string {
	return fmt.Sprintf("failed to cancel WES task %s: %s", e.WesTaskID, e.Message)
}

func (e *WesCancellationError) Unwrap() error { return e.Err }

func (e *WesCancellationError) ErrorKind() apperrors.Kind { return apperrors.KindExternal }
