package domain

import (
	"slices"
	"strings"
)

// TaskStatus is the lifecycle state of a PickingTask
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskSubmitted  TaskStatus = "SUBMITTED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
	TaskCanceled   TaskStatus = "CANCELED"
)

// PENDING may be completed, failed or canceled directly, outside the WES sync path.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskSubmitted, TaskCompleted, TaskFailed, TaskCanceled},
	TaskSubmitted:  {TaskInProgress, TaskCompleted, TaskFailed, TaskCanceled},
	TaskInProgress: {TaskCompleted, TaskFailed, TaskCanceled},
	TaskCompleted:  {},
	TaskFailed:     {},
	TaskCanceled:   {},
}

// IsValid checks if the status is known
func (s TaskStatus) IsValid() bool {
	_, ok := taskTransitions[s]
	return ok
}

// CanTransitionTo reports whether target is reachable from s in one step
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	return slices.Contains(taskTransitions[s], target)
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCanceled
}

func (s TaskStatus) CanSubmit() bool        { return s == TaskPending }
func (s TaskStatus) CanUpdateFromWes() bool { return s == TaskSubmitted || s == TaskInProgress }
func (s TaskStatus) CanCancel() bool        { return s.CanTransitionTo(TaskCanceled) }

func (s TaskStatus) String() string { return string(s) }

// ParseWesStatus maps a status string reported by the WES. Matching is
// case-insensitive and CANCELLED is accepted. A task the WES lists as PENDING
// (or with an unknown status) is queued there, which is SUBMITTED locally.
func ParseWesStatus(raw string) TaskStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "IN_PROGRESS":
		return TaskInProgress
	case "COMPLETED":
		return TaskCompleted
	case "FAILED":
		return TaskFailed
	case "CANCELED", "CANCELLED":
		return TaskCanceled
	default:
		return TaskSubmitted
	}
}

// TaskOrigin records who created a PickingTask
type TaskOrigin string

const (
	OriginOrchestratorSubmitted TaskOrigin = "ORCHESTRATOR_SUBMITTED"
	OriginWesDirect             TaskOrigin = "WES_DIRECT"
)
