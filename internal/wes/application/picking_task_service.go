package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	"github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

const (
	SagaSubmitPickingTask = "submit-picking-task"
	SagaSyncFromWes       = "sync-picking-task"
)

// PickingTaskService owns the lifecycle of picking tasks and keeps them in
// step with the WES
type PickingTaskService struct {
	repo    domain.PickingTaskRepository
	port    domain.WesPort
	sink    events.Sink
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewPickingTaskService creates a new PickingTaskService
func NewPickingTaskService(
	repo domain.PickingTaskRepository,
	port domain.WesPort,
	sink events.Sink,
	logger *logging.Logger,
	m *metrics.Metrics,
) *PickingTaskService {
	return &PickingTaskService{
		repo:    repo,
		port:    port,
		sink:    sink,
		logger:  logger.WithComponent("picking-task-service"),
		metrics: m,
	}
}

// CreatePickingTaskForOrder persists a new task and submits it to the WES.
// When submission fails the task is stored as FAILED and the error returned.
func (s *PickingTaskService) CreatePickingTaskForOrder(ctx context.Context, cmd CreatePickingTaskForOrderCommand) (string, error) {
	start := time.Now()

	task, err := domain.NewPickingTaskForOrder(cmd.OrderID, cmd.Items, cmd.Priority)
	if err != nil {
		return "", err
	}
	if err := s.repo.Save(ctx, task); err != nil {
		return "", fmt.Errorf("failed to save picking task: %w", err)
	}

	wesTaskID, err := s.port.SubmitPickingTask(ctx, task)
	if err == nil {
		err = task.SubmitToWes(wesTaskID)
	}
	if err != nil {
		s.failSubmission(ctx, task, start, err)
		return "", err
	}

	if err := s.persist(ctx, task); err != nil {
		return "", err
	}

	elapsed := time.Since(start)
	s.logger.Saga(ctx, SagaSubmitPickingTask, task.ID(), "success", elapsed)
	if s.metrics != nil {
		s.metrics.RecordSaga(SagaSubmitPickingTask, "success", elapsed)
		s.metrics.RecordPickingTaskSubmitted(true)
	}
	return task.ID(), nil
}

func (s *PickingTaskService) failSubmission(ctx context.Context, task *domain.PickingTask, start time.Time, cause error) {
	log := s.logger.WithContext(ctx).With("taskId", task.ID(), "orderId", task.OrderID())

	if err := task.MarkFailed(cause.Error()); err != nil {
		log.Error("Failed to mark picking task as failed", "error", err, "cause", cause.Error())
		return
	}
	if err := s.persist(ctx, task); err != nil {
		log.Error("Failed to persist failed picking task", "error", err)
	}

	elapsed := time.Since(start)
	s.logger.Saga(ctx, SagaSubmitPickingTask, task.ID(), "failed", elapsed)
	if s.metrics != nil {
		s.metrics.RecordSaga(SagaSubmitPickingTask, "failed", elapsed)
		s.metrics.RecordPickingTaskSubmitted(false)
	}
}

// CreatePickingTaskFromWes records a task discovered in the WES. A record
// whose WES id is already tracked returns the existing task id.
func (s *PickingTaskService) CreatePickingTaskFromWes(ctx context.Context, record domain.WesTaskRecord) (string, error) {
	existing, err := s.repo.FindByWesTaskID(ctx, record.WesTaskID)
	if err == nil {
		return existing.ID(), nil
	}
	if !apperrors.IsNotFound(err) {
		return "", err
	}

	priority := record.Priority
	if domain.ValidatePriority(priority) != nil {
		priority = domain.DefaultPriority
	}
	task, err := domain.NewPickingTaskFromWes(record.WesTaskID, record.Items, priority)
	if err != nil {
		return "", err
	}
	if record.Status != domain.TaskSubmitted {
		if err := task.UpdateStatusFromWes(record.Status); err != nil {
			return "", err
		}
	}
	if err := s.persist(ctx, task); err != nil {
		return "", err
	}

	s.logger.WithContext(ctx).Info("Picking task discovered in WES",
		"taskId", task.ID(),
		"wesTaskId", record.WesTaskID,
		"status", task.Status(),
	)
	return task.ID(), nil
}

// SyncStatusFromWes applies a status observed in the WES. Terminal statuses
// use the direct transitions so tasks still PENDING locally can follow.
func (s *PickingTaskService) SyncStatusFromWes(ctx context.Context, cmd SyncStatusFromWesCommand) error {
	start := time.Now()

	task, err := s.repo.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return err
	}

	switch cmd.NewStatus {
	case domain.TaskCompleted:
		if task.Status() == domain.TaskCompleted {
			return nil
		}
		err = task.MarkCompleted()
	case domain.TaskFailed:
		err = task.MarkFailed(domain.ReasonFailedInWes)
	case domain.TaskCanceled:
		err = task.Cancel(domain.ReasonCanceledInWes)
	default:
		err = task.UpdateStatusFromWes(cmd.NewStatus)
	}
	if err != nil {
		return err
	}

	if err := s.persist(ctx, task); err != nil {
		return err
	}
	elapsed := time.Since(start)
	s.logger.Saga(ctx, SagaSyncFromWes, task.ID(), "success", elapsed)
	if s.metrics != nil {
		s.metrics.RecordSaga(SagaSyncFromWes, "success", elapsed)
	}
	return nil
}

// AdjustTaskPriority changes the task priority, first in the WES when the task was submitted
func (s *PickingTaskService) AdjustTaskPriority(ctx context.Context, cmd AdjustTaskPriorityCommand) error {
	task, err := s.repo.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	if task.Priority() == cmd.Priority {
		return nil
	}
	if err := domain.ValidatePriority(cmd.Priority); err != nil {
		return err
	}
	if task.Status().IsTerminal() {
		return task.AdjustPriority(cmd.Priority)
	}

	if task.HasWesTaskID() {
		if err := s.port.UpdateTaskPriority(ctx, task.WesTaskID(), cmd.Priority); err != nil {
			return err
		}
	}
	if err := task.AdjustPriority(cmd.Priority); err != nil {
		return err
	}
	return s.persist(ctx, task)
}

// CancelTask cancels the task, first in the WES when the task was submitted
func (s *PickingTaskService) CancelTask(ctx context.Context, cmd CancelTaskCommand) error {
	task, err := s.repo.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	if !task.Status().CanCancel() {
		return task.Cancel(cmd.Reason)
	}

	if task.HasWesTaskID() {
		if err := s.port.CancelTask(ctx, task.WesTaskID()); err != nil {
			return err
		}
	}
	if err := task.Cancel(cmd.Reason); err != nil {
		return err
	}
	return s.persist(ctx, task)
}

// GetTask returns one task
func (s *PickingTaskService) GetTask(ctx context.Context, id string) (*domain.PickingTask, error) {
	return s.repo.FindByID(ctx, id)
}

// ListTasksForOrder returns the tasks created for an order
func (s *PickingTaskService) ListTasksForOrder(ctx context.Context, orderID string) ([]*domain.PickingTask, error) {
	return s.repo.FindByOrderID(ctx, orderID)
}

// ListTasksByStatus returns the tasks in status
func (s *PickingTaskService) ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.PickingTask, error) {
	return s.repo.FindByStatus(ctx, status)
}

func (s *PickingTaskService) persist(ctx context.Context, task *domain.PickingTask) error {
	if err := s.repo.Save(ctx, task); err != nil {
		return fmt.Errorf("failed to save picking task %s: %w", task.ID(), err)
	}
	if err := events.Flush(ctx, s.sink, task.PullEvents()); err != nil {
		return fmt.Errorf("failed to publish events of picking task %s: %w", task.ID(), err)
	}
	return nil
}
