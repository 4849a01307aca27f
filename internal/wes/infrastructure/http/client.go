package http

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/url"
	"time"

	invdomain "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	"github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/httpclient"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// SystemName identifies the WES in logs, metrics and breaker state
const SystemName = "wes"

const taskTypePicking = "PICKING"

// Config holds the WES connection settings
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	WarehouseID string
	AuthToken   string
}

type taskItemDTO struct {
	SKU         string `json:"sku"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	Location    string `json:"location"`
}

type createTaskRequest struct {
	TaskType    string        `json:"task_type"`
	OrderID     string        `json:"order_id"`
	WarehouseID string        `json:"warehouse_id"`
	Priority    int           `json:"priority"`
	Items       []taskItemDTO `json:"items"`
}

type createTaskResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

type taskDTO struct {
	TaskID      string `json:"TASK_ID"`
	TaskType    string `json:"TASK_TYPE"`
	OrderID     string `json:"ORDER_ID"`
	WarehouseID string `json:"WAREHOUSE_ID"`
	Priority    int    `json:"PRIORITY"`
	Status      string `json:"STATUS"`
	CreatedAt   string `json:"CREATED_AT"`
	StartedAt   string `json:"STARTED_AT"`
	CompletedAt string `json:"COMPLETED_AT"`
}

type taskListResponse struct {
	Count int       `json:"count"`
	Tasks []taskDTO `json:"tasks"`
}

type updatePriorityRequest struct {
	Priority int `json:"priority"`
}

type inventoryDTO struct {
	SKU         string `json:"SKU"`
	ProductName string `json:"PRODUCT_NAME"`
	WarehouseID string `json:"WAREHOUSE_ID"`
	Quantity    int    `json:"QUANTITY"`
	Location    string `json:"LOCATION"`
	UpdatedAt   string `json:"UPDATED_AT"`
}

type inventoryResponse struct {
	Count       int            `json:"count"`
	WarehouseID string         `json:"warehouse_id"`
	Inventory   []inventoryDTO `json:"inventory"`
}

// Client talks to the warehouse execution system. Besides the task API it
// serves the WES stock list as the expected side of reconciliation.
type Client struct {
	http        *httpclient.Client
	warehouseID string
	logger      *logging.Logger
}

var (
	_ domain.WesPort        = (*Client)(nil)
	_ invdomain.StockSource = (*Client)(nil)
)

// NewClient creates a WES client
func NewClient(cfg Config, logger *logging.Logger, m *metrics.Metrics) *Client {
	headers := map[string]string{}
	if cfg.AuthToken != "" {
		headers["Authorization"] = "Bearer " + cfg.AuthToken
	}
	return &Client{
		http:        httpclient.New(httpclient.Config{System: SystemName, BaseURL: cfg.BaseURL, Timeout: cfg.Timeout, Headers: headers}, logger, m),
		warehouseID: cfg.WarehouseID,
		logger:      logger.WithComponent("wes-client"),
	}
}

// SubmitPickingTask creates the task in the WES and returns the WES task id
func (c *Client) SubmitPickingTask(ctx context.Context, task *domain.PickingTask) (domain.WesTaskID, error) {
	items := make([]taskItemDTO, 0, len(task.Items()))
	for _, item := range task.Items() {
		items = append(items, taskItemDTO{SKU: item.SKU, ProductName: item.SKU, Quantity: item.Quantity, Location: item.Location})
	}
	req := createTaskRequest{
		TaskType:    taskTypePicking,
		OrderID:     task.OrderID(),
		WarehouseID: c.warehouseID,
		Priority:    task.Priority(),
		Items:       items,
	}

	var resp createTaskResponse
	if err := c.http.Do(ctx, "submit-task", nethttp.MethodPost, "/api/tasks", req, &resp); err != nil {
		if httpclient.IsTimeout(err) {
			return "", &domain.WesTimeoutError{Operation: "submit task", Err: err}
		}
		return "", &domain.WesSubmissionError{OrderID: task.OrderID(), Message: "WES rejected the task", Err: err}
	}

	id, err := domain.NewWesTaskID(resp.TaskID)
	if err != nil {
		return "", &domain.WesSubmissionError{OrderID: task.OrderID(), Message: "WES returned no task id", Err: err}
	}
	c.logger.WithContext(ctx).Info("Submitted picking task to WES", "taskId", task.ID(), "wesTaskId", id)
	return id, nil
}

// GetTaskStatus reads the status of one task
func (c *Client) GetTaskStatus(ctx context.Context, id domain.WesTaskID) (domain.TaskStatus, bool, error) {
	var dto taskDTO
	err := c.http.Do(ctx, "get-task", nethttp.MethodGet, taskPath(id), nil, &dto)
	switch {
	case err == nil:
		if dto.TaskID == "" {
			return "", false, nil
		}
		return domain.ParseWesStatus(dto.Status), true, nil
	case httpclient.StatusCode(err) == nethttp.StatusNotFound:
		return "", false, nil
	case httpclient.IsTimeout(err):
		return "", false, &domain.WesTimeoutError{Operation: "get task status", Err: err}
	default:
		return "", false, fmt.Errorf("failed to fetch status of WES task %s: %w", id, err)
	}
}

// UpdateTaskPriority changes the priority of a queued task
func (c *Client) UpdateTaskPriority(ctx context.Context, id domain.WesTaskID, priority int) error {
	err := c.http.Do(ctx, "update-priority", nethttp.MethodPut, taskPath(id)+"/priority", updatePriorityRequest{Priority: priority}, nil)
	switch {
	case err == nil:
		return nil
	case httpclient.StatusCode(err) == nethttp.StatusNotFound:
		return &domain.WesTaskNotFoundError{WesTaskID: id}
	case httpclient.IsTimeout(err):
		return &domain.WesTimeoutError{Operation: "update task priority", Err: err}
	default:
		return &domain.WesPriorityUpdateError{WesTaskID: id, Message: fmt.Sprintf("priority %d rejected", priority), Err: err}
	}
}

// CancelTask cancels a task in the WES
func (c *Client) CancelTask(ctx context.Context, id domain.WesTaskID) error {
	err := c.http.Do(ctx, "cancel-task", nethttp.MethodDelete, taskPath(id), nil, nil)
	switch {
	case err == nil:
		return nil
	case httpclient.StatusCode(err) == nethttp.StatusNotFound:
		return &domain.WesTaskNotFoundError{WesTaskID: id}
	case httpclient.IsTimeout(err):
		return &domain.WesTimeoutError{Operation: "cancel task", Err: err}
	default:
		return &domain.WesCancellationError{WesTaskID: id, Message: "WES refused the cancellation", Err: err}
	}
}

// PollAllTasks lists every task the WES knows. The list carries no items.
func (c *Client) PollAllTasks(ctx context.Context) ([]domain.WesTaskRecord, error) {
	var resp taskListResponse
	if err := c.http.Do(ctx, "poll-tasks", nethttp.MethodGet, "/api/tasks", nil, &resp); err != nil {
		if httpclient.IsTimeout(err) {
			return nil, &domain.WesTimeoutError{Operation: "poll tasks", Err: err}
		}
		return nil, fmt.Errorf("failed to poll WES tasks: %w", err)
	}

	records := make([]domain.WesTaskRecord, 0, len(resp.Tasks))
	for _, dto := range resp.Tasks {
		if dto.TaskID == "" {
			continue
		}
		records = append(records, domain.WesTaskRecord{
			WesTaskID:   domain.WesTaskID(dto.TaskID),
			TaskType:    dto.TaskType,
			OrderID:     dto.OrderID,
			WarehouseID: dto.WarehouseID,
			Priority:    dto.Priority,
			Status:      domain.ParseWesStatus(dto.Status),
			CreatedAt:   httpclient.ParseTimestamp(dto.CreatedAt),
			StartedAt:   optionalTime(dto.StartedAt),
			CompletedAt: optionalTime(dto.CompletedAt),
		})
	}
	return records, nil
}

// GetInventorySnapshot lists the stock the WES expects on hand. Rows the
// inventory domain rejects are skipped.
func (c *Client) GetInventorySnapshot(ctx context.Context) ([]invdomain.StockSnapshot, error) {
	var resp inventoryResponse
	if err := c.http.Do(ctx, "get-inventory", nethttp.MethodGet, "/api/inventory", nil, &resp); err != nil {
		if httpclient.IsTimeout(err) {
			return nil, &domain.WesTimeoutError{Operation: "get inventory", Err: err}
		}
		return nil, fmt.Errorf("failed to fetch WES inventory: %w", err)
	}

	now := time.Now().UTC()
	snapshots := make([]invdomain.StockSnapshot, 0, len(resp.Inventory))
	var errs []error
	for _, row := range resp.Inventory {
		ts := httpclient.ParseTimestamp(row.UpdatedAt)
		if ts.IsZero() {
			ts = now
		}
		s, err := invdomain.NewStockSnapshot(row.SKU, row.Quantity, row.WarehouseID, ts)
		if err != nil {
			errs = append(errs, fmt.Errorf("sku %q: %w", row.SKU, err))
			continue
		}
		snapshots = append(snapshots, s)
	}
	if len(errs) > 0 {
		c.logger.WithContext(ctx).Warn("Skipped invalid WES inventory rows", "skipped", len(errs), "error", errors.Join(errs...))
	}
	return snapshots, nil
}

func taskPath(id domain.WesTaskID) string {
	return "/api/tasks/" + url.PathEscape(string(id))
}

func optionalTime(s string) *time.Time {
	t := httpclient.ParseTimestamp(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
