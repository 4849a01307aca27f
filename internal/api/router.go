// Package api exposes the orchestrator's admin and operations HTTP API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	invapp "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/application"
	invdomain "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	obsapp "github.com/wms-platform/fulfillment-orchestrator/internal/observation/application"
	obsdomain "github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	orderapp "github.com/wms-platform/fulfillment-orchestrator/internal/order/application"
	orderdomain "github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	wesapp "github.com/wms-platform/fulfillment-orchestrator/internal/wes/application"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/middleware"
)

// OrderService is the order API surface
type OrderService interface {
	CreateOrder(ctx context.Context, cmd orderapp.CreateOrderCommand) (*orderdomain.Order, error)
	ScheduleOrder(ctx context.Context, cmd orderapp.ScheduleOrderCommand) error
	InitiateFulfillment(ctx context.Context, orderID string) error
	ShipOrder(ctx context.Context, cmd orderapp.ShipOrderCommand) error
	GetOrder(ctx context.Context, orderID string) (*orderdomain.Order, error)
	ListOrdersByStatus(ctx context.Context, status orderdomain.OrderStatus) ([]*orderdomain.Order, error)
}

// PickingTaskService is the picking task API surface
type PickingTaskService interface {
	CreatePickingTaskForOrder(ctx context.Context, cmd wesapp.CreatePickingTaskForOrderCommand) (string, error)
	AdjustTaskPriority(ctx context.Context, cmd wesapp.AdjustTaskPriorityCommand) error
	CancelTask(ctx context.Context, cmd wesapp.CancelTaskCommand) error
	GetTask(ctx context.Context, id string) (*wesdomain.PickingTask, error)
	ListTasksForOrder(ctx context.Context, orderID string) ([]*wesdomain.PickingTask, error)
	ListTasksByStatus(ctx context.Context, status wesdomain.TaskStatus) ([]*wesdomain.PickingTask, error)
}

// ObserverService is the observer API surface
type ObserverService interface {
	CreateInventoryObserver(ctx context.Context, cmd obsapp.CreateInventoryObserverCommand) (string, error)
	CreateOrderObserver(ctx context.Context, cmd obsapp.CreateOrderObserverCommand) (string, error)
	CreateWesObserver(ctx context.Context, cmd obsapp.CreateWesObserverCommand) (string, error)
	PollObserver(ctx context.Context, kind obsdomain.ObserverKind, id string) error
	Activate(ctx context.Context, kind obsdomain.ObserverKind, id string) error
	Deactivate(ctx context.Context, kind obsdomain.ObserverKind, id string) error
	ListObservers(ctx context.Context, kind obsdomain.ObserverKind) ([]obsapp.ObserverSummary, error)
}

// InventoryService is the inventory operations API surface
type InventoryService interface {
	IncreaseInventory(ctx context.Context, cmd invapp.IncreaseInventoryCommand) (string, error)
	AdjustInventory(ctx context.Context, cmd invapp.AdjustInventoryCommand) (string, error)
	GetTransaction(ctx context.Context, id string) (*invdomain.InventoryTransaction, error)
	ListTransactionsForReference(ctx context.Context, sourceReferenceID string) ([]*invdomain.InventoryTransaction, error)
	ReleaseReservationForOrder(ctx context.Context, orderID string) error
}

// AdjustmentService is the reconciliation API surface
type AdjustmentService interface {
	DetectDiscrepancy(ctx context.Context) (string, error)
	ApplyAdjustment(ctx context.Context, adjustmentID string) error
	GetAdjustment(ctx context.Context, id string) (*invdomain.InventoryAdjustment, error)
}

// Deps holds everything the router needs
type Deps struct {
	ServiceName        string
	Logger             *logging.Logger
	Metrics            *metrics.Metrics
	Orders             OrderService
	PickingTasks       PickingTaskService
	Observers          ObserverService
	Inventory          InventoryService
	Adjustments        AdjustmentService
	DefaultWarehouseID string
	ReadinessChecks    map[string]func(*gin.Context) error
	AllowedOrigins     []string
}

// NewRouter builds the gin engine with middleware, probes and API routes
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()

	// CORS for the operations dashboard
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Correlation-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Correlation-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	middleware.Setup(router, middleware.DefaultConfig(deps.ServiceName, deps.Logger, deps.Metrics))

	router.GET("/health", middleware.HealthCheck(deps.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(deps.ServiceName, deps.ReadinessChecks))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")

	orders := v1.Group("/orders")
	{
		orders.POST("", createOrderHandler(deps.Orders))
		orders.GET("", listOrdersHandler(deps.Orders))
		orders.GET("/:orderId", getOrderHandler(deps.Orders))
		orders.POST("/:orderId/schedule", scheduleOrderHandler(deps.Orders))
		orders.POST("/:orderId/fulfillment", initiateFulfillmentHandler(deps.Orders))
		orders.POST("/:orderId/shipment", shipOrderHandler(deps.Orders))
	}

	tasks := v1.Group("/picking-tasks")
	{
		tasks.POST("", createPickingTaskHandler(deps.PickingTasks))
		tasks.GET("", listPickingTasksHandler(deps.PickingTasks))
		tasks.GET("/:taskId", getPickingTaskHandler(deps.PickingTasks))
		tasks.PUT("/:taskId/priority", updatePriorityHandler(deps.PickingTasks))
		tasks.POST("/:taskId/cancel", cancelPickingTaskHandler(deps.PickingTasks))
	}

	observers := v1.Group("/observers/:kind")
	{
		observers.POST("", createObserverHandler(deps.Observers))
		observers.GET("", listObserversHandler(deps.Observers))
		observers.POST("/:observerId/poll", pollObserverHandler(deps.Observers))
		observers.POST("/:observerId/activate", setObserverActiveHandler(deps.Observers, true))
		observers.POST("/:observerId/deactivate", setObserverActiveHandler(deps.Observers, false))
	}

	inventory := v1.Group("/inventory")
	{
		inventory.POST("/increase", increaseInventoryHandler(deps.Inventory, deps.DefaultWarehouseID))
		inventory.POST("/adjust", adjustInventoryHandler(deps.Inventory, deps.DefaultWarehouseID))
		inventory.GET("/transactions", listTransactionsHandler(deps.Inventory))
		inventory.GET("/transactions/:transactionId", getTransactionHandler(deps.Inventory))
		inventory.POST("/orders/:orderId/release", releaseOrderReservationsHandler(deps.Inventory))

		inventory.POST("/adjustments/detect", detectDiscrepancyHandler(deps.Adjustments))
		inventory.GET("/adjustments/:adjustmentId", getAdjustmentHandler(deps.Adjustments))
		inventory.POST("/adjustments/:adjustmentId/apply", applyAdjustmentHandler(deps.Adjustments))
	}

	return router
}

// fail hands err to the error middleware, which maps it to a status and body
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func parseLeadTime(raw string) (*time.Duration, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, badField("fulfillmentLeadTime", "must be a duration such as 90m or 2h")
	}
	return &d, nil
}

func accepted(c *gin.Context) {
	c.Status(http.StatusAccepted)
}
