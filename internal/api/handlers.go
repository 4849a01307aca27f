package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-orchestrator/internal/api/dto"
	invapp "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/application"
	obsapp "github.com/wms-platform/fulfillment-orchestrator/internal/observation/application"
	obsdomain "github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	orderapp "github.com/wms-platform/fulfillment-orchestrator/internal/order/application"
	orderdomain "github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	wesapp "github.com/wms-platform/fulfillment-orchestrator/internal/wes/application"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/middleware"
)

func badField(field, message string) error {
	return apperrors.NewValidationError(field, message)
}

// bind decodes the body into req, reporting false after failing the request
func bind(c *gin.Context, req any) bool {
	if appErr := middleware.BindAndValidate(c, req); appErr != nil {
		fail(c, appErr)
		return false
	}
	return true
}

// Orders

func createOrderHandler(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateOrderRequest
		if !bind(c, &req) {
			return
		}
		lead, err := parseLeadTime(req.FulfillmentLeadTime)
		if err != nil {
			fail(c, err)
			return
		}

		items := make([]orderapp.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, orderapp.OrderItem{SKU: it.SKU, Quantity: it.Quantity, Price: it.Price})
		}
		order, err := service.CreateOrder(c.Request.Context(), orderapp.CreateOrderCommand{
			OrderID:             req.OrderID,
			Items:               items,
			ScheduledPickupTime: req.ScheduledPickupTime,
			FulfillmentLeadTime: lead,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
	}
}

func getOrderHandler(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := service.GetOrder(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToOrderResponse(order))
	}
}

func listOrdersHandler(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := strings.ToUpper(c.Query("status"))
		if status == "" {
			fail(c, badField("status", "query parameter is required"))
			return
		}
		orders, err := service.ListOrdersByStatus(c.Request.Context(), orderdomain.OrderStatus(status))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(orders), "data": dto.ToOrderResponses(orders)})
	}
}

func scheduleOrderHandler(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ScheduleOrderRequest
		if !bind(c, &req) {
			return
		}
		lead, err := parseLeadTime(req.FulfillmentLeadTime)
		if err != nil {
			fail(c, err)
			return
		}
		err = service.ScheduleOrder(c.Request.Context(), orderapp.ScheduleOrderCommand{
			OrderID:             c.Param("orderId"),
			ScheduledPickupTime: req.ScheduledPickupTime,
			FulfillmentLeadTime: lead,
		})
		if err != nil {
			fail(c, err)
			return
		}
		accepted(c)
	}
}

func initiateFulfillmentHandler(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.InitiateFulfillment(c.Request.Context(), c.Param("orderId")); err != nil {
			fail(c, err)
			return
		}
		accepted(c)
	}
}

func shipOrderHandler(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ShipOrderRequest
		if !bind(c, &req) {
			return
		}
		err := service.ShipOrder(c.Request.Context(), orderapp.ShipOrderCommand{
			OrderID:        c.Param("orderId"),
			Carrier:        req.Carrier,
			TrackingNumber: req.TrackingNumber,
		})
		if err != nil {
			fail(c, err)
			return
		}
		accepted(c)
	}
}

// Picking tasks

func createPickingTaskHandler(service PickingTaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreatePickingTaskRequest
		if !bind(c, &req) {
			return
		}
		items := make([]wesdomain.TaskItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, wesdomain.TaskItem{SKU: it.SKU, Quantity: it.Quantity, Location: it.Location})
		}
		id, err := service.CreatePickingTaskForOrder(c.Request.Context(), wesapp.CreatePickingTaskForOrderCommand{
			OrderID:  req.OrderID,
			Items:    items,
			Priority: req.Priority,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
	}
}

func getPickingTaskHandler(service PickingTaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := service.GetTask(c.Request.Context(), c.Param("taskId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToPickingTaskResponse(task))
	}
}

func listPickingTasksHandler(service PickingTaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			tasks []*wesdomain.PickingTask
			err   error
		)
		switch {
		case c.Query("orderId") != "":
			tasks, err = service.ListTasksForOrder(c.Request.Context(), c.Query("orderId"))
		case c.Query("status") != "":
			status := wesdomain.TaskStatus(strings.ToUpper(c.Query("status")))
			if !status.IsValid() {
				err = badField("status", "unknown task status "+c.Query("status"))
				break
			}
			tasks, err = service.ListTasksByStatus(c.Request.Context(), status)
		default:
			err = badField("orderId", "orderId or status query parameter is required")
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(tasks), "data": dto.ToPickingTaskResponses(tasks)})
	}
}

func updatePriorityHandler(service PickingTaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.UpdatePriorityRequest
		if !bind(c, &req) {
			return
		}
		err := service.AdjustTaskPriority(c.Request.Context(), wesapp.AdjustTaskPriorityCommand{
			TaskID:   c.Param("taskId"),
			Priority: req.Priority,
		})
		if err != nil {
			fail(c, err)
			return
		}
		accepted(c)
	}
}

func cancelPickingTaskHandler(service PickingTaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CancelTaskRequest
		if !bind(c, &req) {
			return
		}
		if err := service.CancelTask(c.Request.Context(), wesapp.CancelTaskCommand{TaskID: c.Param("taskId"), Reason: req.Reason}); err != nil {
			fail(c, err)
			return
		}
		accepted(c)
	}
}

// Observers

func observerKind(c *gin.Context) (obsdomain.ObserverKind, bool) {
	switch strings.ToLower(c.Param("kind")) {
	case "inventory":
		return obsdomain.KindInventory, true
	case "order", "orders":
		return obsdomain.KindOrder, true
	case "wes":
		return obsdomain.KindWes, true
	}
	fail(c, badField("observerType", "must be one of: inventory, order, wes"))
	return "", false
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func createObserverHandler(service ObserverService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := observerKind(c)
		if !ok {
			return
		}

		var (
			id  string
			err error
		)
		ctx := c.Request.Context()
		switch kind {
		case obsdomain.KindInventory:
			var req dto.CreateInventoryObserverRequest
			if !bind(c, &req) {
				return
			}
			id, err = service.CreateInventoryObserver(ctx, obsapp.CreateInventoryObserverCommand{
				ObserverID:       req.ObserverID,
				ThresholdPercent: req.ThresholdPercent,
				CheckFrequency:   req.CheckFrequency,
				PollingInterval:  seconds(req.PollingIntervalSeconds),
			})
		case obsdomain.KindOrder:
			var req dto.CreateOrderObserverRequest
			if !bind(c, &req) {
				return
			}
			id, err = service.CreateOrderObserver(ctx, obsapp.CreateOrderObserverCommand{
				ObserverID:      req.ObserverID,
				DSN:             req.DSN,
				Username:        req.Username,
				Password:        req.Password,
				PollingInterval: seconds(req.PollingIntervalSeconds),
			})
		case obsdomain.KindWes:
			var req dto.CreateWesObserverRequest
			if !bind(c, &req) {
				return
			}
			id, err = service.CreateWesObserver(ctx, obsapp.CreateWesObserverCommand{
				ObserverID:      req.ObserverID,
				URL:             req.URL,
				AuthToken:       req.AuthToken,
				PollingInterval: seconds(req.PollingIntervalSeconds),
			})
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
	}
}

func listObserversHandler(service ObserverService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := observerKind(c)
		if !ok {
			return
		}
		observers, err := service.ListObservers(c.Request.Context(), kind)
		if err != nil {
			fail(c, err)
			return
		}
		if observers == nil {
			observers = []obsapp.ObserverSummary{}
		}
		c.JSON(http.StatusOK, gin.H{"count": len(observers), "data": observers})
	}
}

func pollObserverHandler(service ObserverService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := observerKind(c)
		if !ok {
			return
		}
		if err := service.PollObserver(c.Request.Context(), kind, c.Param("observerId")); err != nil {
			fail(c, err)
			return
		}
		accepted(c)
	}
}

func setObserverActiveHandler(service ObserverService, active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := observerKind(c)
		if !ok {
			return
		}
		set := service.Deactivate
		if active {
			set = service.Activate
		}
		if err := set(c.Request.Context(), kind, c.Param("observerId")); err != nil {
			fail(c, err)
			return
		}
		accepted(c)
	}
}

// Inventory

func warehouseOr(id, fallback string) string {
	if strings.TrimSpace(id) == "" {
		return fallback
	}
	return id
}

func increaseInventoryHandler(service InventoryService, defaultWarehouse string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.IncreaseInventoryRequest
		if !bind(c, &req) {
			return
		}
		id, err := service.IncreaseInventory(c.Request.Context(), invapp.IncreaseInventoryCommand{
			SKU:               req.SKU,
			WarehouseID:       warehouseOr(req.WarehouseID, defaultWarehouse),
			Quantity:          req.Quantity,
			SourceReferenceID: req.SourceReferenceID,
			Reason:            req.Reason,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
	}
}

func adjustInventoryHandler(service InventoryService, defaultWarehouse string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.AdjustInventoryRequest
		if !bind(c, &req) {
			return
		}
		id, err := service.AdjustInventory(c.Request.Context(), invapp.AdjustInventoryCommand{
			SKU:               req.SKU,
			WarehouseID:       warehouseOr(req.WarehouseID, defaultWarehouse),
			QuantityChange:    req.QuantityChange,
			SourceReferenceID: req.SourceReferenceID,
			Reason:            req.Reason,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
	}
}

func getTransactionHandler(service InventoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, err := service.GetTransaction(c.Request.Context(), c.Param("transactionId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToTransactionResponse(tx))
	}
}

func listTransactionsHandler(service InventoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Query("reference")
		if ref == "" {
			fail(c, badField("reference", "query parameter is required"))
			return
		}
		txs, err := service.ListTransactionsForReference(c.Request.Context(), ref)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(txs), "data": dto.ToTransactionResponses(txs)})
	}
}

func releaseOrderReservationsHandler(service InventoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.ReleaseReservationForOrder(c.Request.Context(), c.Param("orderId")); err != nil {
			fail(c, err)
			return
		}
		accepted(c)
	}
}

func detectDiscrepancyHandler(service AdjustmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := service.DetectDiscrepancy(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		if id == "" {
			c.JSON(http.StatusOK, gin.H{"discrepancies": false})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"discrepancies": true, "adjustmentId": id})
	}
}

func getAdjustmentHandler(service AdjustmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		adjustment, err := service.GetAdjustment(c.Request.Context(), c.Param("adjustmentId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToAdjustmentResponse(adjustment))
	}
}

func applyAdjustmentHandler(service AdjustmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.ApplyAdjustment(c.Request.Context(), c.Param("adjustmentId")); err != nil {
			fail(c, err)
			return
		}
		accepted(c)
	}
}
