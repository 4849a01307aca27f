package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/httpclient"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// SystemName identifies the inventory system in logs, metrics and breaker state
const SystemName = "inventory-system"

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count,omitempty"`
	Data    T      `json:"data"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

type reservationRequest struct {
	SKU         string `json:"sku"`
	WarehouseID string `json:"warehouse_id"`
	OrderID     string `json:"order_id"`
	Quantity    int    `json:"quantity"`
}

type reservationData struct {
	ReservationID string `json:"reservation_id"`
	SKU           string `json:"sku"`
	WarehouseID   string `json:"warehouse_id"`
	OrderID       string `json:"order_id"`
	Quantity      int    `json:"quantity"`
	Status        string `json:"status"`
}

type increaseRequest struct {
	SKU         string `json:"sku"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
}

type adjustRequest struct {
	SKU         string `json:"sku"`
	WarehouseID string `json:"warehouse_id"`
	Adjustment  int    `json:"adjustment"`
	Reason      string `json:"reason"`
}

type inventoryRow struct {
	SKU               string `json:"SKU"`
	ProductName       string `json:"PRODUCT_NAME"`
	WarehouseID       string `json:"WAREHOUSE_ID"`
	TotalQuantity     int    `json:"TOTAL_QUANTITY"`
	ReservedQuantity  int    `json:"RESERVED_QUANTITY"`
	AvailableQuantity int    `json:"AVAILABLE_QUANTITY"`
	Location          string `json:"LOCATION"`
	UpdatedAt         string `json:"UPDATED_AT"`
}

// Client talks to the inventory system over its REST API
type Client struct {
	http *httpclient.Client
}

var _ domain.InventoryPort = (*Client)(nil)

// NewClient creates an inventory system client
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger, m *metrics.Metrics) *Client {
	return &Client{
		http: httpclient.New(httpclient.Config{System: SystemName, BaseURL: baseURL, Timeout: timeout}, logger, m),
	}
}

// CreateReservation reserves quantity of sku for orderID
func (c *Client) CreateReservation(ctx context.Context, sku, warehouseID, orderID string, quantity int) (domain.ExternalReservationID, error) {
	var resp envelope[reservationData]
	err := c.http.Do(ctx, "create-reservation", nethttp.MethodPost, "/api/reservations",
		reservationRequest{SKU: sku, WarehouseID: warehouseID, OrderID: orderID, Quantity: quantity}, &resp)
	if err != nil {
		if httpclient.StatusCode(err) == nethttp.StatusConflict {
			return "", &domain.InsufficientInventoryError{
				SKU:         sku,
				WarehouseID: warehouseID,
				Requested:   quantity,
				Message:     reason(err),
			}
		}
		return "", &domain.InventorySystemError{Operation: "create reservation", Err: err}
	}
	if resp.Data.ReservationID == "" {
		return "", &domain.InventorySystemError{Operation: "create reservation", Err: errors.New("response carried no reservation id")}
	}
	return domain.ExternalReservationID(resp.Data.ReservationID), nil
}

// ConsumeReservation turns a reservation into an outbound movement
func (c *Client) ConsumeReservation(ctx context.Context, id domain.ExternalReservationID) error {
	return c.reservationAction(ctx, id, "consume")
}

// ReleaseReservation returns reserved stock to available
func (c *Client) ReleaseReservation(ctx context.Context, id domain.ExternalReservationID) error {
	return c.reservationAction(ctx, id, "release")
}

func (c *Client) reservationAction(ctx context.Context, id domain.ExternalReservationID, action string) error {
	path := fmt.Sprintf("/api/reservations/%s/%s", id, action)
	err := c.http.Do(ctx, action+"-reservation", nethttp.MethodPost, path, nil, nil)
	if err == nil {
		return nil
	}
	if httpclient.StatusCode(err) == nethttp.StatusNotFound {
		return &domain.ReservationNotFoundError{ReservationID: id}
	}
	return &domain.InventorySystemError{Operation: action + " reservation", Err: err}
}

// IncreaseInventory books inbound stock
func (c *Client) IncreaseInventory(ctx context.Context, sku, warehouseID string, quantity int, reason string) error {
	err := c.http.Do(ctx, "increase-inventory", nethttp.MethodPost, "/api/inventory/increase",
		increaseRequest{SKU: sku, WarehouseID: warehouseID, Quantity: quantity, Reason: reason}, nil)
	if err != nil {
		return &domain.InventorySystemError{Operation: "increase inventory", Err: err}
	}
	return nil
}

// AdjustInventory applies a signed correction
func (c *Client) AdjustInventory(ctx context.Context, sku, warehouseID string, quantityChange int, reason string) error {
	err := c.http.Do(ctx, "adjust-inventory", nethttp.MethodPost, "/api/inventory/adjust",
		adjustRequest{SKU: sku, WarehouseID: warehouseID, Adjustment: quantityChange, Reason: reason}, nil)
	if err != nil {
		return &domain.InventorySystemError{Operation: "adjust inventory", Err: err}
	}
	return nil
}

// GetInventorySnapshot lists every stock row. Rows with an unparseable
// timestamp keep a zero UpdatedAt.
func (c *Client) GetInventorySnapshot(ctx context.Context) ([]domain.InventorySnapshot, error) {
	var resp envelope[[]inventoryRow]
	if err := c.http.Do(ctx, "get-inventory-snapshot", nethttp.MethodGet, "/api/inventory", nil, &resp); err != nil {
		return nil, &domain.InventorySystemError{Operation: "get inventory snapshot", Err: err}
	}

	snapshots := make([]domain.InventorySnapshot, 0, len(resp.Data))
	for _, row := range resp.Data {
		snapshots = append(snapshots, domain.InventorySnapshot{
			SKU:               row.SKU,
			ProductName:       row.ProductName,
			WarehouseID:       row.WarehouseID,
			TotalQuantity:     row.TotalQuantity,
			ReservedQuantity:  row.ReservedQuantity,
			AvailableQuantity: row.AvailableQuantity,
			Location:          row.Location,
			UpdatedAt:         httpclient.ParseTimestamp(row.UpdatedAt),
		})
	}
	return snapshots, nil
}

// reason extracts the error message the inventory system put in the body
func reason(err error) string {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return err.Error()
	}
	var body errorBody
	if jsonErr := json.Unmarshal([]byte(se.Body), &body); jsonErr == nil {
		if body.Details != "" {
			return body.Details
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return se.Body
}
