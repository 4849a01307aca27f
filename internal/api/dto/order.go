package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
)

// CreateOrderRequest represents the request to create an order.
// FulfillmentLeadTime is a Go duration such as "90m" and defaults to two hours.
type CreateOrderRequest struct {
	OrderID             string             `json:"orderId" binding:"required,notblank" example:"ORD-1001"`
	Items               []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ScheduledPickupTime *time.Time         `json:"scheduledPickupTime,omitempty" example:"2026-03-02T14:00:00Z"`
	FulfillmentLeadTime string             `json:"fulfillmentLeadTime,omitempty" example:"2h"`
}

// OrderItemRequest represents an order line in the request
type OrderItemRequest struct {
	SKU      string          `json:"sku" binding:"required,sku" example:"SKU-12345"`
	Quantity int             `json:"quantity" binding:"required,gt=0" example:"2"`
	Price    decimal.Decimal `json:"price" example:"19.99"`
}

// ScheduleOrderRequest schedules a created order for later pickup
type ScheduleOrderRequest struct {
	ScheduledPickupTime time.Time `json:"scheduledPickupTime" binding:"required"`
	FulfillmentLeadTime string    `json:"fulfillmentLeadTime,omitempty"`
}

// ShipOrderRequest records a shipment
type ShipOrderRequest struct {
	Carrier        string `json:"carrier" binding:"required,notblank" example:"UPS"`
	TrackingNumber string `json:"trackingNumber" binding:"required,notblank" example:"1Z999AA10123456784"`
}

// OrderResponse represents an order in the response
type OrderResponse struct {
	OrderID             string                 `json:"orderId"`
	Status              string                 `json:"status"`
	Items               []domain.OrderLineItem `json:"items"`
	ScheduledPickupTime *time.Time             `json:"scheduledPickupTime,omitempty"`
	FulfillmentLeadTime string                 `json:"fulfillmentLeadTime"`
	Shipment            *domain.ShipmentInfo   `json:"shipment,omitempty"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

// ToOrderResponse converts a domain Order to OrderResponse DTO
func ToOrderResponse(order *domain.Order) OrderResponse {
	s := order.State()
	return OrderResponse{
		OrderID:             s.ID,
		Status:              string(s.Status),
		Items:               s.Lines,
		ScheduledPickupTime: s.ScheduledPickupTime,
		FulfillmentLeadTime: s.LeadTime.String(),
		Shipment:            s.Shipment,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

// ToOrderResponses converts a list of orders
func ToOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderResponse(o))
	}
	return out
}
