package application

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one requested line of a new order
type OrderItem struct {
	SKU      string
	Quantity int
	Price    decimal.Decimal
}

// CreateOrderCommand creates an order. Without a pickup time the order is
// released for fulfillment straight away.
type CreateOrderCommand struct {
	OrderID             string
	Items               []OrderItem
	ScheduledPickupTime *time.Time
	// FulfillmentLeadTime defaults to two hours when nil
	FulfillmentLeadTime *time.Duration
}

// ScheduleOrderCommand schedules a CREATED order for a later pickup
type ScheduleOrderCommand struct {
	OrderID             string
	ScheduledPickupTime time.Time
	FulfillmentLeadTime *time.Duration
}

// ShipOrderCommand records the shipment of a committed order
type ShipOrderCommand struct {
	OrderID        string
	Carrier        string
	TrackingNumber string
}
