package domain

import "time"

const AggregateTypeOrder = "Order"

// Event types
const (
	EventOrderCreated             = "wms.order.created"
	EventOrderScheduled           = "wms.order.scheduled"
	EventOrderReadyForFulfillment = "wms.order.ready-for-fulfillment"
	EventOrderReserved            = "wms.order.reserved"
	EventOrderCommitted           = "wms.order.committed"
	EventOrderShipped             = "wms.order.shipped"
	EventOrderFulfillmentFailed   = "wms.order.fulfillment-failed"
)

// OrderEvent is the closed set of events raised by Order
type OrderEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
	orderEvent()
}

// OrderEventBase carries the fields shared by every order event
type OrderEventBase struct {
	OrderID   string    `json:"orderId"`
	Timestamp time.Time `json:"occurredAt"`
}

func (b OrderEventBase) AggregateID() string   { return b.OrderID }
func (b OrderEventBase) AggregateType() string { return AggregateTypeOrder }
func (b OrderEventBase) OccurredAt() time.Time { return b.Timestamp }
func (b OrderEventBase) orderEvent()           {}

// OrderCreatedEvent is raised when an order is accepted
type OrderCreatedEvent struct {
	OrderEventBase
	LineCount int `json:"lineCount"`
}

func (e *OrderCreatedEvent) EventType() string { return EventOrderCreated }

// OrderScheduledEvent is raised when an order is deferred until its fulfillment window
type OrderScheduledEvent struct {
	OrderEventBase
	ScheduledPickupTime time.Time     `json:"scheduledPickupTime"`
	LeadTime            time.Duration `json:"leadTime"`
}

func (e *OrderScheduledEvent) EventType() string { return EventOrderScheduled }

// OrderReadyForFulfillmentEvent is raised when the order enters AWAITING_FULFILLMENT
type OrderReadyForFulfillmentEvent struct {
	OrderEventBase
}

func (e *OrderReadyForFulfillmentEvent) EventType() string { return EventOrderReadyForFulfillment }

// OrderReservedEvent is raised the first time every line is reserved
type OrderReservedEvent struct {
	OrderEventBase
	ReservedLineIDs []string `json:"reservedLineIds"`
}

func (e *OrderReservedEvent) EventType() string { return EventOrderReserved }

// OrderCommittedEvent is raised when every line has been picked
type OrderCommittedEvent struct {
	OrderEventBase
}

func (e *OrderCommittedEvent) EventType() string { return EventOrderCommitted }

// OrderShippedEvent is raised when the order leaves the warehouse
type OrderShippedEvent struct {
	OrderEventBase
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
}

func (e *OrderShippedEvent) EventType() string { return EventOrderShipped }

// OrderFulfillmentFailedEvent is raised when the order can no longer be fulfilled
type OrderFulfillmentFailedEvent struct {
	OrderEventBase
	Reason string `json:"reason"`
}

func (e *OrderFulfillmentFailedEvent) EventType() string { return EventOrderFulfillmentFailed }
