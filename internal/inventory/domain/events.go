package domain

import "time"

const (
	AggregateTypeTransaction = "InventoryTransaction"
	AggregateTypeAdjustment  = "InventoryAdjustment"
)

// Event types
const (
	EventReservationRequested = "wms.inventory.reservation-requested"
	EventTransactionCreated   = "wms.inventory.transaction-created"
	EventInventoryReserved    = "wms.inventory.reserved"
	EventReservationFailed    = "wms.inventory.reservation-failed"
	EventReservationConsumed  = "wms.inventory.reservation-consumed"
	EventReservationReleased  = "wms.inventory.reservation-released"
	EventInventoryIncreased   = "wms.inventory.increased"
	EventInventoryDecreased   = "wms.inventory.decreased"
	EventInventoryAdjusted    = "wms.inventory.adjusted"
	EventTransactionCompleted = "wms.inventory.transaction-completed"
	EventTransactionFailed    = "wms.inventory.transaction-failed"
	EventDiscrepancyDetected  = "wms.inventory.discrepancy-detected"
	EventAdjustmentApplied    = "wms.inventory.adjustment-applied"
)

// TransactionEvent is the closed set of events raised by InventoryTransaction
type TransactionEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
	transactionEvent()
}

// TransactionEventBase carries the fields shared by every transaction event
type TransactionEventBase struct {
	TransactionID string    `json:"transactionId"`
	Timestamp     time.Time `json:"occurredAt"`
}

func (b TransactionEventBase) AggregateID() string   { return b.TransactionID }
func (b TransactionEventBase) AggregateType() string { return AggregateTypeTransaction }
func (b TransactionEventBase) OccurredAt() time.Time { return b.Timestamp }
func (b TransactionEventBase) transactionEvent()     {}

// InventoryReservationRequestedEvent is raised when a reservation transaction is created
type InventoryReservationRequestedEvent struct {
	TransactionEventBase
	OrderID     string `json:"orderId"`
	SKU         string `json:"sku"`
	WarehouseID string `json:"warehouseId"`
	Quantity    int    `json:"quantity"`
}

func (e *InventoryReservationRequestedEvent) EventType() string { return EventReservationRequested }
func (e *InventoryReservationRequestedEvent) Warehouse() string { return e.WarehouseID }

// InventoryTransactionCreatedEvent is raised by the inbound, outbound and adjustment factories
type InventoryTransactionCreatedEvent struct {
	TransactionEventBase
	Type              TransactionType   `json:"type"`
	Source            TransactionSource `json:"source"`
	SourceReferenceID string            `json:"sourceReferenceId"`
}

func (e *InventoryTransactionCreatedEvent) EventType() string { return EventTransactionCreated }

// InventoryReservedEvent is raised when the inventory system confirms a reservation
type InventoryReservedEvent struct {
	TransactionEventBase
	OrderID               string   `json:"orderId"`
	SKUs                  []string `json:"skus"`
	ExternalReservationID string   `json:"externalReservationId"`
	WarehouseID           string   `json:"warehouseId"`
}

func (e *InventoryReservedEvent) EventType() string { return EventInventoryReserved }
func (e *InventoryReservedEvent) Warehouse() string { return e.WarehouseID }

// ReservationFailedEvent is raised when a reservation transaction fails
type ReservationFailedEvent struct {
	TransactionEventBase
	OrderID string   `json:"orderId"`
	SKUs    []string `json:"skus"`
	Reason  string   `json:"reason"`
}

func (e *ReservationFailedEvent) EventType() string { return EventReservationFailed }

// ReservationConsumedEvent is raised when a consumption transaction completes
type ReservationConsumedEvent struct {
	TransactionEventBase
	OrderID               string `json:"orderId"`
	ExternalReservationID string `json:"externalReservationId"`
	RelatedTransactionID  string `json:"relatedTransactionId,omitempty"`
}

func (e *ReservationConsumedEvent) EventType() string { return EventReservationConsumed }

// ReservationReleasedEvent is raised when a reservation is handed back
type ReservationReleasedEvent struct {
	TransactionEventBase
	OrderID               string `json:"orderId"`
	ExternalReservationID string `json:"externalReservationId"`
}

func (e *ReservationReleasedEvent) EventType() string { return EventReservationReleased }

// InventoryIncreasedEvent is raised when an inbound transaction completes
type InventoryIncreasedEvent struct {
	TransactionEventBase
	WarehouseID string            `json:"warehouseId"`
	Lines       []TransactionLine `json:"lines"`
}

func (e *InventoryIncreasedEvent) EventType() string { return EventInventoryIncreased }
func (e *InventoryIncreasedEvent) Warehouse() string { return e.WarehouseID }

// InventoryDecreasedEvent is raised when an outbound transaction completes
type InventoryDecreasedEvent struct {
	TransactionEventBase
	WarehouseID string            `json:"warehouseId"`
	Lines       []TransactionLine `json:"lines"`
}

func (e *InventoryDecreasedEvent) EventType() string { return EventInventoryDecreased }
func (e *InventoryDecreasedEvent) Warehouse() string { return e.WarehouseID }

// InventoryAdjustedEvent is raised when an adjustment transaction completes
type InventoryAdjustedEvent struct {
	TransactionEventBase
	WarehouseID string            `json:"warehouseId"`
	Lines       []TransactionLine `json:"lines"`
}

func (e *InventoryAdjustedEvent) EventType() string { return EventInventoryAdjusted }
func (e *InventoryAdjustedEvent) Warehouse() string { return e.WarehouseID }

// InventoryTransactionCompletedEvent follows every successful completion or release
type InventoryTransactionCompletedEvent struct {
	TransactionEventBase
	Type              TransactionType   `json:"type"`
	Source            TransactionSource `json:"source"`
	SourceReferenceID string            `json:"sourceReferenceId"`
}

func (e *InventoryTransactionCompletedEvent) EventType() string { return EventTransactionCompleted }

// InventoryTransactionFailedEvent is raised on every failure
type InventoryTransactionFailedEvent struct {
	TransactionEventBase
	Type   TransactionType   `json:"type"`
	Source TransactionSource `json:"source"`
	Reason string            `json:"reason"`
}

func (e *InventoryTransactionFailedEvent) EventType() string { return EventTransactionFailed }

// AdjustmentEvent is the closed set of events raised by InventoryAdjustment
type AdjustmentEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
	adjustmentEvent()
}

// AdjustmentEventBase carries the fields shared by every adjustment event
type AdjustmentEventBase struct {
	AdjustmentID string    `json:"adjustmentId"`
	Timestamp    time.Time `json:"occurredAt"`
}

func (b AdjustmentEventBase) AggregateID() string   { return b.AdjustmentID }
func (b AdjustmentEventBase) AggregateType() string { return AggregateTypeAdjustment }
func (b AdjustmentEventBase) OccurredAt() time.Time { return b.Timestamp }
func (b AdjustmentEventBase) adjustmentEvent()      {}

// InventoryDiscrepancyDetectedEvent carries the full discrepancy list of a new adjustment
type InventoryDiscrepancyDetectedEvent struct {
	AdjustmentEventBase
	Discrepancies []DiscrepancyLog `json:"discrepancies"`
}

func (e *InventoryDiscrepancyDetectedEvent) EventType() string { return EventDiscrepancyDetected }

// InventoryAdjustmentAppliedEvent is raised once per corrective transaction
type InventoryAdjustmentAppliedEvent struct {
	AdjustmentEventBase
	TransactionID string `json:"transactionId"`
}

func (e *InventoryAdjustmentAppliedEvent) EventType() string { return EventAdjustmentApplied }
