package application

// ReserveInventoryCommand reserves stock of one sku for an order
type ReserveInventoryCommand struct {
	OrderID     string
	SKU         string
	WarehouseID string
	Quantity    int
}

// ConsumeReservationCommand consumes a completed reservation after picking
type ConsumeReservationCommand struct {
	TransactionID     string
	SourceReferenceID string
}

// IncreaseInventoryCommand books inbound stock, typically after putaway
type IncreaseInventoryCommand struct {
	SKU               string
	WarehouseID       string
	Quantity          int
	SourceReferenceID string
	Reason            string
}

// AdjustInventoryCommand applies a signed manual correction
type AdjustInventoryCommand struct {
	SKU               string
	WarehouseID       string
	QuantityChange    int
	SourceReferenceID string
	Reason            string
}
