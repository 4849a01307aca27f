package domain

import "context"

// InventoryPort is the inventory system as seen by the orchestrator
type InventoryPort interface {
	CreateReservation(ctx context.Context, sku, warehouseID, orderID string, quantity int) (ExternalReservationID, error)
	ConsumeReservation(ctx context.Context, id ExternalReservationID) error
	ReleaseReservation(ctx context.Context, id ExternalReservationID) error
	IncreaseInventory(ctx context.Context, sku, warehouseID string, quantity int, reason string) error
	AdjustInventory(ctx context.Context, sku, warehouseID string, quantityChange int, reason string) error
	GetInventorySnapshot(ctx context.Context) ([]InventorySnapshot, error)
}

// StockSource supplies the externally expected stock used as the reference
// side of reconciliation
type StockSource interface {
	GetInventorySnapshot(ctx context.Context) ([]StockSnapshot, error)
}

// TransactionRepository defines the interface for inventory transaction persistence
type TransactionRepository interface {
	Save(ctx context.Context, tx *InventoryTransaction) error
	FindByID(ctx context.Context, id string) (*InventoryTransaction, error)
	FindBySourceReferenceID(ctx context.Context, sourceReferenceID string) ([]*InventoryTransaction, error)
	FindByStatus(ctx context.Context, status TransactionStatus) ([]*InventoryTransaction, error)
}

// AdjustmentRepository defines the interface for inventory adjustment persistence
type AdjustmentRepository interface {
	Save(ctx context.Context, adjustment *InventoryAdjustment) error
	FindByID(ctx context.Context, id string) (*InventoryAdjustment, error)
	FindByStatus(ctx context.Context, status AdjustmentStatus) ([]*InventoryAdjustment, error)
}
