package domain

import (
	"context"
	"time"

	invdomain "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
)

// InventorySource reads the stock the inventory system currently holds
type InventorySource interface {
	GetInventorySnapshot(ctx context.Context) ([]invdomain.InventorySnapshot, error)
}

// OrderSourcePort reads new orders from the order-intake system
type OrderSourcePort interface {
	// FetchNewOrders returns orders not yet processed. since is nil on the first poll.
	FetchNewOrders(ctx context.Context, endpoint SourceEndpoint, since *time.Time) ([]ObservationResult, error)
	MarkOrderAsProcessed(ctx context.Context, endpoint SourceEndpoint, orderID string) error
}

// WesTaskSource lists the tasks the WES currently knows
type WesTaskSource interface {
	PollAllTasks(ctx context.Context) ([]wesdomain.WesTaskRecord, error)
}

// InventoryObserverRepository defines the interface for inventory observer persistence
type InventoryObserverRepository interface {
	Save(ctx context.Context, observer *InventoryObserver) error
	FindByID(ctx context.Context, id string) (*InventoryObserver, error)
	FindAllActive(ctx context.Context) ([]*InventoryObserver, error)
	FindAll(ctx context.Context) ([]*InventoryObserver, error)
}

// OrderObserverRepository defines the interface for order observer persistence
type OrderObserverRepository interface {
	Save(ctx context.Context, observer *OrderObserver) error
	FindByID(ctx context.Context, id string) (*OrderObserver, error)
	FindAllActive(ctx context.Context) ([]*OrderObserver, error)
	FindAll(ctx context.Context) ([]*OrderObserver, error)
}

// WesObserverRepository defines the interface for WES observer persistence
type WesObserverRepository interface {
	Save(ctx context.Context, observer *WesObserver) error
	FindByID(ctx context.Context, id string) (*WesObserver, error)
	FindAllActive(ctx context.Context) ([]*WesObserver, error)
	FindAll(ctx context.Context) ([]*WesObserver, error)
}
