package domain

import (
	"context"
	"time"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Save persists an order (upsert)
	Save(ctx context.Context, order *Order) error

	// FindByID returns a NotFoundError when the order does not exist
	FindByID(ctx context.Context, orderID string) (*Order, error)

	FindByStatus(ctx context.Context, status OrderStatus) ([]*Order, error)

	// FindScheduledReadyForFulfillment returns SCHEDULED orders whose
	// fulfillment window has opened at now
	FindScheduledReadyForFulfillment(ctx context.Context, now time.Time) ([]*Order, error)
}
