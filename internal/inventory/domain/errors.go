package domain

import (
	"fmt"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// InsufficientInventoryError is returned when the inventory system rejects a
// reservation for lack of stock
type InsufficientInventoryError struct {
	SKU         string
	WarehouseID string
	Requested   int
	Message     string
}

func (e *InsufficientInventoryError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("insufficient inventory for %s in %s: %s", e.SKU, e.WarehouseID, e.Message)
	}
	return fmt.Sprintf("insufficient inventory for %s in %s (requested %d)", e.SKU, e.WarehouseID, e.Requested)
}

func (e *InsufficientInventoryError) ErrorKind() apperrors.Kind { return apperrors.KindBusinessRule }

// ReservationNotFoundError is returned when the inventory system does not know a reservation
type ReservationNotFoundError struct {
	ReservationID ExternalReservationID
}

func (e *ReservationNotFoundError) Error() string {
	return fmt.Sprintf("reservation not found in inventory system: %s", e.ReservationID)
}

func (e *ReservationNotFoundError) ErrorKind() apperrors.Kind { return apperrors.KindNotFound }

// InventorySystemError wraps any other failure talking to the inventory system
type InventorySystemError struct {
	Operation string
	Err       error
}

func (e *InventorySystemError) Error() string {
	return fmt.Sprintf("inventory system error during %s: %v", e.Operation, e.Err)
}

func (e *InventorySystemError) Unwrap() error { return e.Err }

func (e *InventorySystemError) ErrorKind() apperrors.Kind { return apperrors.KindExternal }

func stateError(aggregate, action string, from fmt.Stringer) error {
	return apperrors.NewStateTransitionError(aggregate, action, from.String())
}
