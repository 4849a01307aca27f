package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// DefaultLeadTime is used when an order is scheduled without an explicit lead time
const DefaultLeadTime = 2 * time.Hour

// LineReservationInfo records the inventory reservation backing one order line
type LineReservationInfo struct {
	Status                ReservationStatus `json:"status"`
	TransactionID         string            `json:"transactionId,omitempty"`
	ExternalReservationID string            `json:"externalReservationId,omitempty"`
	WarehouseID           string            `json:"warehouseId,omitempty"`
	FailureReason         string            `json:"failureReason,omitempty"`
	ReservedAt            *time.Time        `json:"reservedAt,omitempty"`
}

// PendingReservation is the reservation state of a new line
func PendingReservation() LineReservationInfo {
	return LineReservationInfo{Status: ReservationPending}
}

// NewReservedInfo builds the RESERVED state
func NewReservedInfo(transactionID, externalReservationID, warehouseID string, at time.Time) (LineReservationInfo, error) {
	switch {
	case strings.TrimSpace(transactionID) == "":
		return LineReservationInfo{}, apperrors.NewValidationError("transactionId", "cannot be blank")
	case strings.TrimSpace(externalReservationID) == "":
		return LineReservationInfo{}, apperrors.NewValidationError("externalReservationId", "cannot be blank")
	case strings.TrimSpace(warehouseID) == "":
		return LineReservationInfo{}, apperrors.NewValidationError("warehouseId", "cannot be blank")
	}
	return LineReservationInfo{
		Status:                ReservationReserved,
		TransactionID:         transactionID,
		ExternalReservationID: externalReservationID,
		WarehouseID:           warehouseID,
		ReservedAt:            &at,
	}, nil
}

// NewFailedReservation builds the FAILED state
func NewFailedReservation(reason string, at time.Time) (LineReservationInfo, error) {
	if strings.TrimSpace(reason) == "" {
		return LineReservationInfo{}, apperrors.NewValidationError("reason", "cannot be blank")
	}
	return LineReservationInfo{Status: ReservationFailed, FailureReason: reason, ReservedAt: &at}, nil
}

func (r LineReservationInfo) IsReserved() bool { return r.Status == ReservationReserved }
func (r LineReservationInfo) IsFailed() bool   { return r.Status == ReservationFailed }

// LineCommitmentInfo tracks picking progress for one order line. Reference
// holds the picking task id while IN_PROGRESS and the WES transaction id once COMMITTED.
type LineCommitmentInfo struct {
	Status        CommitmentStatus `json:"status"`
	Reference     string           `json:"reference,omitempty"`
	FailureReason string           `json:"failureReason,omitempty"`
	UpdatedAt     *time.Time       `json:"updatedAt,omitempty"`
}

// PendingCommitment is the commitment state of a new line
func PendingCommitment() LineCommitmentInfo {
	return LineCommitmentInfo{Status: CommitmentPending}
}

// NewInProgressCommitment marks the line as being picked by pickingTaskID
func NewInProgressCommitment(pickingTaskID string, at time.Time) (LineCommitmentInfo, error) {
	if strings.TrimSpace(pickingTaskID) == "" {
		return LineCommitmentInfo{}, apperrors.NewValidationError("pickingTaskId", "cannot be blank")
	}
	return LineCommitmentInfo{Status: CommitmentInProgress, Reference: pickingTaskID, UpdatedAt: &at}, nil
}

// NewCommittedInfo marks the line as picked under wesTransactionID
func NewCommittedInfo(wesTransactionID string, at time.Time) (LineCommitmentInfo, error) {
	if strings.TrimSpace(wesTransactionID) == "" {
		return LineCommitmentInfo{}, apperrors.NewValidationError("wesTransactionId", "cannot be blank")
	}
	return LineCommitmentInfo{Status: CommitmentCommitted, Reference: wesTransactionID, UpdatedAt: &at}, nil
}

// NewFailedCommitment marks picking of the line as failed
func NewFailedCommitment(reason string, at time.Time) (LineCommitmentInfo, error) {
	if strings.TrimSpace(reason) == "" {
		return LineCommitmentInfo{}, apperrors.NewValidationError("reason", "cannot be blank")
	}
	return LineCommitmentInfo{Status: CommitmentFailed, FailureReason: reason, UpdatedAt: &at}, nil
}

func (c LineCommitmentInfo) IsCommitted() bool { return c.Status == CommitmentCommitted }
func (c LineCommitmentInfo) IsFailed() bool    { return c.Status == CommitmentFailed }

// OrderLineItem is one sku line of an order
type OrderLineItem struct {
	LineID      string              `json:"lineId"`
	SKU         string              `json:"sku"`
	Quantity    int                 `json:"quantity"`
	Price       decimal.Decimal     `json:"price"`
	Reservation LineReservationInfo `json:"reservation"`
	Commitment  LineCommitmentInfo  `json:"commitment"`
}

// NewOrderLineItem validates and creates a line with a fresh line id
func NewOrderLineItem(sku string, quantity int, price decimal.Decimal) (OrderLineItem, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return OrderLineItem{}, apperrors.NewValidationError("sku", "cannot be blank")
	}
	if quantity <= 0 {
		return OrderLineItem{}, apperrors.NewValidationError("quantity", "must be greater than 0")
	}
	if price.IsNegative() {
		return OrderLineItem{}, apperrors.NewValidationError("price", "cannot be negative")
	}
	return OrderLineItem{
		LineID:      uuid.New().String(),
		SKU:         sku,
		Quantity:    quantity,
		Price:       price,
		Reservation: PendingReservation(),
		Commitment:  PendingCommitment(),
	}, nil
}

// Total returns quantity × price
func (l OrderLineItem) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l OrderLineItem) IsReserved() bool  { return l.Reservation.IsReserved() }
func (l OrderLineItem) IsCommitted() bool { return l.Commitment.IsCommitted() }

// ShipmentInfo identifies the carrier shipment of a shipped order
type ShipmentInfo struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
}

// NewShipmentInfo validates carrier and tracking number
func NewShipmentInfo(carrier, trackingNumber string) (ShipmentInfo, error) {
	if strings.TrimSpace(carrier) == "" {
		return ShipmentInfo{}, apperrors.NewValidationError("carrier", "cannot be blank")
	}
	if strings.TrimSpace(trackingNumber) == "" {
		return ShipmentInfo{}, apperrors.NewValidationError("trackingNumber", "cannot be blank")
	}
	return ShipmentInfo{Carrier: carrier, TrackingNumber: trackingNumber}, nil
}

// ScheduledPickupTime is when the customer or carrier collects the order
type ScheduledPickupTime struct {
	at time.Time
}

// NewScheduledPickupTime rejects the zero time
func NewScheduledPickupTime(at time.Time) (ScheduledPickupTime, error) {
	if at.IsZero() {
		return ScheduledPickupTime{}, apperrors.NewValidationError("scheduledPickupTime", "is required")
	}
	return ScheduledPickupTime{at: at.UTC()}, nil
}

func (p ScheduledPickupTime) Time() time.Time { return p.at }
func (p ScheduledPickupTime) IsZero() bool    { return p.at.IsZero() }

// FulfillmentStart returns the time fulfillment must begin to meet the pickup
func (p ScheduledPickupTime) FulfillmentStart(lead FulfillmentLeadTime) time.Time {
	return p.at.Add(-lead.Duration())
}

// FulfillmentLeadTime is how long before pickup fulfillment must start
type FulfillmentLeadTime struct {
	d time.Duration
}

// NewFulfillmentLeadTime rejects negative durations
func NewFulfillmentLeadTime(d time.Duration) (FulfillmentLeadTime, error) {
	if d < 0 {
		return FulfillmentLeadTime{}, apperrors.NewValidationError("fulfillmentLeadTime", "cannot be negative")
	}
	return FulfillmentLeadTime{d: d}, nil
}

// DefaultFulfillmentLeadTime returns the two hour default
func DefaultFulfillmentLeadTime() FulfillmentLeadTime {
	return FulfillmentLeadTime{d: DefaultLeadTime}
}

func (l FulfillmentLeadTime) Duration() time.Duration { return l.d }
