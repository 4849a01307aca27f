package domain

import (
	"strings"
	"time"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// TransactionLine is one sku movement inside a transaction. Quantity is
// signed for adjustments and positive otherwise.
type TransactionLine struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// NewTransactionLine validates and creates a TransactionLine
func NewTransactionLine(sku string, quantity int) (TransactionLine, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return TransactionLine{}, apperrors.NewValidationError("sku", "cannot be blank")
	}
	if quantity == 0 {
		return TransactionLine{}, apperrors.NewValidationError("quantity", "cannot be zero")
	}
	return TransactionLine{SKU: sku, Quantity: quantity}, nil
}

func (l TransactionLine) IsPositive() bool { return l.Quantity > 0 }
func (l TransactionLine) IsNegative() bool { return l.Quantity < 0 }

// WarehouseLocation identifies the warehouse (and optionally the zone) a transaction targets
type WarehouseLocation struct {
	WarehouseID string `json:"warehouseId"`
	Zone        string `json:"zone,omitempty"`
}

// NewWarehouseLocation validates and creates a WarehouseLocation
func NewWarehouseLocation(warehouseID, zone string) (WarehouseLocation, error) {
	warehouseID = strings.TrimSpace(warehouseID)
	if warehouseID == "" {
		return WarehouseLocation{}, apperrors.NewValidationError("warehouseId", "cannot be blank")
	}
	return WarehouseLocation{WarehouseID: warehouseID, Zone: strings.TrimSpace(zone)}, nil
}

func (l WarehouseLocation) HasZone() bool { return l.Zone != "" }

// ExternalReservationID is the reservation handle issued by the inventory system
type ExternalReservationID string

// NewExternalReservationID validates and creates an ExternalReservationID
func NewExternalReservationID(value string) (ExternalReservationID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidationError("externalReservationId", "cannot be blank")
	}
	return ExternalReservationID(value), nil
}

func (id ExternalReservationID) String() string { return string(id) }

// StockSnapshot is the on-hand quantity of one sku in one warehouse at a point in time
type StockSnapshot struct {
	SKU         string    `json:"sku"`
	Quantity    int       `json:"quantity"`
	WarehouseID string    `json:"warehouseId"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewStockSnapshot validates and creates a StockSnapshot
func NewStockSnapshot(sku string, quantity int, warehouseID string, timestamp time.Time) (StockSnapshot, error) {
	if strings.TrimSpace(sku) == "" {
		return StockSnapshot{}, apperrors.NewValidationError("sku", "cannot be blank")
	}
	if quantity < 0 {
		return StockSnapshot{}, apperrors.NewValidationError("quantity", "cannot be negative")
	}
	if strings.TrimSpace(warehouseID) == "" {
		return StockSnapshot{}, apperrors.NewValidationError("warehouseId", "cannot be blank")
	}
	if timestamp.IsZero() {
		return StockSnapshot{}, apperrors.NewValidationError("timestamp", "is required")
	}
	return StockSnapshot{SKU: sku, Quantity: quantity, WarehouseID: warehouseID, Timestamp: timestamp}, nil
}

func (s StockSnapshot) key() stockKey {
	return stockKey{warehouseID: s.WarehouseID, sku: s.SKU}
}

type stockKey struct {
	warehouseID string
	sku         string
}

// DiscrepancyLog records one mismatch between the externally expected and
// internally observed quantity. Difference is always Actual - Expected.
type DiscrepancyLog struct {
	SKU              string    `json:"sku"`
	WarehouseID      string    `json:"warehouseId"`
	ExpectedQuantity int       `json:"expectedQuantity"`
	ActualQuantity   int       `json:"actualQuantity"`
	Difference       int       `json:"difference"`
	DetectedAt       time.Time `json:"detectedAt"`
}

// NewDiscrepancyLog validates and creates a DiscrepancyLog
func NewDiscrepancyLog(sku, warehouseID string, expected, actual int, detectedAt time.Time) (DiscrepancyLog, error) {
	sku = strings.TrimSpace(sku)
	warehouseID = strings.TrimSpace(warehouseID)
	switch {
	case sku == "":
		return DiscrepancyLog{}, apperrors.NewValidationError("sku", "cannot be blank")
	case warehouseID == "":
		return DiscrepancyLog{}, apperrors.NewValidationError("warehouseId", "cannot be blank")
	case expected < 0:
		return DiscrepancyLog{}, apperrors.NewValidationError("expectedQuantity", "cannot be negative")
	case actual < 0:
		return DiscrepancyLog{}, apperrors.NewValidationError("actualQuantity", "cannot be negative")
	}
	return DiscrepancyLog{
		SKU:              sku,
		WarehouseID:      warehouseID,
		ExpectedQuantity: expected,
		ActualQuantity:   actual,
		Difference:       actual - expected,
		DetectedAt:       detectedAt,
	}, nil
}

// HasDiscrepancy reports whether the quantities differ
func (d DiscrepancyLog) HasDiscrepancy() bool { return d.Difference != 0 }

// InventorySnapshot is one stock row as reported by the inventory system
type InventorySnapshot struct {
	SKU               string    `json:"sku"`
	ProductName       string    `json:"productName"`
	WarehouseID       string    `json:"warehouseId"`
	TotalQuantity     int       `json:"totalQuantity"`
	ReservedQuantity  int       `json:"reservedQuantity"`
	AvailableQuantity int       `json:"availableQuantity"`
	Location          string    `json:"location,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ToStockSnapshot projects the row to its available quantity
func (s InventorySnapshot) ToStockSnapshot() (StockSnapshot, error) {
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return NewStockSnapshot(s.SKU, s.AvailableQuantity, s.WarehouseID, ts)
}
