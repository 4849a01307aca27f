package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// InventoryAdjustment groups the discrepancies found by one reconciliation
// run and tracks the corrective transactions applied for them
type InventoryAdjustment struct {
	id                    string
	status                AdjustmentStatus
	discrepancies         []DiscrepancyLog
	appliedTransactionIDs []string
	failureReason         string
	createdAt             time.Time
	processedAt           *time.Time
	events                []AdjustmentEvent
}

// DetectDiscrepancy compares internally observed stock against the external
// view. Both inputs are indexed by (warehouse, sku) with the last duplicate
// winning. Every external key whose quantity differs from the internal one
// yields a discrepancy; internal keys with positive stock and no external
// counterpart yield a discrepancy with an expected quantity of zero.
func DetectDiscrepancy(internal, external []StockSnapshot, now time.Time) (*InventoryAdjustment, error) {
	internalByKey := make(map[stockKey]StockSnapshot, len(internal))
	for _, s := range internal {
		internalByKey[s.key()] = s
	}
	externalByKey := make(map[stockKey]StockSnapshot, len(external))
	for _, s := range external {
		externalByKey[s.key()] = s
	}

	adj := &InventoryAdjustment{
		id:        uuid.New().String(),
		status:    AdjustmentPending,
		createdAt: now,
	}

	seen := make(map[stockKey]bool, len(external))
	for _, s := range external {
		key := s.key()
		if seen[key] {
			continue
		}
		seen[key] = true

		expected := externalByKey[key].Quantity
		actual := internalByKey[key].Quantity
		if expected == actual {
			continue
		}
		log, err := NewDiscrepancyLog(s.SKU, s.WarehouseID, expected, actual, now)
		if err != nil {
			return nil, err
		}
		adj.discrepancies = append(adj.discrepancies, log)
	}

	phantom := make(map[stockKey]bool)
	for _, s := range internal {
		key := s.key()
		if _, ok := externalByKey[key]; ok || phantom[key] {
			continue
		}
		current := internalByKey[key]
		if current.Quantity <= 0 {
			continue
		}
		phantom[key] = true
		log, err := NewDiscrepancyLog(s.SKU, s.WarehouseID, 0, current.Quantity, now)
		if err != nil {
			return nil, err
		}
		adj.discrepancies = append(adj.discrepancies, log)
	}

	if len(adj.discrepancies) > 0 {
		adj.raise(&InventoryDiscrepancyDetectedEvent{
			AdjustmentEventBase: adj.eventBase(now),
			Discrepancies:       adj.Discrepancies(),
		})
	}
	return adj, nil
}

// MarkAsProcessing moves a PENDING adjustment to PROCESSING
func (a *InventoryAdjustment) MarkAsProcessing() error {
	if !a.status.CanProcess() {
		return stateError(AggregateTypeAdjustment, "process", a.status)
	}
	a.status = AdjustmentProcessing
	return nil
}

// EnsureApplicable rejects an adjustment that already completed or failed
func (a *InventoryAdjustment) EnsureApplicable() error {
	if !a.status.CanProcess() && !a.status.CanComplete() {
		return stateError(AggregateTypeAdjustment, "apply", a.status)
	}
	return nil
}

// ApplyAdjustment records a corrective transaction. It is accepted while the
// adjustment is PENDING or PROCESSING and always leaves it PROCESSING.
func (a *InventoryAdjustment) ApplyAdjustment(transactionID string) error {
	if err := a.EnsureApplicable(); err != nil {
		return err
	}
	if strings.TrimSpace(transactionID) == "" {
		return apperrors.NewValidationError("transactionId", "cannot be blank")
	}

	a.status = AdjustmentProcessing
	a.appliedTransactionIDs = append(a.appliedTransactionIDs, transactionID)
	a.raise(&InventoryAdjustmentAppliedEvent{
		AdjustmentEventBase: a.eventBase(time.Now().UTC()),
		TransactionID:       transactionID,
	})
	return nil
}

// Complete finishes a PROCESSING adjustment
func (a *InventoryAdjustment) Complete() error {
	if !a.status.CanComplete() {
		return stateError(AggregateTypeAdjustment, "complete", a.status)
	}
	now := time.Now().UTC()
	a.status = AdjustmentCompleted
	a.processedAt = &now
	return nil
}

// Fail marks a PENDING or PROCESSING adjustment FAILED
func (a *InventoryAdjustment) Fail(reason string) error {
	if !a.status.CanFail() {
		return stateError(AggregateTypeAdjustment, "fail", a.status)
	}
	now := time.Now().UTC()
	a.status = AdjustmentFailed
	a.failureReason = reason
	a.processedAt = &now
	return nil
}

// HasDiscrepancies reports whether reconciliation found anything to correct
func (a *InventoryAdjustment) HasDiscrepancies() bool {
	return len(a.discrepancies) > 0
}

// DiscrepanciesByWarehouse groups discrepancies by warehouse. Warehouses are
// returned in order of first appearance and each group keeps input order.
func (a *InventoryAdjustment) DiscrepanciesByWarehouse() ([]string, map[string][]DiscrepancyLog) {
	var order []string
	groups := make(map[string][]DiscrepancyLog)
	for _, d := range a.discrepancies {
		if _, ok := groups[d.WarehouseID]; !ok {
			order = append(order, d.WarehouseID)
		}
		groups[d.WarehouseID] = append(groups[d.WarehouseID], d)
	}
	return order, groups
}

// PullEvents returns the buffered events in emission order and clears the buffer
func (a *InventoryAdjustment) PullEvents() []AdjustmentEvent {
	events := a.events
	a.events = nil
	return events
}

func (a *InventoryAdjustment) raise(event AdjustmentEvent) {
	a.events = append(a.events, event)
}

func (a *InventoryAdjustment) eventBase(at time.Time) AdjustmentEventBase {
	return AdjustmentEventBase{AdjustmentID: a.id, Timestamp: at}
}

func (a *InventoryAdjustment) ID() string               { return a.id }
func (a *InventoryAdjustment) Status() AdjustmentStatus { return a.status }
func (a *InventoryAdjustment) FailureReason() string    { return a.failureReason }
func (a *InventoryAdjustment) CreatedAt() time.Time     { return a.createdAt }

// Discrepancies returns a copy of the discrepancy list
func (a *InventoryAdjustment) Discrepancies() []DiscrepancyLog {
	return append([]DiscrepancyLog(nil), a.discrepancies...)
}

// AppliedTransactionIDs returns the corrective transactions in application order
func (a *InventoryAdjustment) AppliedTransactionIDs() []string {
	return append([]string(nil), a.appliedTransactionIDs...)
}

// ProcessedAt returns the completion or failure time, if any
func (a *InventoryAdjustment) ProcessedAt() (time.Time, bool) {
	if a.processedAt == nil {
		return time.Time{}, false
	}
	return *a.processedAt, true
}

// AdjustmentState is the flat representation used by persistence mappers
type AdjustmentState struct {
	ID                    string
	Status                AdjustmentStatus
	Discrepancies         []DiscrepancyLog
	AppliedTransactionIDs []string
	FailureReason         string
	CreatedAt             time.Time
	ProcessedAt           *time.Time
}

// State copies the aggregate into an AdjustmentState
func (a *InventoryAdjustment) State() AdjustmentState {
	s := AdjustmentState{
		ID:                    a.id,
		Status:                a.status,
		Discrepancies:         a.Discrepancies(),
		AppliedTransactionIDs: a.AppliedTransactionIDs(),
		FailureReason:         a.failureReason,
		CreatedAt:             a.createdAt,
	}
	if a.processedAt != nil {
		at := *a.processedAt
		s.ProcessedAt = &at
	}
	return s
}

// ReconstituteAdjustment rebuilds an aggregate from stored state without raising events
func ReconstituteAdjustment(s AdjustmentState) *InventoryAdjustment {
	a := &InventoryAdjustment{
		id:                    s.ID,
		status:                s.Status,
		discrepancies:         append([]DiscrepancyLog(nil), s.Discrepancies...),
		appliedTransactionIDs: append([]string(nil), s.AppliedTransactionIDs...),
		failureReason:         s.FailureReason,
		createdAt:             s.CreatedAt,
	}
	if s.ProcessedAt != nil {
		at := *s.ProcessedAt
		a.processedAt = &at
	}
	return a
}
