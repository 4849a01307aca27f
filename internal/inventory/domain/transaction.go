package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// InventoryTransaction is the durable local record of one stock movement
// requested from the inventory system
type InventoryTransaction struct {
	id                    string
	txType                TransactionType
	status                TransactionStatus
	source                TransactionSource
	sourceReferenceID     string
	location              WarehouseLocation
	lines                 []TransactionLine
	externalReservationID ExternalReservationID
	relatedTransactionID  string
	settlement            ReservationSettlement
	failureReason         string
	createdAt             time.Time
	completedAt           *time.Time
	events                []TransactionEvent
}

// NewReservation creates a PENDING outbound transaction reserving qty of sku for orderID
func NewReservation(orderID, sku, warehouseID string, quantity int) (*InventoryTransaction, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperrors.NewValidationError("orderId", "cannot be blank")
	}
	if quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity", "must be positive for reservation")
	}
	line, err := NewTransactionLine(sku, quantity)
	if err != nil {
		return nil, err
	}
	location, err := NewWarehouseLocation(warehouseID, "")
	if err != nil {
		return nil, err
	}

	tx := newTransaction(TransactionOutbound, SourceOrderReservation, orderID, location, []TransactionLine{line})
	tx.raise(&InventoryReservationRequestedEvent{
		TransactionEventBase: tx.eventBase(tx.createdAt),
		OrderID:              orderID,
		SKU:                  line.SKU,
		WarehouseID:          location.WarehouseID,
		Quantity:             quantity,
	})
	return tx, nil
}

// NewOutboundTransaction creates a PENDING outbound transaction
func NewOutboundTransaction(
	sourceReferenceID string,
	source TransactionSource,
	warehouseID string,
	lines []TransactionLine,
	externalReservationID ExternalReservationID,
) (*InventoryTransaction, error) {
	tx, err := newFromLines(TransactionOutbound, source, sourceReferenceID, warehouseID, lines)
	if err != nil {
		return nil, err
	}
	tx.externalReservationID = externalReservationID
	tx.raiseCreated()
	return tx, nil
}

// NewInboundTransaction creates a PENDING inbound transaction
func NewInboundTransaction(
	sourceReferenceID string,
	source TransactionSource,
	warehouseID string,
	lines []TransactionLine,
) (*InventoryTransaction, error) {
	tx, err := newFromLines(TransactionInbound, source, sourceReferenceID, warehouseID, lines)
	if err != nil {
		return nil, err
	}
	tx.raiseCreated()
	return tx, nil
}

// NewAdjustmentTransaction creates a PENDING adjustment transaction. Lines may be signed.
func NewAdjustmentTransaction(
	sourceReferenceID string,
	source TransactionSource,
	warehouseID string,
	lines []TransactionLine,
) (*InventoryTransaction, error) {
	tx, err := newFromLines(TransactionAdjustment, source, sourceReferenceID, warehouseID, lines)
	if err != nil {
		return nil, err
	}
	tx.raiseCreated()
	return tx, nil
}

// NewConsumption creates the outbound transaction that consumes a completed reservation
func NewConsumption(orderID string, reservation *InventoryTransaction) (*InventoryTransaction, error) {
	if reservation.status != TransactionCompleted {
		return nil, stateError(AggregateTypeTransaction, "consume reservation of", reservation.status)
	}
	if reservation.externalReservationID == "" {
		return nil, apperrors.NewStateTransitionError(AggregateTypeTransaction, "consume reservation without external id of", string(reservation.status))
	}
	if err := reservation.EnsureReservationOpen("consume"); err != nil {
		return nil, err
	}

	tx, err := NewOutboundTransaction(
		orderID,
		SourceReservationConsumed,
		reservation.location.WarehouseID,
		reservation.Lines(),
		reservation.externalReservationID,
	)
	if err != nil {
		return nil, err
	}
	tx.relatedTransactionID = reservation.id
	return tx, nil
}

func newFromLines(
	txType TransactionType,
	source TransactionSource,
	sourceReferenceID string,
	warehouseID string,
	lines []TransactionLine,
) (*InventoryTransaction, error) {
	if strings.TrimSpace(sourceReferenceID) == "" {
		return nil, apperrors.NewValidationError("sourceReferenceId", "cannot be blank")
	}
	if len(lines) == 0 {
		return nil, apperrors.NewValidationError("lines", "transaction must have at least one line")
	}
	for _, line := range lines {
		if line.Quantity == 0 {
			return nil, apperrors.NewValidationError("quantity", "cannot be zero")
		}
		if txType != TransactionAdjustment && line.Quantity < 0 {
			return nil, apperrors.NewValidationError("quantity", "must be positive for "+string(txType)+" transaction")
		}
	}
	location, err := NewWarehouseLocation(warehouseID, "")
	if err != nil {
		return nil, err
	}
	return newTransaction(txType, source, sourceReferenceID, location, lines), nil
}

func newTransaction(
	txType TransactionType,
	source TransactionSource,
	sourceReferenceID string,
	location WarehouseLocation,
	lines []TransactionLine,
) *InventoryTransaction {
	return &InventoryTransaction{
		id:                uuid.New().String(),
		txType:            txType,
		status:            TransactionPending,
		source:            source,
		sourceReferenceID: sourceReferenceID,
		location:          location,
		lines:             append([]TransactionLine(nil), lines...),
		createdAt:         time.Now().UTC(),
	}
}

// MarkAsReserved records the external reservation id on a PENDING reservation
// and completes it
func (t *InventoryTransaction) MarkAsReserved(externalID ExternalReservationID) error {
	if t.status != TransactionPending {
		return stateError(AggregateTypeTransaction, "mark as reserved", t.status)
	}
	if t.source != SourceOrderReservation {
		return apperrors.NewStateTransitionError(AggregateTypeTransaction, "mark "+string(t.source)+" as reserved", string(t.status))
	}
	if externalID == "" {
		return apperrors.NewValidationError("externalReservationId", "cannot be blank")
	}

	now := time.Now().UTC()
	t.externalReservationID = externalID
	t.status = TransactionCompleted
	t.completedAt = &now

	t.raise(&InventoryReservedEvent{
		TransactionEventBase:  t.eventBase(now),
		OrderID:               t.sourceReferenceID,
		SKUs:                  t.skus(),
		ExternalReservationID: externalID.String(),
		WarehouseID:           t.location.WarehouseID,
	})
	return nil
}

// MarkAsProcessing moves the transaction to PROCESSING
func (t *InventoryTransaction) MarkAsProcessing() error {
	if !t.status.CanProcess() {
		return stateError(AggregateTypeTransaction, "process", t.status)
	}
	t.status = TransactionProcessing
	return nil
}

// Complete finishes a PROCESSING transaction and raises the movement events
func (t *InventoryTransaction) Complete() error {
	if !t.status.CanComplete() {
		return stateError(AggregateTypeTransaction, "complete", t.status)
	}

	now := time.Now().UTC()
	t.status = TransactionCompleted
	t.completedAt = &now
	base := t.eventBase(now)

	switch t.txType {
	case TransactionInbound:
		t.raise(&InventoryIncreasedEvent{TransactionEventBase: base, WarehouseID: t.location.WarehouseID, Lines: t.Lines()})
	case TransactionOutbound:
		if t.source == SourceReservationConsumed && t.externalReservationID != "" {
			t.raise(&ReservationConsumedEvent{
				TransactionEventBase:  base,
				OrderID:               t.sourceReferenceID,
				ExternalReservationID: t.externalReservationID.String(),
				RelatedTransactionID:  t.relatedTransactionID,
			})
		}
		t.raise(&InventoryDecreasedEvent{TransactionEventBase: base, WarehouseID: t.location.WarehouseID, Lines: t.Lines()})
	case TransactionAdjustment:
		t.raise(&InventoryAdjustedEvent{TransactionEventBase: base, WarehouseID: t.location.WarehouseID, Lines: t.Lines()})
	}

	t.raise(&InventoryTransactionCompletedEvent{
		TransactionEventBase: base,
		Type:                 t.txType,
		Source:               t.source,
		SourceReferenceID:    t.sourceReferenceID,
	})
	return nil
}

// Fail marks a PENDING or PROCESSING transaction FAILED
func (t *InventoryTransaction) Fail(reason string) error {
	if !t.status.CanFail() {
		return stateError(AggregateTypeTransaction, "fail", t.status)
	}

	now := time.Now().UTC()
	t.status = TransactionFailed
	t.failureReason = reason
	t.completedAt = &now
	base := t.eventBase(now)

	if t.source == SourceOrderReservation {
		t.raise(&ReservationFailedEvent{TransactionEventBase: base, OrderID: t.sourceReferenceID, SKUs: t.skus(), Reason: reason})
	}
	t.raise(&InventoryTransactionFailedEvent{TransactionEventBase: base, Type: t.txType, Source: t.source, Reason: reason})
	return nil
}

// ReleaseReservation hands the external reservation back. It is allowed on any
// non-terminal status and requires an external reservation id.
func (t *InventoryTransaction) ReleaseReservation() error {
	if t.externalReservationID == "" {
		return apperrors.NewStateTransitionError(AggregateTypeTransaction, "release reservation without external id of", string(t.status))
	}
	if t.status.IsTerminal() {
		return stateError(AggregateTypeTransaction, "release reservation", t.status)
	}
	if err := t.EnsureReservationOpen("release"); err != nil {
		return err
	}

	now := time.Now().UTC()
	t.status = TransactionCompleted
	t.settlement = ReservationReleased
	t.completedAt = &now
	base := t.eventBase(now)

	t.raise(&ReservationReleasedEvent{
		TransactionEventBase:  base,
		OrderID:               t.sourceReferenceID,
		ExternalReservationID: t.externalReservationID.String(),
	})
	t.raise(&InventoryTransactionCompletedEvent{
		TransactionEventBase: base,
		Type:                 t.txType,
		Source:               SourceReservationReleased,
		SourceReferenceID:    t.sourceReferenceID,
	})
	return nil
}

// MarkReservationConsumed settles a completed reservation whose stock left the warehouse
func (t *InventoryTransaction) MarkReservationConsumed() error {
	if t.status != TransactionCompleted {
		return stateError(AggregateTypeTransaction, "settle reservation", t.status)
	}
	if err := t.EnsureReservationOpen("consume"); err != nil {
		return err
	}
	t.settlement = ReservationConsumed
	return nil
}

// EnsureReservationOpen rejects action on a reservation that was already
// released or consumed
func (t *InventoryTransaction) EnsureReservationOpen(action string) error {
	if t.settlement != ReservationOpen {
		return apperrors.NewStateTransitionError(AggregateTypeTransaction, action+" "+string(t.settlement)+" reservation of", string(t.status))
	}
	return nil
}

// IsReservationOpen reports whether the reservation was neither released nor consumed
func (t *InventoryTransaction) IsReservationOpen() bool { return t.settlement == ReservationOpen }

// PullEvents returns the buffered events in emission order and clears the buffer
func (t *InventoryTransaction) PullEvents() []TransactionEvent {
	events := t.events
	t.events = nil
	return events
}

func (t *InventoryTransaction) raise(event TransactionEvent) {
	t.events = append(t.events, event)
}

func (t *InventoryTransaction) raiseCreated() {
	t.raise(&InventoryTransactionCreatedEvent{
		TransactionEventBase: t.eventBase(t.createdAt),
		Type:                 t.txType,
		Source:               t.source,
		SourceReferenceID:    t.sourceReferenceID,
	})
}

func (t *InventoryTransaction) eventBase(at time.Time) TransactionEventBase {
	return TransactionEventBase{TransactionID: t.id, Timestamp: at}
}

func (t *InventoryTransaction) ID() string                                   { return t.id }
func (t *InventoryTransaction) Type() TransactionType                        { return t.txType }
func (t *InventoryTransaction) Status() TransactionStatus                    { return t.status }
func (t *InventoryTransaction) Source() TransactionSource                    { return t.source }
func (t *InventoryTransaction) SourceReferenceID() string                    { return t.sourceReferenceID }
func (t *InventoryTransaction) Location() WarehouseLocation                  { return t.location }
func (t *InventoryTransaction) ExternalReservationID() ExternalReservationID { return t.externalReservationID }
func (t *InventoryTransaction) RelatedTransactionID() string                 { return t.relatedTransactionID }
func (t *InventoryTransaction) Settlement() ReservationSettlement            { return t.settlement }
func (t *InventoryTransaction) FailureReason() string                        { return t.failureReason }
func (t *InventoryTransaction) CreatedAt() time.Time                         { return t.createdAt }

// Lines returns a copy of the transaction lines
func (t *InventoryTransaction) Lines() []TransactionLine {
	return append([]TransactionLine(nil), t.lines...)
}

// CompletedAt returns the completion or failure time, if any
func (t *InventoryTransaction) CompletedAt() (time.Time, bool) {
	if t.completedAt == nil {
		return time.Time{}, false
	}
	return *t.completedAt, true
}

// HasExternalReservation reports whether the inventory system issued a reservation id
func (t *InventoryTransaction) HasExternalReservation() bool {
	return t.externalReservationID != ""
}

func (t *InventoryTransaction) skus() []string {
	out := make([]string, 0, len(t.lines))
	for _, l := range t.lines {
		out = append(out, l.SKU)
	}
	return out
}

// TransactionState is the flat representation used by persistence mappers
type TransactionState struct {
	ID                    string
	Type                  TransactionType
	Status                TransactionStatus
	Source                TransactionSource
	SourceReferenceID     string
	Location              WarehouseLocation
	Lines                 []TransactionLine
	ExternalReservationID ExternalReservationID
	RelatedTransactionID  string
	Settlement            ReservationSettlement
	FailureReason         string
	CreatedAt             time.Time
	CompletedAt           *time.Time
}

// State copies the aggregate into a TransactionState
func (t *InventoryTransaction) State() TransactionState {
	s := TransactionState{
		ID:                    t.id,
		Type:                  t.txType,
		Status:                t.status,
		Source:                t.source,
		SourceReferenceID:     t.sourceReferenceID,
		Location:              t.location,
		Lines:                 t.Lines(),
		ExternalReservationID: t.externalReservationID,
		RelatedTransactionID:  t.relatedTransactionID,
		Settlement:            t.settlement,
		FailureReason:         t.failureReason,
		CreatedAt:             t.createdAt,
	}
	if t.completedAt != nil {
		at := *t.completedAt
		s.CompletedAt = &at
	}
	return s
}

// ReconstituteTransaction rebuilds an aggregate from stored state without raising events
func ReconstituteTransaction(s TransactionState) *InventoryTransaction {
	t := &InventoryTransaction{
		id:                    s.ID,
		txType:                s.Type,
		status:                s.Status,
		source:                s.Source,
		sourceReferenceID:     s.SourceReferenceID,
		location:              s.Location,
		lines:                 append([]TransactionLine(nil), s.Lines...),
		externalReservationID: s.ExternalReservationID,
		relatedTransactionID:  s.RelatedTransactionID,
		settlement:            s.Settlement,
		failureReason:         s.FailureReason,
		createdAt:             s.CreatedAt,
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		t.completedAt = &at
	}
	return t
}
