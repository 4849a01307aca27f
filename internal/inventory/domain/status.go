package domain

import "slices"

// TransactionStatus is the lifecycle state of an InventoryTransaction
type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "PENDING"
	TransactionProcessing TransactionStatus = "PROCESSING"
	TransactionCompleted  TransactionStatus = "COMPLETED"
	TransactionFailed     TransactionStatus = "FAILED"
)

// COMPLETED may re-enter PROCESSING. Release of a completed reservation
// goes through that edge before the terminal transition.
var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionPending:    {TransactionProcessing, TransactionFailed},
	TransactionProcessing: {TransactionCompleted, TransactionFailed},
	TransactionCompleted:  {TransactionProcessing},
	TransactionFailed:     {},
}

// IsValid checks if the status is known
func (s TransactionStatus) IsValid() bool {
	_, ok := transactionTransitions[s]
	return ok
}

// CanTransitionTo reports whether target is reachable from s in one step
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	return slices.Contains(transactionTransitions[s], target)
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionCompleted || s == TransactionFailed
}

func (s TransactionStatus) CanProcess() bool  { return s.CanTransitionTo(TransactionProcessing) }
func (s TransactionStatus) CanComplete() bool { return s.CanTransitionTo(TransactionCompleted) }
func (s TransactionStatus) CanFail() bool     { return s.CanTransitionTo(TransactionFailed) }

// AdjustmentStatus is the lifecycle state of an InventoryAdjustment
type AdjustmentStatus string

const (
	AdjustmentPending    AdjustmentStatus = "PENDING"
	AdjustmentProcessing AdjustmentStatus = "PROCESSING"
	AdjustmentCompleted  AdjustmentStatus = "COMPLETED"
	AdjustmentFailed     AdjustmentStatus = "FAILED"
)

var adjustmentTransitions = map[AdjustmentStatus][]AdjustmentStatus{
	AdjustmentPending:    {AdjustmentProcessing, AdjustmentFailed},
	AdjustmentProcessing: {AdjustmentCompleted, AdjustmentFailed},
	AdjustmentCompleted:  {},
	AdjustmentFailed:     {},
}

// IsValid checks if the status is known
func (s AdjustmentStatus) IsValid() bool {
	_, ok := adjustmentTransitions[s]
	return ok
}

// CanTransitionTo reports whether target is reachable from s in one step
func (s AdjustmentStatus) CanTransitionTo(target AdjustmentStatus) bool {
	return slices.Contains(adjustmentTransitions[s], target)
}

func (s AdjustmentStatus) IsTerminal() bool {
	return s == AdjustmentCompleted || s == AdjustmentFailed
}

func (s AdjustmentStatus) CanProcess() bool  { return s.CanTransitionTo(AdjustmentProcessing) }
func (s AdjustmentStatus) CanComplete() bool { return s.CanTransitionTo(AdjustmentCompleted) }
func (s AdjustmentStatus) CanFail() bool     { return s.CanTransitionTo(AdjustmentFailed) }

// TransactionType classifies the stock movement direction
type TransactionType string

const (
	TransactionInbound    TransactionType = "INBOUND"
	TransactionOutbound   TransactionType = "OUTBOUND"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionInbound, TransactionOutbound, TransactionAdjustment:
		return true
	default:
		return false
	}
}

// TransactionSource tags why a transaction exists
type TransactionSource string

const (
	SourceOrderReservation     TransactionSource = "ORDER_RESERVATION"
	SourceReservationConsumed  TransactionSource = "RESERVATION_CONSUMED"
	SourceReservationReleased  TransactionSource = "RESERVATION_RELEASED"
	SourcePickingTaskCompleted TransactionSource = "PICKING_TASK_COMPLETED"
	SourcePutawayTaskCompleted TransactionSource = "PUTAWAY_TASK_COMPLETED"
	SourceManualAdjustment     TransactionSource = "MANUAL_ADJUSTMENT"
	SourceCycleCountAdjustment TransactionSource = "CYCLE_COUNT_ADJUSTMENT"
	SourceOrderCancellation    TransactionSource = "ORDER_CANCELLATION"
)

// IsValid checks if the source is known
func (s TransactionSource) IsValid() bool {
	switch s {
	case SourceOrderReservation, SourceReservationConsumed, SourceReservationReleased,
		SourcePickingTaskCompleted, SourcePutawayTaskCompleted,
		SourceManualAdjustment, SourceCycleCountAdjustment, SourceOrderCancellation:
		return true
	default:
		return false
	}
}

func (s TransactionSource) IsReservationRelated() bool {
	return s == SourceOrderReservation || s == SourceReservationConsumed || s == SourceReservationReleased
}

func (s TransactionSource) IsTaskRelated() bool {
	return s == SourcePickingTaskCompleted || s == SourcePutawayTaskCompleted
}

func (s TransactionSource) IsAdjustmentRelated() bool {
	return s == SourceManualAdjustment || s == SourceCycleCountAdjustment
}

// ReservationSettlement records how a completed reservation was closed out
type ReservationSettlement string

const (
	ReservationOpen     ReservationSettlement = ""
	ReservationReleased ReservationSettlement = "RELEASED"
	ReservationConsumed ReservationSettlement = "CONSUMED"
)

func (s TransactionStatus) String() string { return string(s) }
func (s AdjustmentStatus) String() string  { return string(s) }
