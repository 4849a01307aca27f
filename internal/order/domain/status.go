package domain

import "slices"

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderCreated             OrderStatus = "CREATED"
	OrderScheduled           OrderStatus = "SCHEDULED"
	OrderAwaitingFulfillment OrderStatus = "AWAITING_FULFILLMENT"
	OrderPartiallyReserved   OrderStatus = "PARTIALLY_RESERVED"
	OrderReserved            OrderStatus = "RESERVED"
	OrderPartiallyCommitted  OrderStatus = "PARTIALLY_COMMITTED"
	OrderCommitted           OrderStatus = "COMMITTED"
	OrderShipped             OrderStatus = "SHIPPED"
	OrderFailedToReserve     OrderStatus = "FAILED_TO_RESERVE"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderCreated:             {OrderScheduled, OrderAwaitingFulfillment},
	OrderScheduled:           {OrderAwaitingFulfillment},
	OrderAwaitingFulfillment: {OrderPartiallyReserved, OrderReserved, OrderFailedToReserve},
	OrderPartiallyReserved:   {OrderReserved, OrderPartiallyCommitted, OrderCommitted},
	OrderReserved:            {OrderPartiallyCommitted, OrderCommitted},
	OrderPartiallyCommitted:  {OrderCommitted},
	OrderCommitted:           {OrderShipped},
	OrderShipped:             {},
	OrderFailedToReserve:     {},
}

// IsValid checks if the status is known
func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether target is reachable from s in one step
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return slices.Contains(orderTransitions[s], target)
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderShipped || s == OrderFailedToReserve
}

// CanSchedule reports whether the order may be scheduled for later fulfillment
func (s OrderStatus) CanSchedule() bool { return s.CanTransitionTo(OrderScheduled) }

// CanMarkReady reports whether the order may enter AWAITING_FULFILLMENT
func (s OrderStatus) CanMarkReady() bool { return s.CanTransitionTo(OrderAwaitingFulfillment) }

// AcceptsReservations reports whether line reservations may be recorded
func (s OrderStatus) AcceptsReservations() bool {
	return s == OrderAwaitingFulfillment || s == OrderPartiallyReserved
}

// CanCommit reports whether the whole order may be committed
func (s OrderStatus) CanCommit() bool { return s == OrderReserved }

// CanShip reports whether the order may be shipped
func (s OrderStatus) CanShip() bool { return s.CanTransitionTo(OrderShipped) }

// CanFailToReserve reports whether the order may be marked FAILED_TO_RESERVE
func (s OrderStatus) CanFailToReserve() bool { return s.CanTransitionTo(OrderFailedToReserve) }

func (s OrderStatus) String() string { return string(s) }

// ReservationStatus is the per-line reservation state
type ReservationStatus string

const (
	ReservationPending  ReservationStatus = "PENDING"
	ReservationReserved ReservationStatus = "RESERVED"
	ReservationFailed   ReservationStatus = "FAILED"
)

// CommitmentStatus is the per-line picking commitment state
type CommitmentStatus string

const (
	CommitmentPending    CommitmentStatus = "PENDING"
	CommitmentInProgress CommitmentStatus = "IN_PROGRESS"
	CommitmentCommitted  CommitmentStatus = "COMMITTED"
	CommitmentFailed     CommitmentStatus = "FAILED"
)
