package domain

import (
	"slices"
	"strings"
	"time"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// Order is the aggregate root for customer orders moving through
// reservation, picking and shipment
type Order struct {
	id        string
	status    OrderStatus
	lines     []OrderLineItem
	pickup    ScheduledPickupTime
	leadTime  FulfillmentLeadTime
	shipment  *ShipmentInfo
	createdAt time.Time
	updatedAt time.Time
	events    []OrderEvent
}

// NewOrder creates an order in CREATED status
func NewOrder(orderID string, lines []OrderLineItem) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperrors.NewValidationError("orderId", "cannot be blank")
	}
	if len(lines) == 0 {
		return nil, apperrors.NewValidationError("items", "order must have at least one line item")
	}

	now := time.Now().UTC()
	o := &Order{
		id:        orderID,
		status:    OrderCreated,
		lines:     slices.Clone(lines),
		createdAt: now,
		updatedAt: now,
	}
	o.raise(&OrderCreatedEvent{OrderEventBase: o.eventBase(now), LineCount: len(lines)})
	return o, nil
}

// ScheduleForLaterFulfillment defers fulfillment until pickup minus lead time
func (o *Order) ScheduleForLaterFulfillment(pickup ScheduledPickupTime, lead FulfillmentLeadTime) error {
	if !o.status.CanSchedule() {
		return stateError("schedule", o.status)
	}
	if pickup.IsZero() {
		return apperrors.NewValidationError("scheduledPickupTime", "is required")
	}

	now := o.touch()
	o.pickup = pickup
	o.leadTime = lead
	o.status = OrderScheduled
	o.raise(&OrderScheduledEvent{
		OrderEventBase:      o.eventBase(now),
		ScheduledPickupTime: pickup.Time(),
		LeadTime:            lead.Duration(),
	})
	return nil
}

// MarkReadyForFulfillment moves a CREATED or SCHEDULED order to AWAITING_FULFILLMENT
func (o *Order) MarkReadyForFulfillment() error {
	if !o.status.CanMarkReady() {
		return stateError("mark ready for fulfillment", o.status)
	}
	now := o.touch()
	o.status = OrderAwaitingFulfillment
	o.raise(&OrderReadyForFulfillmentEvent{OrderEventBase: o.eventBase(now)})
	return nil
}

// IsReadyForFulfillment reports whether a scheduled order has reached its fulfillment window
func (o *Order) IsReadyForFulfillment(now time.Time) bool {
	if o.status != OrderScheduled || o.pickup.IsZero() {
		return false
	}
	return !now.Before(o.pickup.FulfillmentStart(o.leadTime))
}

// ReserveLineItem records the reservation backing one line and recomputes the order status
func (o *Order) ReserveLineItem(lineID, transactionID, externalReservationID, warehouseID string) error {
	if !o.status.AcceptsReservations() {
		return stateError("reserve line item", o.status)
	}
	i, err := o.lineIndex(lineID)
	if err != nil {
		return err
	}
	if o.lines[i].IsReserved() {
		return apperrors.NewStateTransitionError(AggregateTypeOrder, "reserve already reserved line "+lineID+" of", o.status.String())
	}

	now := time.Now().UTC()
	info, err := NewReservedInfo(transactionID, externalReservationID, warehouseID, now)
	if err != nil {
		return err
	}
	return o.updateLine(i, now, func(l *OrderLineItem) { l.Reservation = info })
}

// MarkLineReservationFailed records a failed reservation for one line
func (o *Order) MarkLineReservationFailed(lineID, reason string) error {
	if !o.status.AcceptsReservations() {
		return stateError("fail line reservation", o.status)
	}
	i, err := o.lineIndex(lineID)
	if err != nil {
		return err
	}
	if o.lines[i].IsReserved() {
		return apperrors.NewStateTransitionError(AggregateTypeOrder, "fail reservation of reserved line "+lineID+" of", o.status.String())
	}

	now := time.Now().UTC()
	info, err := NewFailedReservation(reason, now)
	if err != nil {
		return err
	}
	return o.updateLine(i, now, func(l *OrderLineItem) { l.Reservation = info })
}

// MarkItemsAsPickingInProgress links every line whose sku is in skus to pickingTaskID
func (o *Order) MarkItemsAsPickingInProgress(skus []string, pickingTaskID string) error {
	now := time.Now().UTC()
	info, err := NewInProgressCommitment(pickingTaskID, now)
	if err != nil {
		return err
	}
	for i := range o.lines {
		if slices.Contains(skus, o.lines[i].SKU) && !o.lines[i].IsCommitted() {
			o.lines[i].Commitment = info
		}
	}
	o.updatedAt = now
	return nil
}

// CommitLineItem records that a reserved line has been picked
func (o *Order) CommitLineItem(lineID, wesTransactionID string) error {
	i, err := o.lineIndex(lineID)
	if err != nil {
		return err
	}
	line := o.lines[i]
	if !line.IsReserved() {
		return apperrors.NewStateTransitionError(AggregateTypeOrder, "commit unreserved line "+lineID+" of", o.status.String())
	}
	if line.IsCommitted() {
		return apperrors.NewStateTransitionError(AggregateTypeOrder, "commit already committed line "+lineID+" of", o.status.String())
	}

	now := time.Now().UTC()
	info, err := NewCommittedInfo(wesTransactionID, now)
	if err != nil {
		return err
	}
	return o.updateLine(i, now, func(l *OrderLineItem) { l.Commitment = info })
}

// MarkLineCommitmentFailed records that picking of a reserved line failed
func (o *Order) MarkLineCommitmentFailed(lineID, reason string) error {
	i, err := o.lineIndex(lineID)
	if err != nil {
		return err
	}
	line := o.lines[i]
	if !line.IsReserved() {
		return apperrors.NewStateTransitionError(AggregateTypeOrder, "fail commitment of unreserved line "+lineID+" of", o.status.String())
	}
	if line.IsCommitted() {
		return apperrors.NewStateTransitionError(AggregateTypeOrder, "fail commitment of committed line "+lineID+" of", o.status.String())
	}

	now := time.Now().UTC()
	info, err := NewFailedCommitment(reason, now)
	if err != nil {
		return err
	}
	return o.updateLine(i, now, func(l *OrderLineItem) { l.Commitment = info })
}

// CommitOrder moves a RESERVED order to COMMITTED without per-line commitments
func (o *Order) CommitOrder() error {
	if !o.status.CanCommit() {
		return stateError("commit", o.status)
	}
	now := o.touch()
	o.status = OrderCommitted
	o.raise(&OrderCommittedEvent{OrderEventBase: o.eventBase(now)})
	return nil
}

// MarkAsShipped moves a COMMITTED order to SHIPPED
func (o *Order) MarkAsShipped(info ShipmentInfo) error {
	if !o.status.CanShip() {
		return stateError("ship", o.status)
	}
	now := o.touch()
	o.shipment = &info
	o.status = OrderShipped
	o.raise(&OrderShippedEvent{
		OrderEventBase: o.eventBase(now),
		Carrier:        info.Carrier,
		TrackingNumber: info.TrackingNumber,
	})
	return nil
}

// MarkAsFailedToReserve moves an AWAITING_FULFILLMENT order to FAILED_TO_RESERVE
func (o *Order) MarkAsFailedToReserve(reason string) error {
	if !o.status.CanFailToReserve() {
		return stateError("mark as failed to reserve", o.status)
	}
	now := o.touch()
	o.status = OrderFailedToReserve
	o.raise(&OrderFulfillmentFailedEvent{OrderEventBase: o.eventBase(now), Reason: reason})
	return nil
}

// IsFullyReserved reports whether every line is reserved
func (o *Order) IsFullyReserved() bool {
	return len(o.lines) > 0 && !slices.ContainsFunc(o.lines, func(l OrderLineItem) bool { return !l.IsReserved() })
}

// IsPartiallyReserved reports whether some but not all lines are reserved
func (o *Order) IsPartiallyReserved() bool {
	return slices.ContainsFunc(o.lines, OrderLineItem.IsReserved) && !o.IsFullyReserved()
}

// HasAnyReservationFailed reports whether any line failed to reserve
func (o *Order) HasAnyReservationFailed() bool {
	return slices.ContainsFunc(o.lines, func(l OrderLineItem) bool { return l.Reservation.IsFailed() })
}

// HasPendingReservations reports whether any line still awaits a reservation outcome
func (o *Order) HasPendingReservations() bool {
	return slices.ContainsFunc(o.lines, func(l OrderLineItem) bool { return l.Reservation.Status == ReservationPending })
}

// IsFullyCommitted reports whether every line is committed
func (o *Order) IsFullyCommitted() bool {
	return len(o.lines) > 0 && !slices.ContainsFunc(o.lines, func(l OrderLineItem) bool { return !l.IsCommitted() })
}

// IsPartiallyCommitted reports whether some but not all lines are committed
func (o *Order) IsPartiallyCommitted() bool {
	return slices.ContainsFunc(o.lines, OrderLineItem.IsCommitted) && !o.IsFullyCommitted()
}

// LineBySKU returns the first line for sku
func (o *Order) LineBySKU(sku string) (OrderLineItem, bool) {
	i := slices.IndexFunc(o.lines, func(l OrderLineItem) bool { return l.SKU == sku })
	if i < 0 {
		return OrderLineItem{}, false
	}
	return o.lines[i], true
}

// ReservedLines returns copies of the reserved lines in order
func (o *Order) ReservedLines() []OrderLineItem {
	var out []OrderLineItem
	for _, l := range o.lines {
		if l.IsReserved() {
			out = append(out, l)
		}
	}
	return out
}

// PullEvents returns and clears the buffered events
func (o *Order) PullEvents() []OrderEvent {
	drained := o.events
	o.events = nil
	return drained
}

func (o *Order) ID() string                                { return o.id }
func (o *Order) Status() OrderStatus                       { return o.status }
func (o *Order) ScheduledPickupTime() ScheduledPickupTime { return o.pickup }
func (o *Order) FulfillmentLeadTime() FulfillmentLeadTime { return o.leadTime }
func (o *Order) CreatedAt() time.Time                      { return o.createdAt }
func (o *Order) UpdatedAt() time.Time                      { return o.updatedAt }

// Lines returns a copy of the order lines
func (o *Order) Lines() []OrderLineItem { return slices.Clone(o.lines) }

// Shipment returns the shipment info once shipped
func (o *Order) Shipment() (ShipmentInfo, bool) {
	if o.shipment == nil {
		return ShipmentInfo{}, false
	}
	return *o.shipment, true
}

// updateLine applies change to line i and moves the order to the status its
// lines imply. The change is undone when that status is not reachable.
func (o *Order) updateLine(i int, now time.Time, change func(*OrderLineItem)) error {
	previous := o.status
	original := o.lines[i]
	change(&o.lines[i])

	target := o.derivedStatus()
	if target != previous && !previous.CanTransitionTo(target) {
		o.lines[i] = original
		return stateError("move to "+target.String(), previous)
	}

	o.status = target
	o.updatedAt = now
	if target == previous {
		return nil
	}
	switch target {
	case OrderCommitted:
		o.raise(&OrderCommittedEvent{OrderEventBase: o.eventBase(now)})
	case OrderReserved:
		ids := make([]string, 0, len(o.lines))
		for _, l := range o.lines {
			ids = append(ids, l.LineID)
		}
		o.raise(&OrderReservedEvent{OrderEventBase: o.eventBase(now), ReservedLineIDs: ids})
	}
	return nil
}

// derivedStatus is the status the line reservation and commitment states imply
func (o *Order) derivedStatus() OrderStatus {
	switch {
	case o.IsFullyCommitted():
		return OrderCommitted
	case o.IsPartiallyCommitted():
		return OrderPartiallyCommitted
	case o.IsFullyReserved():
		return OrderReserved
	case o.IsPartiallyReserved():
		return OrderPartiallyReserved
	default:
		return o.status
	}
}

func (o *Order) lineIndex(lineID string) (int, error) {
	i := slices.IndexFunc(o.lines, func(l OrderLineItem) bool { return l.LineID == lineID })
	if i < 0 {
		return -1, apperrors.NewNotFoundError("order line", lineID)
	}
	return i, nil
}

func (o *Order) touch() time.Time {
	o.updatedAt = time.Now().UTC()
	return o.updatedAt
}

func (o *Order) raise(event OrderEvent) {
	o.events = append(o.events, event)
}

func (o *Order) eventBase(at time.Time) OrderEventBase {
	return OrderEventBase{OrderID: o.id, Timestamp: at}
}

func stateError(action string, from OrderStatus) error {
	return apperrors.NewStateTransitionError(AggregateTypeOrder, action, from.String())
}

// OrderState is the flat representation used by persistence mappers
type OrderState struct {
	ID                  string
	Status              OrderStatus
	Lines               []OrderLineItem
	ScheduledPickupTime *time.Time
	LeadTime            time.Duration
	Shipment            *ShipmentInfo
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// State copies the aggregate into an OrderState
func (o *Order) State() OrderState {
	s := OrderState{
		ID:        o.id,
		Status:    o.status,
		Lines:     o.Lines(),
		LeadTime:  o.leadTime.Duration(),
		CreatedAt: o.createdAt,
		UpdatedAt: o.updatedAt,
	}
	if !o.pickup.IsZero() {
		at := o.pickup.Time()
		s.ScheduledPickupTime = &at
	}
	if o.shipment != nil {
		info := *o.shipment
		s.Shipment = &info
	}
	return s
}

// ReconstituteOrder rebuilds an order from stored state without raising events
func ReconstituteOrder(s OrderState) *Order {
	o := &Order{
		id:        s.ID,
		status:    s.Status,
		lines:     slices.Clone(s.Lines),
		leadTime:  FulfillmentLeadTime{d: s.LeadTime},
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
	}
	if s.ScheduledPickupTime != nil {
		o.pickup = ScheduledPickupTime{at: s.ScheduledPickupTime.UTC()}
	}
	if s.Shipment != nil {
		info := *s.Shipment
		o.shipment = &info
	}
	return o
}
