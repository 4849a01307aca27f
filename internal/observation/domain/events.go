package domain

import (
	"time"

	invdomain "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
)

// Event types
const (
	EventInventorySnapshotObserved = "wms.observation.inventory-snapshot-observed"
	EventNewOrderObserved          = "wms.observation.new-order-observed"
	EventWesTaskDiscovered         = "wms.observation.wes-task-discovered"
	EventWesTaskStatusUpdated      = "wms.observation.wes-task-status-updated"
)

// ObserverEvent is the closed set of events raised by the observers
type ObserverEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
	observerEvent()
}

// ObserverEventBase carries the fields shared by every observer event
type ObserverEventBase struct {
	ObserverID string       `json:"observerId"`
	Kind       ObserverKind `json:"observerType"`
	Timestamp  time.Time    `json:"occurredAt"`
}

func (b ObserverEventBase) AggregateID() string   { return b.ObserverID }
func (b ObserverEventBase) AggregateType() string { return b.Kind.AggregateType() }
func (b ObserverEventBase) OccurredAt() time.Time { return b.Timestamp }
func (b ObserverEventBase) observerEvent()        {}

// InventorySnapshotObservedEvent carries the stock read from the inventory system
type InventorySnapshotObservedEvent struct {
	ObserverEventBase
	Snapshots []invdomain.StockSnapshot `json:"snapshots"`
}

func (e *InventorySnapshotObservedEvent) EventType() string { return EventInventorySnapshotObserved }

// NewOrderObservedEvent carries one order read from the order source
type NewOrderObservedEvent struct {
	ObserverEventBase
	Order ObservationResult `json:"order"`
}

func (e *NewOrderObservedEvent) EventType() string { return EventNewOrderObserved }
func (e *NewOrderObservedEvent) Warehouse() string { return e.Order.WarehouseID }

// WesTaskDiscoveredEvent is raised for a WES task no local picking task tracks
type WesTaskDiscoveredEvent struct {
	ObserverEventBase
	Task wesdomain.WesTaskRecord `json:"task"`
}

func (e *WesTaskDiscoveredEvent) EventType() string { return EventWesTaskDiscovered }
func (e *WesTaskDiscoveredEvent) Warehouse() string { return e.Task.WarehouseID }

// WesTaskStatusUpdatedEvent is raised when the WES reports a status that
// differs from the local picking task
type WesTaskStatusUpdatedEvent struct {
	ObserverEventBase
	TaskID         string               `json:"taskId"`
	WesTaskID      wesdomain.WesTaskID  `json:"wesTaskId"`
	PreviousStatus wesdomain.TaskStatus `json:"previousStatus"`
	NewStatus      wesdomain.TaskStatus `json:"newStatus"`
}

func (e *WesTaskStatusUpdatedEvent) EventType() string { return EventWesTaskStatusUpdated }
