package domain

import (
	"context"
	"fmt"
	"time"

	invdomain "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
)

// InventoryObserver periodically reads the inventory system's stock
type InventoryObserver struct {
	schedule
	rule ObservationRule
}

// NewInventoryObserver creates an active InventoryObserver
func NewInventoryObserver(id string, rule ObservationRule, interval PollingInterval) (*InventoryObserver, error) {
	s, err := newSchedule(id, KindInventory, interval)
	if err != nil {
		return nil, err
	}
	return &InventoryObserver{schedule: s, rule: rule}, nil
}

// Poll reads the inventory snapshot when the observer is due and raises one
// InventorySnapshotObserved event. Rows that do not form a valid snapshot are
// left out; the number skipped is returned.
func (o *InventoryObserver) Poll(ctx context.Context, now time.Time, source InventorySource) (int, error) {
	if !o.ShouldPoll(now) {
		return 0, nil
	}
	rows, err := source.GetInventorySnapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch inventory snapshot: %w", err)
	}
	o.markPolled(now)

	snapshots := make([]invdomain.StockSnapshot, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		snapshot, err := row.ToStockSnapshot()
		if err != nil {
			skipped++
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	o.raise(&InventorySnapshotObservedEvent{
		ObserverEventBase: o.eventBase(now),
		Snapshots:         snapshots,
	})
	return skipped, nil
}

func (o *InventoryObserver) Rule() ObservationRule { return o.rule }

// InventoryObserverState is the flat representation used by persistence mappers
type InventoryObserverState struct {
	ScheduleState
	Rule ObservationRule
}

// State copies the observer into an InventoryObserverState
func (o *InventoryObserver) State() InventoryObserverState {
	return InventoryObserverState{ScheduleState: o.state(), Rule: o.rule}
}

// ReconstituteInventoryObserver rebuilds an observer from stored state
func ReconstituteInventoryObserver(s InventoryObserverState) *InventoryObserver {
	return &InventoryObserver{schedule: reconstituteSchedule(KindInventory, s.ScheduleState), rule: s.Rule}
}
