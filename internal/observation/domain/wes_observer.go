package domain

import (
	"context"
	"fmt"
	"time"

	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
)

// WesObserver periodically lists WES tasks and diffs them against local picking tasks
type WesObserver struct {
	schedule
	endpoint TaskEndpoint
}

// NewWesObserver creates an active WesObserver
func NewWesObserver(id string, endpoint TaskEndpoint, interval PollingInterval) (*WesObserver, error) {
	s, err := newSchedule(id, KindWes, interval)
	if err != nil {
		return nil, err
	}
	return &WesObserver{schedule: s, endpoint: endpoint}, nil
}

// Poll lists the WES tasks when the observer is due. Tasks no local picking
// task tracks raise WesTaskDiscovered. Tracked tasks whose WES
// status differs raise WesTaskStatusUpdated. known must hold every local task
// with a WES id, and no two of them may share one.
func (o *WesObserver) Poll(ctx context.Context, now time.Time, source WesTaskSource, known []*wesdomain.PickingTask) error {
	if !o.ShouldPoll(now) {
		return nil
	}
	records, err := source.PollAllTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to poll WES tasks: %w", err)
	}
	o.markPolled(now)

	byWesID := make(map[wesdomain.WesTaskID]*wesdomain.PickingTask, len(known))
	for _, task := range known {
		if !task.HasWesTaskID() {
			continue
		}
		if other, dup := byWesID[task.WesTaskID()]; dup {
			return fmt.Errorf("WES task %s is tracked by both %s and %s", task.WesTaskID(), other.ID(), task.ID())
		}
		byWesID[task.WesTaskID()] = task
	}

	for _, record := range records {
		task, ok := byWesID[record.WesTaskID]
		if !ok {
			o.raise(&WesTaskDiscoveredEvent{
				ObserverEventBase: o.eventBase(now),
				Task:              record,
			})
			continue
		}
		if task.Status() == record.Status {
			continue
		}
		o.raise(&WesTaskStatusUpdatedEvent{
			ObserverEventBase: o.eventBase(now),
			TaskID:            task.ID(),
			WesTaskID:         record.WesTaskID,
			PreviousStatus:    task.Status(),
			NewStatus:         record.Status,
		})
	}
	return nil
}

func (o *WesObserver) Endpoint() TaskEndpoint { return o.endpoint }

// WesObserverState is the flat representation used by persistence mappers
type WesObserverState struct {
	ScheduleState
	Endpoint TaskEndpoint
}

// State copies the observer into a WesObserverState
func (o *WesObserver) State() WesObserverState {
	return WesObserverState{ScheduleState: o.state(), Endpoint: o.endpoint}
}

// ReconstituteWesObserver rebuilds an observer from stored state
func ReconstituteWesObserver(s WesObserverState) *WesObserver {
	return &WesObserver{schedule: reconstituteSchedule(KindWes, s.ScheduleState), endpoint: s.Endpoint}
}
