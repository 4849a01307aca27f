package domain

import (
	"context"
	"fmt"
	"time"
)

// OrderObserver periodically reads new orders from the order source
type OrderObserver struct {
	schedule
	endpoint SourceEndpoint
}

// NewOrderObserver creates an active OrderObserver
func NewOrderObserver(id string, endpoint SourceEndpoint, interval PollingInterval) (*OrderObserver, error) {
	s, err := newSchedule(id, KindOrder, interval)
	if err != nil {
		return nil, err
	}
	return &OrderObserver{schedule: s, endpoint: endpoint}, nil
}

// Poll fetches orders added since the last poll when the observer is due and
// raises one NewOrderObserved event per order, in fetch order
func (o *OrderObserver) Poll(ctx context.Context, now time.Time, source OrderSourcePort) error {
	if !o.ShouldPoll(now) {
		return nil
	}
	results, err := source.FetchNewOrders(ctx, o.endpoint, o.lastPolledAt)
	if err != nil {
		return fmt.Errorf("failed to fetch new orders: %w", err)
	}
	o.markPolled(now)

	for _, result := range results {
		o.raise(&NewOrderObservedEvent{
			ObserverEventBase: o.eventBase(now),
			Order:             result,
		})
	}
	return nil
}

func (o *OrderObserver) Endpoint() SourceEndpoint { return o.endpoint }

// OrderObserverState is the flat representation used by persistence mappers
type OrderObserverState struct {
	ScheduleState
	Endpoint SourceEndpoint
}

// State copies the observer into an OrderObserverState
func (o *OrderObserver) State() OrderObserverState {
	return OrderObserverState{ScheduleState: o.state(), Endpoint: o.endpoint}
}

// ReconstituteOrderObserver rebuilds an observer from stored state
func ReconstituteOrderObserver(s OrderObserverState) *OrderObserver {
	return &OrderObserver{schedule: reconstituteSchedule(KindOrder, s.ScheduleState), endpoint: s.Endpoint}
}
