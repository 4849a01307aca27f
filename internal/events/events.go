// Package events carries domain events from aggregates to in-process
// handlers and to the transactional outbox.
package events

import (
	"context"
	"time"
)

// DomainEvent is implemented by every event an aggregate buffers
type DomainEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
}

// Sink accepts drained events one at a time in emission order
type Sink interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, event DomainEvent) error

// Publish calls f
func (f SinkFunc) Publish(ctx context.Context, event DomainEvent) error {
	return f(ctx, event)
}

// FanOut forwards each event to every sink in order, stopping at the first error
type FanOut []Sink

// Publish implements Sink
func (f FanOut) Publish(ctx context.Context, event DomainEvent) error {
	for _, sink := range f {
		if err := sink.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Flush forwards drained events to sink in order
func Flush[E DomainEvent](ctx context.Context, sink Sink, drained []E) error {
	for _, event := range drained {
		if err := sink.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
