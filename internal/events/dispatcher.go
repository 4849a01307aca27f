package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
)

// Handler reacts to one domain event
type Handler func(ctx context.Context, event DomainEvent) error

// Dispatcher routes events to the handlers subscribed to their type.
// Handlers run synchronously in subscription order. A failing handler is
// logged and does not affect the publisher or sibling handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *logging.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
		logger:   logger.WithComponent("event-dispatcher"),
	}
}

// Subscribe registers handler for eventType
func (d *Dispatcher) Subscribe(eventType string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Publish implements Sink
func (d *Dispatcher) Publish(ctx context.Context, event DomainEvent) error {
	d.mu.RLock()
	handlers := d.handlers[event.EventType()]
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			d.logger.WithContext(ctx).WithError(err).Error("Event handler failed",
				"eventType", event.EventType(),
				"aggregateType", event.AggregateType(),
				"aggregateId", event.AggregateID(),
			)
		}
	}
	return nil
}

// On subscribes a handler typed to one event struct. The event type string
// is read from the zero value of E.
func On[E DomainEvent](d *Dispatcher, handler func(ctx context.Context, event E) error) {
	var zero E
	d.Subscribe(zero.EventType(), func(ctx context.Context, event DomainEvent) error {
		typed, ok := event.(E)
		if !ok {
			return fmt.Errorf("unexpected payload %T for event type %s", event, event.EventType())
		}
		return handler(ctx, typed)
	})
}
