package events

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/outbox"
)

// OutboxSink stores each event as a CloudEvent in the outbox for relay to Kafka
type OutboxSink struct {
	repo    outbox.Repository
	factory *cloudevents.EventFactory
	topic   string
}

// NewOutboxSink creates a sink writing to topic
func NewOutboxSink(repo outbox.Repository, factory *cloudevents.EventFactory, topic string) *OutboxSink {
	return &OutboxSink{repo: repo, factory: factory, topic: topic}
}

// Publish implements Sink
func (s *OutboxSink) Publish(ctx context.Context, event DomainEvent) error {
	ce := ToCloudEvent(ctx, s.factory, event)

	entry, err := outbox.NewOutboxEventFromCloudEvent(event.AggregateID(), event.AggregateType(), s.topic, ce)
	if err != nil {
		return fmt.Errorf("failed to build outbox entry for %s: %w", event.EventType(), err)
	}

	if err := s.repo.SaveAll(ctx, []*outbox.OutboxEvent{entry}); err != nil {
		return fmt.Errorf("failed to store %s in outbox: %w", event.EventType(), err)
	}
	return nil
}

// ToCloudEvent wraps a domain event in the platform CloudEvent envelope
func ToCloudEvent(ctx context.Context, factory *cloudevents.EventFactory, event DomainEvent) *cloudevents.WMSCloudEvent {
	ce := factory.CreateEvent(ctx, event.EventType(), event.AggregateID(), event)
	ce.Time = event.OccurredAt().UTC()
	ce.AggregateType = event.AggregateType()
	if w, ok := event.(interface{ Warehouse() string }); ok {
		ce.WarehouseID = w.Warehouse()
	}
	return ce
}
