package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
)

// EventFactory creates CloudEvents for WMS domain events
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// Source returns the source attribute stamped on every event
func (f *EventFactory) Source() string {
	return f.source
}

// CreateEvent creates a new WMSCloudEvent. Correlation and trigger
// attributes are copied from ctx when present.
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WMSCloudEvent {
	triggerSource, triggeredBy := logging.TriggerFromContext(ctx)

	return &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
		CorrelationID:   logging.CorrelationIDFromContext(ctx),
		TriggerSource:   triggerSource,
		TriggeredBy:     triggeredBy,
	}
}

// ContextFromEvent restores the correlation and trigger attributes of an
// inbound event into ctx so downstream work is logged and re-published with them.
func ContextFromEvent(ctx context.Context, event *WMSCloudEvent) context.Context {
	if event.CorrelationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, event.CorrelationID)
	}
	return logging.ContextWithTrigger(ctx, "event", event.Type)
}
