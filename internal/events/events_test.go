package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/outbox"
)

var occurredAt = time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

type shelfRestocked struct {
	ShelfID     string `json:"shelfId"`
	WarehouseID string `json:"warehouseId"`
}

func (e *shelfRestocked) EventType() string     { return "test.shelf.restocked" }
func (e *shelfRestocked) AggregateID() string   { return e.ShelfID }
func (e *shelfRestocked) AggregateType() string { return "Shelf" }
func (e *shelfRestocked) OccurredAt() time.Time { return occurredAt }
func (e *shelfRestocked) Warehouse() string     { return e.WarehouseID }

type shelfEmptied struct {
	ShelfID string `json:"shelfId"`
}

func (e *shelfEmptied) EventType() string     { return "test.shelf.emptied" }
func (e *shelfEmptied) AggregateID() string   { return e.ShelfID }
func (e *shelfEmptied) AggregateType() string { return "Shelf" }
func (e *shelfEmptied) OccurredAt() time.Time { return occurredAt }

type collectingSink struct {
	name string
	log  *[]string
	err  error
}

func (c collectingSink) Publish(ctx context.Context, event DomainEvent) error {
	*c.log = append(*c.log, c.name+":"+event.EventType())
	return c.err
}

type fakeOutboxRepo struct {
	saved   []*outbox.OutboxEvent
	saveErr error
}

func (f *fakeOutboxRepo) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, events...)
	return nil
}

func (f *fakeOutboxRepo) FindUnpublished(ctx context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkPublished(ctx context.Context, eventID string) error { return nil }

func (f *fakeOutboxRepo) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	return nil
}

func TestDispatcher_RoutesByEventType(t *testing.T) {
	d := NewDispatcher(logging.NewNop())
	var got []string
	d.Subscribe("test.shelf.restocked", func(ctx context.Context, event DomainEvent) error {
		got = append(got, "first:"+event.AggregateID())
		return nil
	})
	d.Subscribe("test.shelf.restocked", func(ctx context.Context, event DomainEvent) error {
		got = append(got, "second:"+event.AggregateID())
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), &shelfRestocked{ShelfID: "S1"}))
	require.NoError(t, d.Publish(context.Background(), &shelfEmptied{ShelfID: "S2"}))

	assert.Equal(t, []string{"first:S1", "second:S1"}, got)
}

func TestDispatcher_HandlerErrorDoesNotStopSiblings(t *testing.T) {
	d := NewDispatcher(logging.NewNop())
	called := false
	d.Subscribe("test.shelf.emptied", func(ctx context.Context, event DomainEvent) error {
		return errors.New("boom")
	})
	d.Subscribe("test.shelf.emptied", func(ctx context.Context, event DomainEvent) error {
		called = true
		return nil
	})

	assert.NoError(t, d.Publish(context.Background(), &shelfEmptied{ShelfID: "S1"}))
	assert.True(t, called)
}

func TestOn_TypedHandler(t *testing.T) {
	d := NewDispatcher(logging.NewNop())
	var seen *shelfRestocked
	On(d, func(ctx context.Context, event *shelfRestocked) error {
		seen = event
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), &shelfRestocked{ShelfID: "S9", WarehouseID: "WH1"}))
	require.NotNil(t, seen)
	assert.Equal(t, "WH1", seen.WarehouseID)
}

func TestFanOut_StopsAtFirstError(t *testing.T) {
	var log []string
	sink := FanOut{
		collectingSink{name: "outbox", log: &log, err: errors.New("db down")},
		collectingSink{name: "dispatcher", log: &log},
	}

	err := sink.Publish(context.Background(), &shelfEmptied{ShelfID: "S1"})
	assert.EqualError(t, err, "db down")
	assert.Equal(t, []string{"outbox:test.shelf.emptied"}, log)
}

func TestFlush_PreservesOrder(t *testing.T) {
	var log []string
	drained := []DomainEvent{&shelfRestocked{ShelfID: "S1"}, &shelfEmptied{ShelfID: "S1"}}

	require.NoError(t, Flush(context.Background(), collectingSink{name: "s", log: &log}, drained))
	assert.Equal(t, []string{"s:test.shelf.restocked", "s:test.shelf.emptied"}, log)
}

func TestFlush_Empty(t *testing.T) {
	var log []string
	require.NoError(t, Flush[DomainEvent](context.Background(), collectingSink{name: "s", log: &log}, nil))
	assert.Empty(t, log)
}

func TestOutboxSink_StoresCloudEvent(t *testing.T) {
	repo := &fakeOutboxRepo{}
	sink := NewOutboxSink(repo, cloudevents.NewEventFactory(cloudevents.SourceOrchestrator), "wms.orchestrator.events")
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, sink.Publish(ctx, &shelfRestocked{ShelfID: "S1", WarehouseID: "WH1"}))
	require.Len(t, repo.saved, 1)

	entry := repo.saved[0]
	assert.Equal(t, "S1", entry.AggregateID)
	assert.Equal(t, "Shelf", entry.AggregateType)
	assert.Equal(t, "test.shelf.restocked", entry.EventType)
	assert.Equal(t, "wms.orchestrator.events", entry.Topic)

	var ce map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Payload, &ce))
	assert.Equal(t, "corr-1", ce["wmscorrelationid"])
	assert.Equal(t, "WH1", ce["wmswarehouseid"])
	assert.Equal(t, "Shelf", ce["wmsaggregatetype"])
	assert.Equal(t, "S1", ce["subject"])
	assert.Equal(t, "2026-03-02T08:30:00Z", ce["time"])
}

func TestOutboxSink_SaveFailure(t *testing.T) {
	repo := &fakeOutboxRepo{saveErr: errors.New("write conflict")}
	sink := NewOutboxSink(repo, cloudevents.NewEventFactory(cloudevents.SourceOrchestrator), "t")

	err := sink.Publish(context.Background(), &shelfEmptied{ShelfID: "S1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write conflict")
}
