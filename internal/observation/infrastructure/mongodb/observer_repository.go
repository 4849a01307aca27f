package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
	sharedmongo "github.com/wms-platform/fulfillment-orchestrator/pkg/mongodb"
)

const observerCollection = "observers"

type scheduleDocument struct {
	ObserverID            string     `bson:"observerId"`
	Kind                  string     `bson:"kind"`
	PollingIntervalMillis int64      `bson:"pollingIntervalMillis"`
	LastPolledAt          *time.Time `bson:"lastPolledAt,omitempty"`
	Active                bool       `bson:"active"`
}

func toScheduleDocument(kind domain.ObserverKind, s domain.ScheduleState) scheduleDocument {
	return scheduleDocument{
		ObserverID:            s.ID,
		Kind:                  string(kind),
		PollingIntervalMillis: s.PollingInterval.Milliseconds(),
		LastPolledAt:          s.LastPolledAt,
		Active:                s.Active,
	}
}

func (d scheduleDocument) state() domain.ScheduleState {
	return domain.ScheduleState{
		ID:              d.ObserverID,
		PollingInterval: time.Duration(d.PollingIntervalMillis) * time.Millisecond,
		LastPolledAt:    d.LastPolledAt,
		Active:          d.Active,
	}
}

// store persists one observer kind in the shared observers collection
type store[O any, D any] struct {
	collection *sharedmongo.Collection
	kind       domain.ObserverKind
	toDocument func(O) D
	toDomain   func(D) O
	idOf       func(D) string
}

func (s *store[O, D]) Save(ctx context.Context, observer O) error {
	doc := s.toDocument(observer)
	if err := s.collection.Upsert(ctx, s.filter(bson.M{"observerId": s.idOf(doc)}), doc); err != nil {
		return fmt.Errorf("failed to save %s observer: %w", s.kind, err)
	}
	return nil
}

func (s *store[O, D]) FindByID(ctx context.Context, id string) (O, error) {
	var doc D
	found, err := s.collection.FindOne(ctx, s.filter(bson.M{"observerId": id}), &doc)
	if err != nil {
		var zero O
		return zero, fmt.Errorf("failed to find %s observer: %w", s.kind, err)
	}
	if !found {
		var zero O
		return zero, apperrors.NewNotFoundError(s.kind.AggregateType(), id)
	}
	return s.toDomain(doc), nil
}

func (s *store[O, D]) FindAllActive(ctx context.Context) ([]O, error) {
	return s.find(ctx, bson.M{"active": true})
}

func (s *store[O, D]) FindAll(ctx context.Context) ([]O, error) {
	return s.find(ctx, bson.M{})
}

func (s *store[O, D]) find(ctx context.Context, filter bson.M) ([]O, error) {
	docs, err := sharedmongo.FindMany[D](ctx, s.collection, s.filter(filter),
		options.Find().SetSort(bson.D{{Key: "observerId", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s observers: %w", s.kind, err)
	}
	out := make([]O, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.toDomain(d))
	}
	return out, nil
}

func (s *store[O, D]) filter(f bson.M) bson.M {
	f["kind"] = string(s.kind)
	return f
}

func newCollection(ctx context.Context, db *mongo.Database, m *metrics.Metrics) (*sharedmongo.Collection, error) {
	collection := sharedmongo.NewCollection(db, observerCollection, m)
	err := collection.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "observerId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "active", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s indexes: %w", observerCollection, err)
	}
	return collection, nil
}

type inventoryObserverDocument struct {
	Schedule         scheduleDocument `bson:",inline"`
	ThresholdPercent float64          `bson:"thresholdPercent"`
	CheckFrequency   int              `bson:"checkFrequency"`
}

// InventoryObserverRepository implements domain.InventoryObserverRepository
type InventoryObserverRepository struct {
	*store[*domain.InventoryObserver, inventoryObserverDocument]
}

func NewInventoryObserverRepository(ctx context.Context, db *mongo.Database, m *metrics.Metrics) (*InventoryObserverRepository, error) {
	collection, err := newCollection(ctx, db, m)
	if err != nil {
		return nil, err
	}
	return &InventoryObserverRepository{&store[*domain.InventoryObserver, inventoryObserverDocument]{
		collection: collection,
		kind:       domain.KindInventory,
		toDocument: func(o *domain.InventoryObserver) inventoryObserverDocument {
			s := o.State()
			return inventoryObserverDocument{
				Schedule:         toScheduleDocument(domain.KindInventory, s.ScheduleState),
				ThresholdPercent: s.Rule.ThresholdPercent,
				CheckFrequency:   s.Rule.CheckFrequency,
			}
		},
		toDomain: func(d inventoryObserverDocument) *domain.InventoryObserver {
			return domain.ReconstituteInventoryObserver(domain.InventoryObserverState{
				ScheduleState: d.Schedule.state(),
				Rule:          domain.ObservationRule{ThresholdPercent: d.ThresholdPercent, CheckFrequency: d.CheckFrequency},
			})
		},
		idOf: func(d inventoryObserverDocument) string { return d.Schedule.ObserverID },
	}}, nil
}

type orderObserverDocument struct {
	Schedule scheduleDocument `bson:",inline"`
	DSN      string           `bson:"dsn"`
	Username string           `bson:"username,omitempty"`
	Password string           `bson:"password,omitempty"`
}

// OrderObserverRepository implements domain.OrderObserverRepository
type OrderObserverRepository struct {
	*store[*domain.OrderObserver, orderObserverDocument]
}

func NewOrderObserverRepository(ctx context.Context, db *mongo.Database, m *metrics.Metrics) (*OrderObserverRepository, error) {
	collection, err := newCollection(ctx, db, m)
	if err != nil {
		return nil, err
	}
	return &OrderObserverRepository{&store[*domain.OrderObserver, orderObserverDocument]{
		collection: collection,
		kind:       domain.KindOrder,
		toDocument: func(o *domain.OrderObserver) orderObserverDocument {
			s := o.State()
			return orderObserverDocument{
				Schedule: toScheduleDocument(domain.KindOrder, s.ScheduleState),
				DSN:      s.Endpoint.DSN,
				Username: s.Endpoint.Username,
				Password: s.Endpoint.Password,
			}
		},
		toDomain: func(d orderObserverDocument) *domain.OrderObserver {
			return domain.ReconstituteOrderObserver(domain.OrderObserverState{
				ScheduleState: d.Schedule.state(),
				Endpoint:      domain.SourceEndpoint{DSN: d.DSN, Username: d.Username, Password: d.Password},
			})
		},
		idOf: func(d orderObserverDocument) string { return d.Schedule.ObserverID },
	}}, nil
}

type wesObserverDocument struct {
	Schedule  scheduleDocument `bson:",inline"`
	URL       string           `bson:"url"`
	AuthToken string           `bson:"authToken,omitempty"`
}

// WesObserverRepository implements domain.WesObserverRepository
type WesObserverRepository struct {
	*store[*domain.WesObserver, wesObserverDocument]
}

func NewWesObserverRepository(ctx context.Context, db *mongo.Database, m *metrics.Metrics) (*WesObserverRepository, error) {
	collection, err := newCollection(ctx, db, m)
	if err != nil {
		return nil, err
	}
	return &WesObserverRepository{&store[*domain.WesObserver, wesObserverDocument]{
		collection: collection,
		kind:       domain.KindWes,
		toDocument: func(o *domain.WesObserver) wesObserverDocument {
			s := o.State()
			return wesObserverDocument{
				Schedule:  toScheduleDocument(domain.KindWes, s.ScheduleState),
				URL:       s.Endpoint.URL,
				AuthToken: s.Endpoint.AuthToken,
			}
		},
		toDomain: func(d wesObserverDocument) *domain.WesObserver {
			return domain.ReconstituteWesObserver(domain.WesObserverState{
				ScheduleState: d.Schedule.state(),
				Endpoint:      domain.TaskEndpoint{URL: d.URL, AuthToken: d.AuthToken},
			})
		},
		idOf: func(d wesObserverDocument) string { return d.Schedule.ObserverID },
	}}, nil
}
