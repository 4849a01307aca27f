package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
	sharedmongo "github.com/wms-platform/fulfillment-orchestrator/pkg/mongodb"
)

const orderCollection = "orders"

// OrderRepository implements domain.OrderRepository on MongoDB
type OrderRepository struct {
	collection *sharedmongo.Collection
}

// NewOrderRepository creates the repository and its indexes
func NewOrderRepository(ctx context.Context, db *mongo.Database, m *metrics.Metrics) (*OrderRepository, error) {
	repo := &OrderRepository{collection: sharedmongo.NewCollection(db, orderCollection, m)}
	err := repo.collection.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "fulfillmentStartAt", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s indexes: %w", orderCollection, err)
	}
	return repo, nil
}

func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	doc, err := toOrderDocument(order)
	if err != nil {
		return err
	}
	if err := r.collection.Upsert(ctx, bson.M{"orderId": doc.OrderID}, doc); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var doc orderDocument
	found, err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if !found {
		return nil, apperrors.NewNotFoundError("order", orderID)
	}
	return doc.toDomain()
}

func (r *OrderRepository) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

// FindScheduledReadyForFulfillment uses the stored fulfillment start so the
// window check runs in the query
func (r *OrderRepository) FindScheduledReadyForFulfillment(ctx context.Context, now time.Time) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{
		"status":             string(domain.OrderScheduled),
		"fulfillmentStartAt": bson.M{"$lte": now},
	})
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	docs, err := sharedmongo.FindMany[orderDocument](ctx, r.collection, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	out := make([]*domain.Order, 0, len(docs))
	for _, d := range docs {
		order, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}
