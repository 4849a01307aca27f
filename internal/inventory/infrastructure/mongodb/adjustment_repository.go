package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
	sharedmongo "github.com/wms-platform/fulfillment-orchestrator/pkg/mongodb"
)

const adjustmentCollection = "inventory_adjustments"

// AdjustmentRepository implements domain.AdjustmentRepository on MongoDB
type AdjustmentRepository struct {
	collection *sharedmongo.Collection
}

func NewAdjustmentRepository(ctx context.Context, db *mongo.Database, m *metrics.Metrics) (*AdjustmentRepository, error) {
	repo := &AdjustmentRepository{collection: sharedmongo.NewCollection(db, adjustmentCollection, m)}
	err := repo.collection.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "adjustmentId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s indexes: %w", adjustmentCollection, err)
	}
	return repo, nil
}

func (r *AdjustmentRepository) Save(ctx context.Context, adjustment *domain.InventoryAdjustment) error {
	doc := toAdjustmentDocument(adjustment)
	if err := r.collection.Upsert(ctx, bson.M{"adjustmentId": doc.AdjustmentID}, doc); err != nil {
		return fmt.Errorf("failed to save inventory adjustment: %w", err)
	}
	return nil
}

func (r *AdjustmentRepository) FindByID(ctx context.Context, id string) (*domain.InventoryAdjustment, error) {
	var doc adjustmentDocument
	found, err := r.collection.FindOne(ctx, bson.M{"adjustmentId": id}, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory adjustment: %w", err)
	}
	if !found {
		return nil, apperrors.NewNotFoundError("inventory adjustment", id)
	}
	return doc.toDomain(), nil
}

func (r *AdjustmentRepository) FindByStatus(ctx context.Context, status domain.AdjustmentStatus) ([]*domain.InventoryAdjustment, error) {
	docs, err := sharedmongo.FindMany[adjustmentDocument](ctx, r.collection, bson.M{"status": string(status)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory adjustments: %w", err)
	}
	out := make([]*domain.InventoryAdjustment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
