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

const transactionCollection = "inventory_transactions"

// TransactionRepository implements domain.TransactionRepository on MongoDB
type TransactionRepository struct {
	collection *sharedmongo.Collection
}

// NewTransactionRepository creates the repository and its indexes
func NewTransactionRepository(ctx context.Context, db *mongo.Database, m *metrics.Metrics) (*TransactionRepository, error) {
	repo := &TransactionRepository{collection: sharedmongo.NewCollection(db, transactionCollection, m)}
	err := repo.collection.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "transactionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sourceReferenceId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s indexes: %w", transactionCollection, err)
	}
	return repo, nil
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.InventoryTransaction) error {
	doc := toTransactionDocument(tx)
	if err := r.collection.Upsert(ctx, bson.M{"transactionId": doc.TransactionID}, doc); err != nil {
		return fmt.Errorf("failed to save inventory transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.InventoryTransaction, error) {
	var doc transactionDocument
	found, err := r.collection.FindOne(ctx, bson.M{"transactionId": id}, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory transaction: %w", err)
	}
	if !found {
		return nil, apperrors.NewNotFoundError("inventory transaction", id)
	}
	return doc.toDomain(), nil
}

func (r *TransactionRepository) FindBySourceReferenceID(ctx context.Context, sourceReferenceID string) ([]*domain.InventoryTransaction, error) {
	return r.find(ctx, bson.M{"sourceReferenceId": sourceReferenceID})
}

func (r *TransactionRepository) FindByStatus(ctx context.Context, status domain.TransactionStatus) ([]*domain.InventoryTransaction, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

func (r *TransactionRepository) find(ctx context.Context, filter bson.M) ([]*domain.InventoryTransaction, error) {
	docs, err := sharedmongo.FindMany[transactionDocument](ctx, r.collection, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory transactions: %w", err)
	}
	out := make([]*domain.InventoryTransaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
