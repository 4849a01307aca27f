package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
	sharedmongo "github.com/wms-platform/fulfillment-orchestrator/pkg/mongodb"
)

const pickingTaskCollection = "picking_tasks"

type taskItemDocument struct {
	SKU      string `bson:"sku"`
	Quantity int    `bson:"quantity"`
	Location string `bson:"location,omitempty"`
}

type pickingTaskDocument struct {
	TaskID        string             `bson:"taskId"`
	WesTaskID     string             `bson:"wesTaskId,omitempty"`
	OrderID       string             `bson:"orderId,omitempty"`
	Origin        string             `bson:"origin"`
	Priority      int                `bson:"priority"`
	Status        string             `bson:"status"`
	Items         []taskItemDocument `bson:"items"`
	FailureReason string             `bson:"failureReason,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	SubmittedAt   *time.Time         `bson:"submittedAt,omitempty"`
	CompletedAt   *time.Time         `bson:"completedAt,omitempty"`
	CanceledAt    *time.Time         `bson:"canceledAt,omitempty"`
}

func toDocument(task *domain.PickingTask) pickingTaskDocument {
	s := task.State()
	items := make([]taskItemDocument, 0, len(s.Items))
	for _, i := range s.Items {
		items = append(items, taskItemDocument{SKU: i.SKU, Quantity: i.Quantity, Location: i.Location})
	}
	return pickingTaskDocument{
		TaskID:        s.ID,
		WesTaskID:     string(s.WesTaskID),
		OrderID:       s.OrderID,
		Origin:        string(s.Origin),
		Priority:      s.Priority,
		Status:        string(s.Status),
		Items:         items,
		FailureReason: s.FailureReason,
		CreatedAt:     s.CreatedAt,
		SubmittedAt:   s.SubmittedAt,
		CompletedAt:   s.CompletedAt,
		CanceledAt:    s.CanceledAt,
	}
}

func (d pickingTaskDocument) toDomain() *domain.PickingTask {
	items := make([]domain.TaskItem, 0, len(d.Items))
	for _, i := range d.Items {
		items = append(items, domain.TaskItem{SKU: i.SKU, Quantity: i.Quantity, Location: i.Location})
	}
	return domain.ReconstitutePickingTask(domain.PickingTaskState{
		ID:            d.TaskID,
		WesTaskID:     domain.WesTaskID(d.WesTaskID),
		OrderID:       d.OrderID,
		Origin:        domain.TaskOrigin(d.Origin),
		Priority:      d.Priority,
		Status:        domain.TaskStatus(d.Status),
		Items:         items,
		FailureReason: d.FailureReason,
		CreatedAt:     d.CreatedAt,
		SubmittedAt:   d.SubmittedAt,
		CompletedAt:   d.CompletedAt,
		CanceledAt:    d.CanceledAt,
	})
}

// PickingTaskRepository implements domain.PickingTaskRepository on MongoDB
type PickingTaskRepository struct {
	collection *sharedmongo.Collection
}

// NewPickingTaskRepository creates the repository and its indexes. The WES
// task id index is sparse so tasks not yet submitted do not collide.
func NewPickingTaskRepository(ctx context.Context, db *mongo.Database, m *metrics.Metrics) (*PickingTaskRepository, error) {
	repo := &PickingTaskRepository{collection: sharedmongo.NewCollection(db, pickingTaskCollection, m)}
	err := repo.collection.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "taskId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "wesTaskId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "orderId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s indexes: %w", pickingTaskCollection, err)
	}
	return repo, nil
}

func (r *PickingTaskRepository) Save(ctx context.Context, task *domain.PickingTask) error {
	doc := toDocument(task)
	if err := r.collection.Upsert(ctx, bson.M{"taskId": doc.TaskID}, doc); err != nil {
		return fmt.Errorf("failed to save picking task: %w", err)
	}
	return nil
}

func (r *PickingTaskRepository) FindByID(ctx context.Context, id string) (*domain.PickingTask, error) {
	return r.findOne(ctx, bson.M{"taskId": id}, "picking task", id)
}

func (r *PickingTaskRepository) FindByWesTaskID(ctx context.Context, id domain.WesTaskID) (*domain.PickingTask, error) {
	return r.findOne(ctx, bson.M{"wesTaskId": string(id)}, "picking task with WES id", string(id))
}

func (r *PickingTaskRepository) FindByOrderID(ctx context.Context, orderID string) ([]*domain.PickingTask, error) {
	return r.find(ctx, bson.M{"orderId": orderID})
}

func (r *PickingTaskRepository) FindByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.PickingTask, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

func (r *PickingTaskRepository) FindAll(ctx context.Context) ([]*domain.PickingTask, error) {
	return r.find(ctx, bson.M{})
}

func (r *PickingTaskRepository) findOne(ctx context.Context, filter bson.M, resource, id string) (*domain.PickingTask, error) {
	var doc pickingTaskDocument
	found, err := r.collection.FindOne(ctx, filter, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to find picking task: %w", err)
	}
	if !found {
		return nil, apperrors.NewNotFoundError(resource, id)
	}
	return doc.toDomain(), nil
}

func (r *PickingTaskRepository) find(ctx context.Context, filter bson.M) ([]*domain.PickingTask, error) {
	docs, err := sharedmongo.FindMany[pickingTaskDocument](ctx, r.collection, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query picking tasks: %w", err)
	}
	out := make([]*domain.PickingTask, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
