package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// Collection wraps a mongo collection and records duration and outcome of each operation
type Collection struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
}

// NewCollection returns the named collection of db. m may be nil.
func NewCollection(db *mongo.Database, name string, m *metrics.Metrics) *Collection {
	return &Collection{coll: db.Collection(name), metrics: m}
}

// Name returns the collection name
func (c *Collection) Name() string {
	return c.coll.Name()
}

// EnsureIndexes creates the given indexes if they do not exist yet
func (c *Collection) EnsureIndexes(ctx context.Context, models []mongo.IndexModel) error {
	_, err := c.coll.Indexes().CreateMany(ctx, models)
	return err
}

// Upsert sets doc on the document matching filter, inserting it when absent
func (c *Collection) Upsert(ctx context.Context, filter bson.M, doc interface{}) error {
	start := time.Now()
	_, err := c.coll.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	c.observe("upsert", start, err)
	return err
}

// FindOne decodes the first match into out. found is false when nothing matched.
func (c *Collection) FindOne(ctx context.Context, filter bson.M, out interface{}) (found bool, err error) {
	start := time.Now()
	err = c.coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.observe("find_one", start, nil)
		return false, nil
	}
	c.observe("find_one", start, err)
	return err == nil, err
}

// FindMany decodes every match of filter into a slice of D
func FindMany[D any](ctx context.Context, c *Collection, filter bson.M, opts ...*options.FindOptions) ([]D, error) {
	start := time.Now()
	docs, err := findMany[D](ctx, c.coll, filter, opts...)
	c.observe("find", start, err)
	return docs, err
}

func findMany[D any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]D, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Collection) observe(operation string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.RecordMongoDBOperation(c.coll.Name(), operation, err == nil, time.Since(start))
	}
}
