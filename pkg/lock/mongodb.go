package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollectionName is the collection holding lock documents
const DefaultCollectionName = "distributed_locks"

// DefaultLease bounds how long a crashed holder can block other instances
const DefaultLease = 60 * time.Second

type lockDocument struct {
	Key       string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	LockedAt  time.Time `bson:"lockedAt"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// MongoRegistry is a Registry backed by a MongoDB collection. Each lock is a
// document keyed by name; a holder owns it until Unlock or lease expiry.
type MongoRegistry struct {
	collection *mongo.Collection
	owner      string
	lease      time.Duration
	now        func() time.Time
}

// NewMongoRegistry creates a registry whose locks are owned by this process
func NewMongoRegistry(db *mongo.Database, lease time.Duration) *MongoRegistry {
	if lease <= 0 {
		lease = DefaultLease
	}
	return &MongoRegistry{
		collection: db.Collection(DefaultCollectionName),
		owner:      uuid.NewString(),
		lease:      lease,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Obtain returns the lock for key
func (r *MongoRegistry) Obtain(key string) Lock {
	return &mongoLock{registry: r, key: key, owner: r.owner + ":" + uuid.NewString()}
}

type mongoLock struct {
	registry *MongoRegistry
	key      string
	owner    string
}

func (l *mongoLock) TryLock(ctx context.Context, wait time.Duration) (bool, error) {
	return tryUntil(ctx, wait, l.acquire)
}

// acquire takes the lock when it is free or its lease expired. A held,
// unexpired lock makes the upsert collide on _id, which means "not acquired".
func (l *mongoLock) acquire(ctx context.Context) (bool, error) {
	now := l.registry.now()

	filter := bson.M{
		"_id": l.key,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$lte": now}},
			{"owner": l.owner},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"owner":     l.owner,
			"lockedAt":  now,
			"expiresAt": now.Add(l.registry.lease),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc lockDocument
	err := l.registry.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}

	return doc.Owner == l.owner, nil
}

func (l *mongoLock) Unlock(ctx context.Context) error {
	result, err := l.registry.collection.DeleteOne(ctx, bson.M{"_id": l.key, "owner": l.owner})
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.key)
	}
	return nil
}
