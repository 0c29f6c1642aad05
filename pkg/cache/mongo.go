package cache

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCache stores entries as documents in a MongoDB collection.
//
// Each entry is a document {_id: key, data: bytes}. ReplaceOne with upsert
// is atomic per document, which gives last-writer-wins semantics for
// concurrent writers.
type MongoCache struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoEntry struct {
	Key  string `bson:"_id"`
	Data []byte `bson:"data"`
}

// NewMongoCache connects to MongoDB and uses the given database/collection
// as the cache store.
func NewMongoCache(ctx context.Context, uri, database, collection string) (*MongoCache, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &MongoCache{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// NewMongoCacheWithCollection wraps an existing collection.
// Close becomes a no-op for the shared client in this case.
func NewMongoCacheWithCollection(coll *mongo.Collection) *MongoCache {
	return &MongoCache{coll: coll}
}

// Get retrieves an entry.
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry mongoEntry
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Data, true, nil
}

// Set stores an entry.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte) error {
	_, err := c.coll.ReplaceOne(
		ctx,
		bson.M{"_id": key},
		mongoEntry{Key: key, Data: data},
		options.Replace().SetUpsert(true),
	)
	return err
}

// Delete removes an entry.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects the owned client, if any.
func (c *MongoCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(context.Background())
}

// Ensure MongoCache implements Cache.
var _ Cache = (*MongoCache)(nil)
