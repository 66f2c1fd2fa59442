package observability

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/zonealloc/pkg/errors"
)

// DefaultMongoCollection is the collection events are archived into.
const DefaultMongoCollection = "allocator_events"

// MongoPublisher archives events as documents in a MongoDB collection.
type MongoPublisher struct {
	coll *mongo.Collection
}

// NewMongoPublisher creates a publisher writing into coll.
func NewMongoPublisher(coll *mongo.Collection) *MongoPublisher {
	return &MongoPublisher{coll: coll}
}

// OpenMongo connects to uri and returns the client plus the events collection
// of database. The caller owns the client and must Disconnect it.
func OpenMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Collection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeTelemetry, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, errors.Wrap(errors.ErrCodeTelemetry, err, "ping mongo")
	}
	return client, client.Database(database).Collection(DefaultMongoCollection), nil
}

// Publish inserts e as one document.
func (p *MongoPublisher) Publish(ctx context.Context, e Event) error {
	if _, err := p.coll.InsertOne(ctx, e); err != nil {
		return errors.Wrap(errors.ErrCodeTelemetry, err, "mongo insert %s", e.Kind)
	}
	return nil
}
