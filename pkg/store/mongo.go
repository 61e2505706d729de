// Package store persists analysis results to MongoDB for downstream
// dashboards and historical queries.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/frontscan/frontscan/pkg/analysis"
)

const (
	resultsCollection = "results"
	connectTimeout    = 10 * time.Second
)

// MongoSink implements [analysis.Sink] by inserting each flush into a
// results collection.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSink connects to uri and verifies the connection with a
// ping before returning.
func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoSink{
		client: client,
		coll:   client.Database(database).Collection(resultsCollection),
	}, nil
}

// Write inserts the flushed results. An empty flush is a no-op since
// InsertMany rejects empty document slices.
func (s *MongoSink) Write(ctx context.Context, results []*analysis.Result) error {
	if len(results) == 0 {
		return nil
	}
	docs := make([]any, len(results))
	for i, r := range results {
		docs[i] = r
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
