// Package mongo stores documents in a MongoDB collection, one record per
// document keyed by name.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/keygraph/pkg/store"
)

// Config configures the MongoDB connection.
type Config struct {
	URI        string
	Database   string // default "keygraph"
	Collection string // default "documents"
	Timeout    time.Duration
}

// Store implements store.Store on MongoDB.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type record struct {
	Name    string    `bson:"_id"`
	Data    []byte    `bson:"data,omitempty"`
	Size    int64     `bson:"size"`
	Updated time.Time `bson:"updated"`
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri required")
	}
	if cfg.Database == "" {
		cfg.Database = "keygraph"
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}, nil
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.NotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get %s: %w", name, err)
	}
	return rec.Data, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	rec := record{Name: name, Data: data, Size: int64(len(data)), Updated: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo put %s: %w", name, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]store.Info, error) {
	opts := options.Find().
		SetProjection(bson.M{"data": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	var recs []record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	out := make([]store.Info, len(recs))
	for i, r := range recs {
		out[i] = store.Info{Name: r.Name, Size: r.Size, Updated: r.Updated}
	}
	return out, nil
}

// Drop removes the collection.
func (s *Store) Drop(ctx context.Context) error {
	return s.coll.Drop(ctx)
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ store.Store = (*Store)(nil)
