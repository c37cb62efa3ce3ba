// Package store wraps the MongoDB document database that owns all
// durable records: users, profiles, jobs, answers, practice sessions
// and API tokens. It exposes keyed reads, creates and partial updates;
// no business logic lives here.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	collUsers    = "users"
	collProfiles = "profiles"
	collJobs     = "jobs"
	collAnswers  = "answers"
	collSessions = "practice_sessions"
	collTokens   = "tokens"

	connectTimeout = 10 * time.Second
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a versioned write lost against a
	// concurrent update. The caller should reload and retry.
	ErrConflict = errors.New("version conflict")
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// Connect dials MongoDB and pings the deployment before returning.
func Connect(ctx context.Context, uri, database string, logger *zap.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("connected to document store", zap.String("database", database))

	return &Store{
		client: client,
		db:     client.Database(database),
		logger: logger,
	}, nil
}

// Close releases the underlying client connections.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the secondary indexes the handlers rely on.
// Safe to call on every startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	byUser := mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}}

	for _, coll := range []string{collJobs, collAnswers, collSessions, collTokens} {
		if _, err := s.db.Collection(coll).Indexes().CreateOne(ctx, byUser); err != nil {
			return fmt.Errorf("index %s.user_id: %w", coll, err)
		}
	}

	expiry := mongo.IndexModel{Keys: bson.D{{Key: "expires_at", Value: 1}}}
	if _, err := s.db.Collection(collTokens).Indexes().CreateOne(ctx, expiry); err != nil {
		return fmt.Errorf("index tokens.expires_at: %w", err)
	}

	return nil
}

func newestFirst(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: -1}})
}

// getByID decodes the document with the given _id into target.
func (s *Store) getByID(ctx context.Context, coll, id string, target any) error {
	err := s.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(target)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", coll, id, err)
	}
	return nil
}
