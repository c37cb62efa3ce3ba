package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CreateSession inserts a new, ungenerated practice session. Questions
// are populated later, on first load of the session.
func (s *Store) CreateSession(ctx context.Context, userID string, categories []models.QuestionCategory, jobID string) (*models.PracticeSession, error) {
	now := time.Now().UTC()
	session := &models.PracticeSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		JobID:      jobID,
		Categories: categories,
		Questions:  []models.Question{},
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := s.db.Collection(collSessions).InsertOne(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Debug("created practice session",
		zap.String("session_id", session.ID),
		zap.String("user_id", userID),
		zap.Int("categories", len(categories)),
	)

	return session, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.PracticeSession, error) {
	var session models.PracticeSession
	if err := s.getByID(ctx, collSessions, id, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SetSessionQuestions writes the generated question list in a single
// update, resetting the index to 0. The write is guarded by the session
// version: a concurrent writer causes ErrConflict instead of a silent
// last-writer-wins overwrite.
func (s *Store) SetSessionQuestions(ctx context.Context, id string, version int64, questions []models.Question) error {
	set := bson.M{
		"questions":              questions,
		"current_question_index": 0,
		"updated_at":             time.Now().UTC(),
	}
	return s.versionedUpdate(ctx, id, version, set)
}

// AdvanceSession persists the sanitized question list and the new index.
func (s *Store) AdvanceSession(ctx context.Context, id string, version int64, questions []models.Question, index int) error {
	set := bson.M{
		"questions":              questions,
		"current_question_index": index,
		"updated_at":             time.Now().UTC(),
	}
	return s.versionedUpdate(ctx, id, version, set)
}

func (s *Store) CountSessions(ctx context.Context, userID string) (int64, error) {
	n, err := s.db.Collection(collSessions).CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// ListSessions returns the user's sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]*models.PracticeSession, error) {
	opts := newestFirst("created_at")
	cur, err := s.db.Collection(collSessions).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cur.Close(ctx)

	var sessions []*models.PracticeSession
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

// versionedUpdate applies a $set guarded by the current version and
// bumps the version on success. A matched-count of zero means either
// the session vanished or the version moved under us.
func (s *Store) versionedUpdate(ctx context.Context, id string, version int64, set bson.M) error {
	filter := bson.M{"_id": id, "version": version}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}

	res, err := s.db.Collection(collSessions).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}

	if res.MatchedCount == 0 {
		err := s.db.Collection(collSessions).FindOne(ctx, bson.M{"_id": id}).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check session %s: %w", id, err)
		}

		s.logger.Warn("session write lost version race",
			zap.String("session_id", id),
			zap.Int64("expected_version", version),
		)
		return ErrConflict
	}

	return nil
}
