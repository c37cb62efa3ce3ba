package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// CreateAnswer inserts a durable answer record and returns its id.
func (s *Store) CreateAnswer(ctx context.Context, answer *models.Answer) (string, error) {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.Collection(collAnswers).InsertOne(ctx, answer); err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}

	s.logger.Debug("saved answer",
		zap.String("answer_id", answer.ID),
		zap.String("question_id", answer.QuestionID),
		zap.Strings("tags", answer.Tags),
	)

	return answer.ID, nil
}

func (s *Store) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	var answer models.Answer
	if err := s.getByID(ctx, collAnswers, id, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// AnswerFilter narrows ListAnswers. Zero values mean "no filter".
type AnswerFilter struct {
	Tag      string
	Category models.QuestionCategory
	JobID    string
	Favorite bool
}

// ListAnswers returns the user's answer library, newest first.
func (s *Store) ListAnswers(ctx context.Context, userID string, filter AnswerFilter) ([]*models.Answer, error) {
	query := bson.M{"user_id": userID}
	if filter.Tag != "" {
		query["tags"] = filter.Tag
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.JobID != "" {
		query["job_id"] = filter.JobID
	}
	if filter.Favorite {
		query["is_favorite"] = true
	}

	cur, err := s.db.Collection(collAnswers).Find(ctx, query, newestFirst("created_at"))
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer cur.Close(ctx)

	var answers []*models.Answer
	if err := cur.All(ctx, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return answers, nil
}

// SetAnswerFavorite toggles the favorite flag on a user's own answer.
func (s *Store) SetAnswerFavorite(ctx context.Context, id, userID string, favorite bool) error {
	res, err := s.db.Collection(collAnswers).UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_favorite": favorite}},
	)
	if err != nil {
		return fmt.Errorf("update answer %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountAnswers(ctx context.Context, userID string) (int64, error) {
	n, err := s.db.Collection(collAnswers).CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}
