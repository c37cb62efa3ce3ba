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

func (s *Store) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.Collection(collUsers).InsertOne(ctx, user); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return user.ID, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.getByID(ctx, collUsers, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateToken mints a bearer token for the user.
func (s *Store) CreateToken(ctx context.Context, userID string, ttl time.Duration) (*models.Token, error) {
	now := time.Now().UTC()
	token := &models.Token{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if _, err := s.db.Collection(collTokens).InsertOne(ctx, token); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return token, nil
}

// UserIDByToken resolves a bearer token to its owning user. Expired or
// unknown tokens yield ErrNotFound.
func (s *Store) UserIDByToken(ctx context.Context, tokenID string) (string, error) {
	var token models.Token
	if err := s.getByID(ctx, collTokens, tokenID, &token); err != nil {
		return "", err
	}
	if time.Now().UTC().After(token.ExpiresAt) {
		return "", ErrNotFound
	}
	return token.UserID, nil
}

// PruneExpiredTokens removes tokens past their expiry. Run on a
// schedule from the serve command.
func (s *Store) PruneExpiredTokens(ctx context.Context) (int64, error) {
	res, err := s.db.Collection(collTokens).DeleteMany(ctx,
		bson.M{"expires_at": bson.M{"$lt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("prune tokens: %w", err)
	}

	if res.DeletedCount > 0 {
		s.logger.Info("pruned expired tokens", zap.Int64("count", res.DeletedCount))
	}
	return res.DeletedCount, nil
}
