package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetProfile returns the user's structured resume, or ErrNotFound when
// the profile was never set up.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.getByID(ctx, collProfiles, userID, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertProfile replaces the user's profile document. Profiles are
// keyed by user id; there is exactly one per user.
func (s *Store) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	profile.UpdatedAt = time.Now().UTC()

	_, err := s.db.Collection(collProfiles).ReplaceOne(ctx,
		bson.M{"_id": profile.UserID},
		profile,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert profile for %s: %w", profile.UserID, err)
	}
	return nil
}
