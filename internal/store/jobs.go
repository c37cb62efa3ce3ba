package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

func (s *Store) CreateJob(ctx context.Context, job *models.Job) (string, error) {
	now := time.Now().UTC()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.StatusDrafted
	}
	job.CreatedAt = now
	job.UpdatedAt = now

	if _, err := s.db.Collection(collJobs).InsertOne(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	return job.ID, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.getByID(ctx, collJobs, id, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *Store) ListJobs(ctx context.Context, userID string) ([]*models.Job, error) {
	cur, err := s.db.Collection(collJobs).Find(ctx, bson.M{"user_id": userID}, newestFirst("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer cur.Close(ctx)

	var jobs []*models.Job
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return jobs, nil
}

// JobUpdate carries the mutable job fields. Nil pointers are left
// untouched, giving partial-field updates.
type JobUpdate struct {
	Title       *string
	Company     *string
	Description *string
	Status      *models.JobStatus
	Notes       *string
}

func (s *Store) UpdateJob(ctx context.Context, id, userID string, update JobUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Company != nil {
		set["company"] = *update.Company
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}

	res, err := s.db.Collection(collJobs).UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteJob(ctx context.Context, id, userID string) error {
	res, err := s.db.Collection(collJobs).DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountJobsByStatus aggregates the user's jobs per application status
// for the dashboard.
func (s *Store) CountJobsByStatus(ctx context.Context, userID string) (map[models.JobStatus]int64, error) {
	counts := make(map[models.JobStatus]int64, len(models.JobStatuses()))
	for _, status := range models.JobStatuses() {
		n, err := s.db.Collection(collJobs).CountDocuments(ctx, bson.M{"user_id": userID, "status": status})
		if err != nil {
			return nil, fmt.Errorf("count jobs with status %s: %w", status, err)
		}
		counts[status] = n
	}
	return counts, nil
}
