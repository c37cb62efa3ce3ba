package models

import (
	"fmt"
	"strings"
	"time"
)

// QuestionCategory classifies an interview question.
type QuestionCategory string

const (
	CategoryMotivational QuestionCategory = "Motivational"
	CategoryBehavioral   QuestionCategory = "Behavioral"
	CategoryTechnical    QuestionCategory = "Technical"
	CategoryPersonality  QuestionCategory = "Personality"
)

// DefaultCategory is applied when the AI omits or mangles the category field.
const DefaultCategory = CategoryBehavioral

// Categories lists every valid question category in display order.
func Categories() []QuestionCategory {
	return []QuestionCategory{
		CategoryMotivational,
		CategoryBehavioral,
		CategoryTechnical,
		CategoryPersonality,
	}
}

// ParseCategory matches a raw string against the known categories,
// case-insensitively. Unknown values fall back to DefaultCategory.
func ParseCategory(raw string) QuestionCategory {
	for _, c := range Categories() {
		if strings.EqualFold(strings.TrimSpace(raw), string(c)) {
			return c
		}
	}
	return DefaultCategory
}

// JobStatus tracks where a job application stands.
type JobStatus string

const (
	StatusDrafted      JobStatus = "Drafted"
	StatusSubmitted    JobStatus = "Submitted"
	StatusInterviewing JobStatus = "Interviewing"
	StatusOffer        JobStatus = "Offer"
	StatusRejected     JobStatus = "Rejected"
)

// JobStatuses lists every valid application status.
func JobStatuses() []JobStatus {
	return []JobStatus{StatusDrafted, StatusSubmitted, StatusInterviewing, StatusOffer, StatusRejected}
}

// ValidateJobStatus rejects status values outside the fixed enumeration.
func ValidateJobStatus(raw string) (JobStatus, error) {
	for _, s := range JobStatuses() {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid job status: %q", raw)
}

// Question is a single generated interview question. Immutable once
// generated; its identity is the session-scoped ID.
type Question struct {
	ID          string           `bson:"id" json:"id"`
	Text        string           `bson:"text" json:"text"`
	Category    QuestionCategory `bson:"category" json:"category"`
	JobSpecific bool             `bson:"job_specific" json:"jobSpecific"`
	JobID       string           `bson:"job_id,omitempty" json:"jobId,omitempty"`
}

// PracticeSession is one practice run of sequential questions for one
// user. Created empty; questions are populated lazily on first load.
// Version guards against concurrent writes from two tabs or devices.
type PracticeSession struct {
	ID                   string             `bson:"_id" json:"id"`
	UserID               string             `bson:"user_id" json:"userId"`
	JobID                string             `bson:"job_id,omitempty" json:"jobId,omitempty"`
	Categories           []QuestionCategory `bson:"categories" json:"categories"`
	Questions            []Question         `bson:"questions" json:"questions"`
	CurrentQuestionIndex int                `bson:"current_question_index" json:"currentQuestionIndex"`
	Version              int64              `bson:"version" json:"version"`
	CreatedAt            time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Generated reports whether the session already carries questions. A
// session without questions triggers generation exactly once per load.
func (s *PracticeSession) Generated() bool {
	return len(s.Questions) > 0
}

// ClampedIndex returns CurrentQuestionIndex clamped to a valid position
// in Questions. Only meaningful once the session is generated.
func (s *PracticeSession) ClampedIndex() int {
	if len(s.Questions) == 0 {
		return 0
	}
	idx := s.CurrentQuestionIndex
	if idx < 0 {
		return 0
	}
	if idx >= len(s.Questions) {
		return len(s.Questions) - 1
	}
	return idx
}

// Answer is a durable record of an answered question. Sessions are
// disposable; answers live in the user's library independently.
type Answer struct {
	ID           string           `bson:"_id" json:"id"`
	UserID       string           `bson:"user_id" json:"userId"`
	QuestionID   string           `bson:"question_id" json:"questionId"`
	QuestionText string           `bson:"question_text" json:"questionText"`
	AnswerText   string           `bson:"answer_text" json:"answerText"`
	Category     QuestionCategory `bson:"category" json:"category"`
	Feedback     string           `bson:"feedback" json:"feedback"`
	Tags         []string         `bson:"tags" json:"tags"`
	JobID        string           `bson:"job_id,omitempty" json:"jobId,omitempty"`
	IsFavorite   bool             `bson:"is_favorite" json:"isFavorite"`
	CreatedAt    time.Time        `bson:"created_at" json:"createdAt"`
}

// Job is a tracked job application, optionally used to scope a session.
type Job struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"user_id" json:"userId"`
	Title       string    `bson:"title" json:"title"`
	Company     string    `bson:"company" json:"company"`
	Description string    `bson:"description" json:"description"`
	Status      JobStatus `bson:"status" json:"status"`
	Notes       string    `bson:"notes" json:"notes"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// UserProfile is the structured resume used to personalize AI calls.
// The profile is a hard prerequisite for question generation.
type UserProfile struct {
	UserID           string            `bson:"_id" json:"userId"`
	Summary          string            `bson:"summary" json:"summary"`
	Education        []Education       `bson:"education" json:"education"`
	WorkExperience   []WorkExperience  `bson:"work_experience" json:"workExperience"`
	Projects         []Project         `bson:"projects" json:"projects"`
	Skills           []string          `bson:"skills" json:"skills"`
	Extracurriculars []Extracurricular `bson:"extracurriculars" json:"extracurriculars"`
	UpdatedAt        time.Time         `bson:"updated_at" json:"updatedAt"`
}

type Education struct {
	School    string `bson:"school" json:"school"`
	Degree    string `bson:"degree" json:"degree"`
	Field     string `bson:"field" json:"field"`
	StartYear int    `bson:"start_year" json:"startYear"`
	EndYear   int    `bson:"end_year,omitempty" json:"endYear,omitempty"`
}

type WorkExperience struct {
	Company     string `bson:"company" json:"company"`
	Title       string `bson:"title" json:"title"`
	Start       string `bson:"start" json:"start"`
	End         string `bson:"end,omitempty" json:"end,omitempty"`
	Description string `bson:"description" json:"description"`
}

type Project struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	Link        string `bson:"link,omitempty" json:"link,omitempty"`
}

type Extracurricular struct {
	Name        string `bson:"name" json:"name"`
	Role        string `bson:"role" json:"role"`
	Description string `bson:"description" json:"description"`
}

// User is the authenticated account record.
type User struct {
	ID          string    `bson:"_id" json:"id"`
	Email       string    `bson:"email" json:"email"`
	DisplayName string    `bson:"display_name" json:"displayName"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

// Token is a bearer token granting API access for a user.
type Token struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
