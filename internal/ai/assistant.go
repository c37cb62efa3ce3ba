package ai

import (
	"context"

	"github.com/ThePeeKayy/resumate-orbital/internal/models"
)

// QuestionDraft is a raw question as returned by the AI service. No
// field is guaranteed; the practice workflow normalizes drafts into
// canonical questions.
type QuestionDraft struct {
	Text     string `mapstructure:"text"`
	Category string `mapstructure:"category"`
}

// Assistant is the AI collaborator behind the practice workflow. Every
// call is stateless request/response; callers own timeouts and
// cancellation through ctx.
type Assistant interface {
	// GenerateQuestions produces up to count interview questions
	// tailored to the profile, categories and optional job.
	GenerateQuestions(ctx context.Context, profile *models.UserProfile, categories []models.QuestionCategory, count int, job *models.Job) ([]QuestionDraft, error)

	// AnswerFeedback critiques an answer to a question.
	AnswerFeedback(ctx context.Context, questionText, answerText string, profile *models.UserProfile, job *models.Job) (string, error)

	// SuggestTags proposes library tags for an answered question.
	SuggestTags(ctx context.Context, questionText, answerText string, job *models.Job) ([]string, error)

	// EnhanceText rewrites a profile section for clarity and impact.
	EnhanceText(ctx context.Context, section, text string) (string, error)
}
