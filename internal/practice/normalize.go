package practice

import (
	"fmt"
	"strings"

	"github.com/ThePeeKayy/resumate-orbital/internal/ai"
	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/google/uuid"
)

// normalizeDrafts coerces raw AI drafts into canonical questions:
// fresh session-scoped ids, placeholder text when missing, the default
// category when missing or unrecognized, and job linkage when the
// session targets a job. Extra drafts beyond the requested count are
// dropped.
func (w *Workflow) normalizeDrafts(drafts []ai.QuestionDraft, job *models.Job) []models.Question {
	if len(drafts) > w.questionCount {
		drafts = drafts[:w.questionCount]
	}

	stamp := w.now().UnixMilli()
	questions := make([]models.Question, 0, len(drafts))
	for i, draft := range drafts {
		q := models.Question{
			ID:          fmt.Sprintf("q-%d-%d", stamp, i),
			Text:        strings.TrimSpace(draft.Text),
			Category:    models.ParseCategory(draft.Category),
			JobSpecific: job != nil,
		}

		if q.Text == "" {
			q.Text = fmt.Sprintf("Question %d", i+1)
		}
		if job != nil {
			q.JobID = job.ID
		}

		questions = append(questions, q)
	}

	return questions
}

// sanitizeQuestions re-applies the generation defaults to the full
// question list before it is written back. This runs on every
// advancement write, not just at generation time, so a partially
// malformed entry picked up during the session never persists.
func (w *Workflow) sanitizeQuestions(questions []models.Question) []models.Question {
	sanitized := make([]models.Question, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			q.ID = fmt.Sprintf("q-%d-%s", w.now().UnixMilli(), uuid.NewString()[:8])
		}
		if strings.TrimSpace(q.Text) == "" {
			q.Text = "Interview question"
		}
		q.Category = models.ParseCategory(string(q.Category))
		sanitized[i] = q
	}
	return sanitized
}
