package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"go.uber.org/zap"
)

// TurnState tracks where a single question's capture flow stands.
type TurnState string

const (
	// StateAnswering: free-text input; feedback available once the
	// answer is non-empty. Skipping from here abandons without a save.
	StateAnswering TurnState = "answering"
	// StateTagging: feedback is displayed, suggested tags are
	// selected, and the answer can be saved or discarded.
	StateTagging TurnState = "tagging"
	// StateSaved: the answer record exists; the text is read-only and
	// the only way forward is advancing.
	StateSaved TurnState = "saved"
	// StateAdvanced: the turn is finished and transient state cleared.
	StateAdvanced TurnState = "advanced"
)

// FallbackFeedback is shown when the feedback service fails; the user
// is never left without guidance.
const FallbackFeedback = "I couldn't generate detailed feedback at this time. " +
	"Consider reviewing your answer for clarity, relevance to the question, " +
	"and specific examples that demonstrate your skills and experience."

// DefaultTag is the tag every saved answer carries at minimum.
const DefaultTag = "interview"

// DefaultTags is the deterministic fallback when tag suggestion fails
// or returns nothing.
func DefaultTags(category models.QuestionCategory) []string {
	return []string{DefaultTag, strings.ToLower(string(category))}
}

var errTurnState = errors.New("action not allowed in current turn state")

// Turn is the per-question state machine:
//
//	Answering -> Tagging -> Saved -> Advanced
//
// with skip (Answering -> Advanced) and discard (Tagging -> Answering)
// side paths. A Turn is single-writer; it mirrors one user working one
// question in one tab.
type Turn struct {
	session  *Session
	question models.Question

	state            TurnState
	answer           string
	feedback         string
	fallbackFeedback bool
	suggestedTags    []string
	selectedTags     []string
}

// NewTurn starts a capture turn for the session's current question.
func (s *Session) NewTurn() *Turn {
	return &Turn{
		session:  s,
		question: s.Current(),
		state:    StateAnswering,
	}
}

func (t *Turn) State() TurnState { return t.state }

func (t *Turn) Question() models.Question { return t.question }

func (t *Turn) Answer() string { return t.answer }

func (t *Turn) Feedback() string { return t.feedback }

func (t *Turn) FeedbackIsFallback() bool { return t.fallbackFeedback }

func (t *Turn) SuggestedTags() []string { return t.suggestedTags }

func (t *Turn) SelectedTags() []string { return t.selectedTags }

// SetAnswer updates the draft answer while it is still editable.
func (t *Turn) SetAnswer(text string) error {
	if t.state != StateAnswering {
		return fmt.Errorf("%w: answer is read-only in state %s", errTurnState, t.state)
	}
	t.answer = text
	return nil
}

// RequestFeedback asks the AI to critique the answer and then,
// independently, to suggest tags. A feedback failure is recovered in
// place: the static fallback message is shown, the turn still reaches
// Tagging, and the error is returned so the caller can notify the
// user. A tag-suggestion failure never blocks feedback display; the
// deterministic default tag set is applied instead.
func (t *Turn) RequestFeedback(ctx context.Context) error {
	if t.state != StateAnswering {
		return fmt.Errorf("%w: feedback already requested", errTurnState)
	}
	if strings.TrimSpace(t.answer) == "" {
		return errors.New("answer must not be empty")
	}

	s := t.session
	w := s.w

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	feedback, err := w.assistant.AnswerFeedback(callCtx, t.question.Text, t.answer, s.profile, s.job)
	if err != nil || strings.TrimSpace(feedback) == "" {
		w.logger.Warn("feedback unavailable, using fallback",
			zap.String("session_id", s.record.ID),
			zap.String("question_id", t.question.ID),
			zap.Error(err),
		)

		t.feedback = FallbackFeedback
		t.fallbackFeedback = true
		t.state = StateTagging

		if err == nil {
			err = errors.New("ai returned empty feedback")
		}
		return fmt.Errorf("get feedback: %w", err)
	}

	t.feedback = feedback
	t.fallbackFeedback = false
	t.state = StateTagging
	t.suggestTags(ctx)

	return nil
}

func (t *Turn) suggestTags(ctx context.Context) {
	s := t.session
	w := s.w

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	tags, err := w.assistant.SuggestTags(callCtx, t.question.Text, t.answer, s.job)
	if err != nil || len(tags) == 0 {
		if err != nil {
			w.logger.Warn("tag suggestion failed, using defaults",
				zap.String("question_id", t.question.ID),
				zap.Error(err),
			)
		}
		tags = DefaultTags(t.question.Category)
	}

	// Suggested tags start out selected; the user deselects from there.
	t.suggestedTags = tags
	t.selectedTags = append([]string(nil), tags...)
}

// RestoreFeedback rebuilds a Tagging-state turn from transient state
// the client held on to (answer, feedback and selected tags survive in
// the browser between requests, not on the server).
func (t *Turn) RestoreFeedback(answer, feedback string, selectedTags []string) error {
	if t.state != StateAnswering {
		return fmt.Errorf("%w: turn already has feedback", errTurnState)
	}
	if strings.TrimSpace(answer) == "" {
		return errors.New("answer must not be empty")
	}

	t.answer = answer
	t.feedback = strings.TrimSpace(feedback)
	if t.feedback == "" {
		t.feedback = FallbackFeedback
		t.fallbackFeedback = true
	}

	// Tags are a set; the client's list may carry repeats.
	t.selectedTags = nil
	seen := make(map[string]struct{}, len(selectedTags))
	for _, tag := range selectedTags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		t.selectedTags = append(t.selectedTags, tag)
	}

	t.state = StateTagging
	return nil
}

// ToggleTag selects or deselects a tag.
func (t *Turn) ToggleTag(tag string) error {
	if t.state != StateTagging {
		return fmt.Errorf("%w: tags are not editable in state %s", errTurnState, t.state)
	}

	for i, selected := range t.selectedTags {
		if selected == tag {
			t.selectedTags = append(t.selectedTags[:i], t.selectedTags[i+1:]...)
			return nil
		}
	}
	t.selectedTags = append(t.selectedTags, tag)
	return nil
}

// AddCustomTag adds a user-provided tag. Tags are trimmed,
// case-sensitive, and deduplicated.
func (t *Turn) AddCustomTag(tag string) error {
	if t.state != StateTagging {
		return fmt.Errorf("%w: tags are not editable in state %s", errTurnState, t.state)
	}

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	for _, selected := range t.selectedTags {
		if selected == tag {
			return nil
		}
	}
	t.selectedTags = append(t.selectedTags, tag)
	return nil
}

// Discard throws away the feedback, tags and answer, restarting the
// turn from a blank answer.
func (t *Turn) Discard() error {
	if t.state != StateTagging {
		return fmt.Errorf("%w: nothing to discard in state %s", errTurnState, t.state)
	}

	t.answer = ""
	t.feedback = ""
	t.fallbackFeedback = false
	t.suggestedTags = nil
	t.selectedTags = nil
	t.state = StateAnswering
	return nil
}

// Save persists the answer to the user's library. An answer always
// carries at least the default tag, even when the user cleared every
// suggestion. On persistence failure the turn stays in Tagging so the
// user can safely retry.
func (t *Turn) Save(ctx context.Context) (*models.Answer, error) {
	if t.state != StateTagging {
		return nil, fmt.Errorf("%w: cannot save in state %s", errTurnState, t.state)
	}

	s := t.session

	tags := t.selectedTags
	if len(tags) == 0 {
		tags = []string{DefaultTag}
	}

	answer := &models.Answer{
		UserID:       s.record.UserID,
		QuestionID:   t.question.ID,
		QuestionText: t.question.Text,
		AnswerText:   t.answer,
		Category:     t.question.Category,
		Feedback:     t.feedback,
		Tags:         tags,
		IsFavorite:   false,
	}
	if s.job != nil {
		answer.JobID = s.job.ID
	}

	if _, err := s.w.store.CreateAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	t.state = StateSaved
	return answer, nil
}

// Skip abandons the current question without saving and advances.
func (t *Turn) Skip(ctx context.Context) (done bool, err error) {
	if t.state != StateAnswering {
		return false, fmt.Errorf("%w: skip is only available before feedback", errTurnState)
	}
	return t.advance(ctx)
}

// Next advances after a successful save.
func (t *Turn) Next(ctx context.Context) (done bool, err error) {
	if t.state != StateSaved {
		return false, fmt.Errorf("%w: save the answer before advancing", errTurnState)
	}
	return t.advance(ctx)
}

// advance delegates to the session and clears all transient turn state
// regardless of whether the turn was saved or skipped.
func (t *Turn) advance(ctx context.Context) (bool, error) {
	done, err := t.session.Advance(ctx)
	if err != nil {
		return false, err
	}

	t.answer = ""
	t.feedback = ""
	t.fallbackFeedback = false
	t.suggestedTags = nil
	t.selectedTags = nil
	t.state = StateAdvanced

	return done, nil
}
