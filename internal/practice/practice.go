// Package practice implements the practice-session workflow: loading a
// session, generating its questions exactly once, walking the user
// through answer capture and feedback, and advancing through the list.
package practice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThePeeKayy/resumate-orbital/internal/ai"
	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/ThePeeKayy/resumate-orbital/internal/store"
	"go.uber.org/zap"
)

const (
	// DefaultQuestionCount is the number of questions requested per
	// session unless configured otherwise.
	DefaultQuestionCount = 5

	defaultCallTimeout = 60 * time.Second
)

var (
	// ErrSessionNotFound means the session id resolves to nothing.
	ErrSessionNotFound = errors.New("practice session not found")
	// ErrNotSessionOwner means the session exists but belongs to a
	// different user. Treated the same as not found by callers that
	// should not leak existence.
	ErrNotSessionOwner = errors.New("practice session belongs to another user")
	// ErrProfileRequired means the user has no profile yet. A profile
	// is a hard prerequisite for question generation.
	ErrProfileRequired = errors.New("user profile is required before practicing")
)

// GenerationError marks a failed question generation. The session
// stays ungenerated; reloading it retries generation.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("question generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Store is the slice of the document store the workflow needs.
type Store interface {
	GetSession(ctx context.Context, id string) (*models.PracticeSession, error)
	SetSessionQuestions(ctx context.Context, id string, version int64, questions []models.Question) error
	AdvanceSession(ctx context.Context, id string, version int64, questions []models.Question, index int) error
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	CreateAnswer(ctx context.Context, answer *models.Answer) (string, error)
}

// Config tunes the workflow.
type Config struct {
	// QuestionCount is the number of questions requested from the AI.
	// The AI may return fewer; extras are truncated.
	QuestionCount int
	// CallTimeout bounds every AI call so a hung request never blocks
	// the caller indefinitely.
	CallTimeout time.Duration
}

// Deps aggregates the workflow's collaborators.
type Deps struct {
	Store     Store
	Assistant ai.Assistant
	Logger    *zap.Logger
}

type Workflow struct {
	store     Store
	assistant ai.Assistant
	logger    *zap.Logger

	questionCount int
	callTimeout   time.Duration
	now           func() time.Time
}

func NewWorkflow(cfg *Config, deps *Deps) *Workflow {
	count := DefaultQuestionCount
	timeout := defaultCallTimeout
	if cfg != nil {
		if cfg.QuestionCount > 0 {
			count = cfg.QuestionCount
		}
		if cfg.CallTimeout > 0 {
			timeout = cfg.CallTimeout
		}
	}

	return &Workflow{
		store:         deps.Store,
		assistant:     deps.Assistant,
		logger:        deps.Logger,
		questionCount: count,
		callTimeout:   timeout,
		now:           time.Now,
	}
}

// Session is a loaded practice session bound to its profile and
// optional job context.
type Session struct {
	w       *Workflow
	record  *models.PracticeSession
	profile *models.UserProfile
	job     *models.Job
}

// Bootstrap loads the session for the acting user, resolving the
// profile (required) and job (best effort), and generates the question
// list exactly once when the session is still empty.
func (w *Workflow) Bootstrap(ctx context.Context, sessionID, userID string) (*Session, error) {
	record, err := w.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if record.UserID != userID {
		return nil, ErrNotSessionOwner
	}

	profile, err := w.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProfileRequired
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var job *models.Job
	if record.JobID != "" {
		// A vanished job degrades personalization but never blocks
		// general questions from generating.
		job, err = w.store.GetJob(ctx, record.JobID)
		if err != nil {
			w.logger.Warn("session job unavailable, continuing without job context",
				zap.String("session_id", record.ID),
				zap.String("job_id", record.JobID),
				zap.Error(err),
			)
			job = nil
		}
	}

	session := &Session{w: w, record: record, profile: profile, job: job}

	if !record.Generated() {
		if err := session.generateQuestions(ctx); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// generateQuestions calls the AI service and persists the normalized
// result in a single write. No partial state is ever written: an AI
// failure leaves the session ungenerated, and a failed write is
// reported as such (the generated content is lost, but generation is
// idempotent and cheap to repeat on the next load).
func (s *Session) generateQuestions(ctx context.Context) error {
	w := s.w

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	drafts, err := w.assistant.GenerateQuestions(callCtx, s.profile, s.record.Categories, w.questionCount, s.job)
	if err != nil {
		return &GenerationError{Err: err}
	}
	if len(drafts) == 0 {
		return &GenerationError{Err: errors.New("ai returned no questions")}
	}

	questions := w.normalizeDrafts(drafts, s.job)

	if err := w.store.SetSessionQuestions(ctx, s.record.ID, s.record.Version, questions); err != nil {
		return fmt.Errorf("save generated questions: %w", err)
	}

	s.record.Questions = questions
	s.record.CurrentQuestionIndex = 0
	s.record.Version++

	w.logger.Info("generated session questions",
		zap.String("session_id", s.record.ID),
		zap.Int("count", len(questions)),
		zap.Bool("job_specific", s.job != nil),
	)

	return nil
}

// Record returns the underlying session document.
func (s *Session) Record() *models.PracticeSession { return s.record }

func (s *Session) Profile() *models.UserProfile { return s.profile }

func (s *Session) Job() *models.Job { return s.job }

// Current returns the active question, clamping a stale stored index
// into range.
func (s *Session) Current() models.Question {
	return s.record.Questions[s.record.ClampedIndex()]
}

// Position reports the 1-based question number and the total, for
// "Question 2 of 5" style display.
func (s *Session) Position() (current, total int) {
	return s.record.ClampedIndex() + 1, len(s.record.Questions)
}

// Completed reports whether the user has advanced past the final
// question. Completion is inferred from the index; no terminal flag is
// persisted.
func (s *Session) Completed() bool {
	return s.record.CurrentQuestionIndex >= len(s.record.Questions)
}

// Advance moves to the next question, re-sanitizing the full question
// list on the way out and persisting the new index. When no questions
// remain the session is complete and nothing is written. A persistence
// failure leaves the in-memory index untouched so the user can retry.
func (s *Session) Advance(ctx context.Context) (done bool, err error) {
	next := s.record.ClampedIndex() + 1
	if next >= len(s.record.Questions) {
		s.record.CurrentQuestionIndex = next
		return true, nil
	}

	sanitized := s.w.sanitizeQuestions(s.record.Questions)

	if err := s.w.store.AdvanceSession(ctx, s.record.ID, s.record.Version, sanitized, next); err != nil {
		return false, fmt.Errorf("advance session: %w", err)
	}

	s.record.Questions = sanitized
	s.record.CurrentQuestionIndex = next
	s.record.Version++

	return false, nil
}
