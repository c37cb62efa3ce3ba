package practice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ThePeeKayy/resumate-orbital/internal/ai"
	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/ThePeeKayy/resumate-orbital/internal/store"
	"go.uber.org/zap"
)

type fakeStore struct {
	sessions map[string]*models.PracticeSession
	profiles map[string]*models.UserProfile
	jobs     map[string]*models.Job
	answers  []*models.Answer

	setQuestionsCalls int
	advanceCalls      int
	failWrites        bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*models.PracticeSession),
		profiles: make(map[string]*models.UserProfile),
		jobs:     make(map[string]*models.Job),
	}
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (*models.PracticeSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	copied.Questions = append([]models.Question(nil), s.Questions...)
	return &copied, nil
}

func (f *fakeStore) SetSessionQuestions(ctx context.Context, id string, version int64, questions []models.Question) error {
	f.setQuestionsCalls++
	if f.failWrites {
		return errors.New("write failed")
	}
	s, ok := f.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	if s.Version != version {
		return store.ErrConflict
	}
	s.Questions = append([]models.Question(nil), questions...)
	s.CurrentQuestionIndex = 0
	s.Version++
	return nil
}

func (f *fakeStore) AdvanceSession(ctx context.Context, id string, version int64, questions []models.Question, index int) error {
	f.advanceCalls++
	if f.failWrites {
		return errors.New("write failed")
	}
	s, ok := f.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	if s.Version != version {
		return store.ErrConflict
	}
	s.Questions = append([]models.Question(nil), questions...)
	s.CurrentQuestionIndex = index
	s.Version++
	return nil
}

func (f *fakeStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return j, nil
}

func (f *fakeStore) CreateAnswer(ctx context.Context, answer *models.Answer) (string, error) {
	if f.failWrites {
		return "", errors.New("write failed")
	}
	answer.ID = fmt.Sprintf("answer-%d", len(f.answers)+1)
	f.answers = append(f.answers, answer)
	return answer.ID, nil
}

type stubAssistant struct {
	generateCalls int
	drafts        []ai.QuestionDraft
	generateErr   error
	lastJob       *models.Job

	feedback    string
	feedbackErr error

	tags    []string
	tagsErr error
}

func (s *stubAssistant) GenerateQuestions(ctx context.Context, profile *models.UserProfile, categories []models.QuestionCategory, count int, job *models.Job) ([]ai.QuestionDraft, error) {
	s.generateCalls++
	s.lastJob = job
	return s.drafts, s.generateErr
}

func (s *stubAssistant) AnswerFeedback(ctx context.Context, questionText, answerText string, profile *models.UserProfile, job *models.Job) (string, error) {
	return s.feedback, s.feedbackErr
}

func (s *stubAssistant) SuggestTags(ctx context.Context, questionText, answerText string, job *models.Job) ([]string, error) {
	return s.tags, s.tagsErr
}

func (s *stubAssistant) EnhanceText(ctx context.Context, section, text string) (string, error) {
	return text, nil
}

func drafts(n int) []ai.QuestionDraft {
	out := make([]ai.QuestionDraft, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ai.QuestionDraft{
			Text:     fmt.Sprintf("Draft question %d", i+1),
			Category: "Technical",
		})
	}
	return out
}

func testWorkflow(st *fakeStore, assistant *stubAssistant, count int) *Workflow {
	w := NewWorkflow(&Config{QuestionCount: count}, &Deps{
		Store:     st,
		Assistant: assistant,
		Logger:    zap.NewNop(),
	})
	w.now = func() time.Time { return time.Unix(1700000000, 0) }
	return w
}

func seedSession(st *fakeStore, jobID string) *models.PracticeSession {
	session := &models.PracticeSession{
		ID:         "session-1",
		UserID:     "user-1",
		JobID:      jobID,
		Categories: []models.QuestionCategory{models.CategoryTechnical},
		Version:    1,
	}
	st.sessions[session.ID] = session
	st.profiles["user-1"] = &models.UserProfile{UserID: "user-1", Summary: "engineer"}
	return session
}

func TestBootstrapGeneratesExactlyOnce(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "")
	assistant := &stubAssistant{drafts: drafts(5)}
	w := testWorkflow(st, assistant, 5)

	session, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if assistant.generateCalls != 1 {
		t.Fatalf("expected 1 generation call, got %d", assistant.generateCalls)
	}
	if st.setQuestionsCalls != 1 {
		t.Fatalf("expected 1 question write, got %d", st.setQuestionsCalls)
	}
	if got := len(session.Record().Questions); got != 5 {
		t.Fatalf("expected 5 questions, got %d", got)
	}
	if session.Record().CurrentQuestionIndex != 0 {
		t.Fatalf("expected index 0, got %d", session.Record().CurrentQuestionIndex)
	}

	// A second load of the now-generated session must not call the AI.
	if _, err := w.Bootstrap(context.Background(), "session-1", "user-1"); err != nil {
		t.Fatalf("expected no error on reload, got %v", err)
	}
	if assistant.generateCalls != 1 {
		t.Fatalf("expected generation to happen once, got %d calls", assistant.generateCalls)
	}
}

func TestBootstrapTruncatesExtraDrafts(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "")
	assistant := &stubAssistant{drafts: drafts(9)}
	w := testWorkflow(st, assistant, 5)

	session, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := len(session.Record().Questions); got != 5 {
		t.Fatalf("expected 5 questions after truncation, got %d", got)
	}
}

func TestBootstrapAcceptsFewerDrafts(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "")
	assistant := &stubAssistant{drafts: drafts(3)}
	w := testWorkflow(st, assistant, 5)

	session, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := len(session.Record().Questions); got != 3 {
		t.Fatalf("expected 3 questions, got %d", got)
	}
}

func TestNormalizationFillsMissingFields(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "job-1")
	st.jobs["job-1"] = &models.Job{ID: "job-1", UserID: "user-1", Title: "SRE", Company: "Acme"}

	assistant := &stubAssistant{drafts: []ai.QuestionDraft{
		{Text: "", Category: ""},
		{Text: "  ", Category: "nonsense"},
		{Text: "Real question", Category: "technical"},
	}}
	w := testWorkflow(st, assistant, 5)

	session, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	questions := session.Record().Questions
	if questions[0].Text != "Question 1" || questions[1].Text != "Question 2" {
		t.Fatalf("expected placeholder texts, got %q and %q", questions[0].Text, questions[1].Text)
	}
	if questions[0].Category != models.DefaultCategory || questions[1].Category != models.DefaultCategory {
		t.Fatalf("expected default categories, got %q and %q", questions[0].Category, questions[1].Category)
	}
	if questions[2].Category != models.CategoryTechnical {
		t.Fatalf("expected case-insensitive category match, got %q", questions[2].Category)
	}

	for i, q := range questions {
		if q.ID == "" {
			t.Fatalf("question %d has empty id", i)
		}
		if !q.JobSpecific || q.JobID != "job-1" {
			t.Fatalf("question %d should be job-specific: %+v", i, q)
		}
	}
}

func TestBootstrapWithoutJobGeneratesGeneralQuestions(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "")
	assistant := &stubAssistant{drafts: drafts(2)}
	w := testWorkflow(st, assistant, 5)

	session, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if assistant.lastJob != nil {
		t.Fatalf("expected no job context, got %+v", assistant.lastJob)
	}
	for _, q := range session.Record().Questions {
		if q.JobSpecific || q.JobID != "" {
			t.Fatalf("expected general question, got %+v", q)
		}
	}
}

func TestBootstrapContinuesWhenJobVanished(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "job-gone")
	assistant := &stubAssistant{drafts: drafts(2)}
	w := testWorkflow(st, assistant, 5)

	session, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if session.Job() != nil {
		t.Fatal("expected nil job after lookup failure")
	}
	if assistant.lastJob != nil {
		t.Fatal("expected generation without job context")
	}
}

func TestBootstrapErrors(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "")
	w := testWorkflow(st, &stubAssistant{drafts: drafts(1)}, 5)

	if _, err := w.Bootstrap(context.Background(), "missing", "user-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if _, err := w.Bootstrap(context.Background(), "session-1", "intruder"); !errors.Is(err, ErrNotSessionOwner) {
		t.Fatalf("expected ErrNotSessionOwner, got %v", err)
	}

	delete(st.profiles, "user-1")
	if _, err := w.Bootstrap(context.Background(), "session-1", "user-1"); !errors.Is(err, ErrProfileRequired) {
		t.Fatalf("expected ErrProfileRequired, got %v", err)
	}
}

func TestGenerationFailureLeavesSessionUngenerated(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "")
	assistant := &stubAssistant{generateErr: errors.New("ai down")}
	w := testWorkflow(st, assistant, 5)

	_, err := w.Bootstrap(context.Background(), "session-1", "user-1")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if st.setQuestionsCalls != 0 {
		t.Fatalf("expected no write after AI failure, got %d", st.setQuestionsCalls)
	}
	if st.sessions["session-1"].Generated() {
		t.Fatal("session must stay ungenerated after failure")
	}

	// Recovery: the next load retries and succeeds.
	assistant.generateErr = nil
	assistant.drafts = drafts(5)
	if _, err := w.Bootstrap(context.Background(), "session-1", "user-1"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestEmptyDraftsIsGenerationError(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "")
	w := testWorkflow(st, &stubAssistant{}, 5)

	_, err := w.Bootstrap(context.Background(), "session-1", "user-1")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError for empty drafts, got %v", err)
	}
}

func TestAdvancePastLastQuestion(t *testing.T) {
	for _, length := range []int{1, 5, 100} {
		t.Run(fmt.Sprintf("length_%d", length), func(t *testing.T) {
			st := newFakeStore()
			seedSession(st, "")
			assistant := &stubAssistant{drafts: drafts(length)}
			w := testWorkflow(st, assistant, length)

			session, err := w.Bootstrap(context.Background(), "session-1", "user-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			for i := 0; i < length-1; i++ {
				done, err := session.Advance(context.Background())
				if err != nil {
					t.Fatalf("advance %d: %v", i, err)
				}
				if done {
					t.Fatalf("advance %d reported completion early", i)
				}
			}

			done, err := session.Advance(context.Background())
			if err != nil {
				t.Fatalf("final advance: %v", err)
			}
			if !done {
				t.Fatal("expected completion after last question")
			}
			if !session.Completed() {
				t.Fatal("expected session to report completed")
			}
		})
	}
}

func TestAdvanceSanitizesQuestions(t *testing.T) {
	st := newFakeStore()
	session := seedSession(st, "")
	wellFormed := models.Question{ID: "q-2", Text: "Fine", Category: models.CategoryTechnical}
	session.Questions = []models.Question{
		{ID: "", Text: "  ", Category: "weird"},
		wellFormed,
	}

	w := testWorkflow(st, &stubAssistant{}, 5)

	loaded, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := loaded.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}

	stored := st.sessions["session-1"].Questions
	if stored[0].ID == "" {
		t.Fatal("expected generated id for blank question id")
	}
	if stored[0].Text != "Interview question" {
		t.Fatalf("expected placeholder text, got %q", stored[0].Text)
	}
	if stored[0].Category != models.DefaultCategory {
		t.Fatalf("expected default category, got %q", stored[0].Category)
	}
	if stored[1] != wellFormed {
		t.Fatalf("well-formed question must survive untouched: %+v", stored[1])
	}
}

func TestAdvanceFailureKeepsIndex(t *testing.T) {
	st := newFakeStore()
	session := seedSession(st, "")
	session.Questions = []models.Question{
		{ID: "q-1", Text: "One", Category: models.CategoryTechnical},
		{ID: "q-2", Text: "Two", Category: models.CategoryTechnical},
	}

	w := testWorkflow(st, &stubAssistant{}, 5)

	loaded, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	st.failWrites = true
	if _, err := loaded.Advance(context.Background()); err == nil {
		t.Fatal("expected advance to fail")
	}

	if loaded.Record().CurrentQuestionIndex != 0 {
		t.Fatalf("index must not move on failed write, got %d", loaded.Record().CurrentQuestionIndex)
	}

	st.failWrites = false
	done, err := loaded.Advance(context.Background())
	if err != nil {
		t.Fatalf("retry advance: %v", err)
	}
	if done {
		t.Fatal("expected one more question after retry")
	}
}

func TestStaleIndexIsClamped(t *testing.T) {
	st := newFakeStore()
	session := seedSession(st, "")
	session.Questions = []models.Question{
		{ID: "q-1", Text: "One", Category: models.CategoryTechnical},
		{ID: "q-2", Text: "Two", Category: models.CategoryTechnical},
	}
	session.CurrentQuestionIndex = 17

	w := testWorkflow(st, &stubAssistant{}, 5)

	loaded, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := loaded.Current().ID; got != "q-2" {
		t.Fatalf("expected clamp to last question, got %q", got)
	}
	position, total := loaded.Position()
	if position != 2 || total != 2 {
		t.Fatalf("expected position 2 of 2, got %d of %d", position, total)
	}
}

func TestVersionConflictSurfacesOnAdvance(t *testing.T) {
	st := newFakeStore()
	session := seedSession(st, "")
	session.Questions = []models.Question{
		{ID: "q-1", Text: "One", Category: models.CategoryTechnical},
		{ID: "q-2", Text: "Two", Category: models.CategoryTechnical},
	}

	w := testWorkflow(st, &stubAssistant{}, 5)

	loaded, err := w.Bootstrap(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Another tab bumps the stored version.
	st.sessions["session-1"].Version++

	if _, err := loaded.Advance(context.Background()); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
