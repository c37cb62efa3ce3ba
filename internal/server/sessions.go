package server

import (
	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/ThePeeKayy/resumate-orbital/internal/practice"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.store.ListSessions(c.Context(), s.userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(sessions)
}

type createSessionRequest struct {
	Categories []string `json:"categories"`
	JobID      string   `json:"jobId"`
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if len(req.Categories) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "select at least one question category"})
	}

	categories := make([]models.QuestionCategory, 0, len(req.Categories))
	seen := make(map[models.QuestionCategory]struct{})
	for _, raw := range req.Categories {
		category := models.ParseCategory(raw)
		if _, dup := seen[category]; dup {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}

	userID := s.userID(c)

	if req.JobID != "" {
		job, err := s.store.GetJob(c.Context(), req.JobID)
		if err != nil {
			return s.fail(c, err)
		}
		if job.UserID != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "job belongs to another user"})
		}
	}

	session, err := s.store.CreateSession(c.Context(), userID, categories, req.JobID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

type sessionResponse struct {
	Session   *models.PracticeSession `json:"session"`
	Question  *models.Question        `json:"question,omitempty"`
	Position  int                     `json:"position"`
	Total     int                     `json:"total"`
	Completed bool                    `json:"completed"`
	Job       *models.Job             `json:"job,omitempty"`
}

// handleGetSession is the bootstrap endpoint: loading an ungenerated
// session triggers question generation exactly once; a generated one
// resumes at its stored (clamped) index.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	session, err := s.workflow.Bootstrap(c.Context(), c.Params("id"), s.userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(sessionView(session))
}

func sessionView(session *practice.Session) sessionResponse {
	position, total := session.Position()
	resp := sessionResponse{
		Session:   session.Record(),
		Position:  position,
		Total:     total,
		Completed: session.Completed(),
		Job:       session.Job(),
	}
	if !session.Completed() {
		question := session.Current()
		resp.Question = &question
	}
	return resp
}

type feedbackRequest struct {
	Answer string `json:"answer"`
}

type feedbackResponse struct {
	Feedback      string   `json:"feedback"`
	Fallback      bool     `json:"fallback"`
	SuggestedTags []string `json:"suggestedTags"`
}

// handleSessionFeedback runs the feedback half of a capture turn. A
// feedback failure is recovered: the response still carries the
// fallback text and the deterministic default tags so the client can
// proceed to saving.
func (s *Server) handleSessionFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	session, err := s.workflow.Bootstrap(c.Context(), c.Params("id"), s.userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	turn := session.NewTurn()
	if err := turn.SetAnswer(req.Answer); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	if err := turn.RequestFeedback(c.Context()); err != nil {
		if turn.State() != practice.StateTagging {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		// Recovered failure: fallback feedback plus default tags.
		s.logger.Warn("feedback recovered with fallback", zap.Error(err))
		return c.JSON(feedbackResponse{
			Feedback:      turn.Feedback(),
			Fallback:      true,
			SuggestedTags: practice.DefaultTags(turn.Question().Category),
		})
	}

	return c.JSON(feedbackResponse{
		Feedback:      turn.Feedback(),
		Fallback:      turn.FeedbackIsFallback(),
		SuggestedTags: turn.SuggestedTags(),
	})
}

type saveAnswerRequest struct {
	Answer   string   `json:"answer"`
	Feedback string   `json:"feedback"`
	Tags     []string `json:"tags"`
}

func (s *Server) handleSaveSessionAnswer(c *fiber.Ctx) error {
	var req saveAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	session, err := s.workflow.Bootstrap(c.Context(), c.Params("id"), s.userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	turn := session.NewTurn()
	if err := turn.RestoreFeedback(req.Answer, req.Feedback, req.Tags); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	answer, err := turn.Save(c.Context())
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(answer)
}

// handleAdvanceSession moves the session to the next question. Both the
// save-then-advance and skip paths land here; an exhausted list reports
// completion without writing.
func (s *Server) handleAdvanceSession(c *fiber.Ctx) error {
	session, err := s.workflow.Bootstrap(c.Context(), c.Params("id"), s.userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	done, err := session.Advance(c.Context())
	if err != nil {
		return s.fail(c, err)
	}

	if done {
		return c.JSON(fiber.Map{"completed": true})
	}

	return c.JSON(sessionView(session))
}
