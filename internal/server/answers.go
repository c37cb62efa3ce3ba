package server

import (
	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/ThePeeKayy/resumate-orbital/internal/store"
	"github.com/gofiber/fiber/v2"
)

// handleListAnswers serves the answer library with optional tag,
// category, job and favorite filters.
func (s *Server) handleListAnswers(c *fiber.Ctx) error {
	filter := store.AnswerFilter{
		Tag:      c.Query("tag"),
		JobID:    c.Query("job"),
		Favorite: c.QueryBool("favorite"),
	}
	if raw := c.Query("category"); raw != "" {
		filter.Category = models.ParseCategory(raw)
	}

	answers, err := s.store.ListAnswers(c.Context(), s.userID(c), filter)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(answers)
}

func (s *Server) handleGetAnswer(c *fiber.Ctx) error {
	answer, err := s.store.GetAnswer(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if answer.UserID != s.userID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	return c.JSON(answer)
}

type favoriteRequest struct {
	Favorite bool `json:"favorite"`
}

func (s *Server) handleFavoriteAnswer(c *fiber.Ctx) error {
	var req favoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.store.SetAnswerFavorite(c.Context(), c.Params("id"), s.userID(c), req.Favorite); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{"id": c.Params("id"), "favorite": req.Favorite})
}

// handleStats powers the dashboard: job counts by status plus totals
// for answers and sessions.
func (s *Server) handleStats(c *fiber.Ctx) error {
	userID := s.userID(c)

	jobCounts, err := s.store.CountJobsByStatus(c.Context(), userID)
	if err != nil {
		return s.fail(c, err)
	}

	answers, err := s.store.CountAnswers(c.Context(), userID)
	if err != nil {
		return s.fail(c, err)
	}

	sessions, err := s.store.CountSessions(c.Context(), userID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"jobs":     jobCounts,
		"answers":  answers,
		"sessions": sessions,
	})
}
