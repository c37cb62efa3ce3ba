package server

import (
	"context"
	"strings"
	"time"

	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/gofiber/fiber/v2"
)

const enhanceTimeout = 60 * time.Second

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	profile, err := s.store.GetProfile(c.Context(), s.userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(profile)
}

func (s *Server) handlePutProfile(c *fiber.Ctx) error {
	var profile models.UserProfile
	if err := c.BodyParser(&profile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	profile.UserID = s.userID(c)

	if err := s.store.UpsertProfile(c.Context(), &profile); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(profile)
}

type enhanceRequest struct {
	Section string `json:"section"`
	Text    string `json:"text"`
}

// handleEnhanceProfile rewrites a profile section with the AI. Purely
// advisory: the result is returned to the client, nothing is persisted
// until the user saves the profile.
func (s *Server) handleEnhanceProfile(c *fiber.Ctx) error {
	var req enhanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "text is required"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), enhanceTimeout)
	defer cancel()

	enhanced, err := s.assistant.EnhanceText(ctx, req.Section, req.Text)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{"enhanced": enhanced})
}
