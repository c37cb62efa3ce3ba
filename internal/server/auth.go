package server

import (
	"errors"
	"strings"
	"time"

	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/ThePeeKayy/resumate-orbital/internal/store"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const tokenTTL = 30 * 24 * time.Hour

const userIDKey = "userID"

// requireAuth resolves the bearer token to a user and stores the user
// id on the request context.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || token == header {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	userID, err := s.store.UserIDByToken(c.Context(), token)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
	}
	if err != nil {
		return s.fail(c, err)
	}

	c.Locals(userIDKey, userID)
	return c.Next()
}

// requireProfile gates the practice routes: without a profile the user
// is sent back to profile setup instead of into a session.
func (s *Server) requireProfile(c *fiber.Ctx) error {
	userID := s.userID(c)

	if _, err := s.store.GetProfile(c.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusPreconditionFailed).JSON(fiber.Map{"error": "profile setup is required"})
		}
		return s.fail(c, err)
	}

	return c.Next()
}

func (s *Server) userID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "email is required"})
	}

	user := &models.User{Email: req.Email, DisplayName: strings.TrimSpace(req.DisplayName)}
	userID, err := s.store.CreateUser(c.Context(), user)
	if err != nil {
		return s.fail(c, err)
	}

	token, err := s.store.CreateToken(c.Context(), userID, tokenTTL)
	if err != nil {
		return s.fail(c, err)
	}

	s.logger.Info("registered user", zap.String("user_id", userID))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"userId":    userID,
		"token":     token.ID,
		"expiresAt": token.ExpiresAt,
	})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	user, err := s.store.GetUser(c.Context(), s.userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(user)
}
