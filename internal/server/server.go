// Package server exposes the HTTP API: auth, profile, jobs, the answer
// library and the practice-session workflow.
package server

import (
	"context"
	"errors"

	"github.com/ThePeeKayy/resumate-orbital/internal/ai"
	"github.com/ThePeeKayy/resumate-orbital/internal/practice"
	"github.com/ThePeeKayy/resumate-orbital/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

type Config struct {
	Address string
}

type Deps struct {
	Store     *store.Store
	Assistant ai.Assistant
	Workflow  *practice.Workflow
	Logger    *zap.Logger
}

type Server struct {
	app       *fiber.App
	address   string
	store     *store.Store
	assistant ai.Assistant
	workflow  *practice.Workflow
	logger    *zap.Logger
}

func New(cfg *Config, deps *Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "resumate",
		DisableStartupMessage: true,
	})

	s := &Server{
		app:       app,
		address:   cfg.Address,
		store:     deps.Store,
		assistant: deps.Assistant,
		workflow:  deps.Workflow,
		logger:    deps.Logger,
	}

	app.Use(fiberlogger.New())
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	api.Get("/health", s.handleHealth)
	api.Post("/auth/register", s.handleRegister)

	authed := api.Group("", s.requireAuth)

	authed.Get("/me", s.handleMe)
	authed.Get("/profile", s.handleGetProfile)
	authed.Put("/profile", s.handlePutProfile)
	authed.Post("/profile/enhance", s.handleEnhanceProfile)

	authed.Get("/jobs", s.handleListJobs)
	authed.Post("/jobs", s.handleCreateJob)
	authed.Get("/jobs/:id", s.handleGetJob)
	authed.Patch("/jobs/:id", s.handleUpdateJob)
	authed.Delete("/jobs/:id", s.handleDeleteJob)

	authed.Get("/answers", s.handleListAnswers)
	authed.Get("/answers/:id", s.handleGetAnswer)
	authed.Patch("/answers/:id/favorite", s.handleFavoriteAnswer)

	authed.Get("/stats", s.handleStats)

	// The practice workflow requires a complete profile; the gate runs
	// before any session route.
	sessions := authed.Group("/sessions", s.requireProfile)
	sessions.Get("", s.handleListSessions)
	sessions.Post("", s.handleCreateSession)
	sessions.Get("/:id", s.handleGetSession)
	sessions.Post("/:id/feedback", s.handleSessionFeedback)
	sessions.Post("/:id/answers", s.handleSaveSessionAnswer)
	sessions.Post("/:id/advance", s.handleAdvanceSession)
}

func (s *Server) Listen() error {
	s.logger.Info("http api listening", zap.String("address", s.address))
	return s.app.Listen(s.address)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// fail maps domain errors onto HTTP statuses. Every failure is a
// defined state: not-found and not-owned redirect-class errors, version
// conflicts, generation failures and validation problems each get their
// own status so the client can react.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	var genErr *practice.GenerationError

	switch {
	case errors.Is(err, practice.ErrSessionNotFound), errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, practice.ErrNotSessionOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have access to this session"})
	case errors.Is(err, practice.ErrProfileRequired):
		return c.Status(fiber.StatusPreconditionFailed).JSON(fiber.Map{"error": "profile setup is required"})
	case errors.Is(err, store.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "session was modified elsewhere, reload and retry"})
	case errors.As(err, &genErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to generate questions, reload the session to retry"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "the AI service took too long, try again"})
	default:
		s.logger.Error("request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
