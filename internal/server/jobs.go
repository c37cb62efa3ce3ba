package server

import (
	"strings"

	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/ThePeeKayy/resumate-orbital/internal/store"
	"github.com/gofiber/fiber/v2"
)

type jobRequest struct {
	Title       *string `json:"title"`
	Company     *string `json:"company"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
}

func (s *Server) handleCreateJob(c *fiber.Ctx) error {
	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	job := &models.Job{UserID: s.userID(c)}
	if req.Title != nil {
		job.Title = strings.TrimSpace(*req.Title)
	}
	if req.Company != nil {
		job.Company = strings.TrimSpace(*req.Company)
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Notes != nil {
		job.Notes = *req.Notes
	}

	if job.Title == "" || job.Company == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "title and company are required"})
	}

	if req.Status != nil {
		status, err := models.ValidateJobStatus(*req.Status)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		job.Status = status
	}

	if _, err := s.store.CreateJob(c.Context(), job); err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(job)
}

func (s *Server) handleListJobs(c *fiber.Ctx) error {
	jobs, err := s.store.ListJobs(c.Context(), s.userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(jobs)
}

func (s *Server) handleGetJob(c *fiber.Ctx) error {
	job, err := s.store.GetJob(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if job.UserID != s.userID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	return c.JSON(job)
}

func (s *Server) handleUpdateJob(c *fiber.Ctx) error {
	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	update := store.JobUpdate{
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
		Notes:       req.Notes,
	}

	if req.Status != nil {
		status, err := models.ValidateJobStatus(*req.Status)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		update.Status = &status
	}

	if err := s.store.UpdateJob(c.Context(), c.Params("id"), s.userID(c), update); err != nil {
		return s.fail(c, err)
	}

	job, err := s.store.GetJob(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(job)
}

func (s *Server) handleDeleteJob(c *fiber.Ctx) error {
	if err := s.store.DeleteJob(c.Context(), c.Params("id"), s.userID(c)); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
