package handlers

import (
	"encoding/json"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// metricsCacheKey caches the /projects/metrics aggregate; every task
// write drops it.
const metricsCacheKey = "projects:metrics"

const metricsCacheTTL = time.Minute

type ProjectHandler struct {
	projects *repository.ProjectRepo
	tasks    *repository.TaskRepo
	cache    *redis.Client
	validate *validator.Validate
}

func NewProjectHandler(projects *repository.ProjectRepo, tasks *repository.TaskRepo, cache *redis.Client, validate *validator.Validate) *ProjectHandler {
	return &ProjectHandler{projects: projects, tasks: tasks, cache: cache, validate: validate}
}

// Create stores a project and attaches the requested members. Member ids
// that do not resolve are skipped silently, matching the inherited
// contract.
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	type CreateProjectRequest struct {
		Title       string  `json:"title" validate:"required"`
		Description *string `json:"description"`
		MemberIDs   []int   `json:"member_ids"`
	}

	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create project", zap.Error(err))
		return respondError(c, apperr.Validation("Bad request"))
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, apperr.Validation("Title is required"))
	}

	project, err := h.projects.Create(req.Title, req.Description, req.MemberIDs)
	if err != nil {
		return respondError(c, err)
	}

	logger.AuditLogger.Info("Project created successfully", zap.Int("project_id", project.ID))
	return respond(c, fiber.StatusCreated, "Project created successfully", project)
}

func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.List()
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Projects fetched successfully", projects)
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid project ID"))
	}

	project, err := h.projects.GetByID(projectID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Project found", project)
}

// Update patches title and description only; absent fields keep their
// current value.
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid project ID"))
	}

	project, err := h.projects.GetByID(projectID)
	if err != nil {
		return respondError(c, err)
	}

	type UpdateProjectRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}

	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("Bad request"))
	}

	if req.Title != nil && *req.Title != "" {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = req.Description
	}

	updated, err := h.projects.Update(projectID, project.Title, project.Description)
	if err != nil {
		return respondError(c, err)
	}

	logger.AuditLogger.Info("Project updated successfully", zap.Int("project_id", projectID))
	return respond(c, fiber.StatusOK, "Project updated successfully", updated)
}

// Delete removes the project together with its tasks and membership
// rows.
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid project ID"))
	}

	if err := h.projects.Delete(projectID); err != nil {
		return respondError(c, err)
	}

	h.cache.Del(c.UserContext(), metricsCacheKey)

	logger.AuditLogger.Info("Project deleted successfully", zap.Int("project_id", projectID))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProjectHandler) AddMember(c *fiber.Ctx) error {
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid project ID"))
	}
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid user ID"))
	}

	if err := h.projects.AddMember(projectID, userID); err != nil {
		return respondError(c, err)
	}

	project, err := h.projects.GetByID(projectID)
	if err != nil {
		return respondError(c, err)
	}

	logger.AuditLogger.Info("Member added", zap.Int("project_id", projectID), zap.Int("user_id", userID))
	return respond(c, fiber.StatusOK, "Member added successfully", project)
}

func (h *ProjectHandler) RemoveMember(c *fiber.Ctx) error {
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid project ID"))
	}
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid user ID"))
	}

	if err := h.projects.RemoveMember(projectID, userID); err != nil {
		return respondError(c, err)
	}

	project, err := h.projects.GetByID(projectID)
	if err != nil {
		return respondError(c, err)
	}

	logger.AuditLogger.Info("Member removed", zap.Int("project_id", projectID), zap.Int("user_id", userID))
	return respond(c, fiber.StatusOK, "Member removed successfully", project)
}

// Metrics serves the task aggregate: total count, overdue count and the
// per-status breakdown.
func (h *ProjectHandler) Metrics(c *fiber.Ctx) error {
	if cached, err := h.cache.Get(c.UserContext(), metricsCacheKey).Result(); err == nil {
		var m models.Metrics
		if err = json.Unmarshal([]byte(cached), &m); err == nil {
			return respond(c, fiber.StatusOK, "Metrics fetched successfully (from cache)", m)
		}
	}

	m, err := h.tasks.Metrics(time.Now())
	if err != nil {
		return respondError(c, err)
	}

	if metricsJSON, err := json.Marshal(m); err == nil {
		h.cache.SetEX(c.UserContext(), metricsCacheKey, metricsJSON, metricsCacheTTL)
	}
	return respond(c, fiber.StatusOK, "Metrics fetched successfully", m)
}
