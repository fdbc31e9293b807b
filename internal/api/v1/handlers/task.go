package handlers

import (
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

type TaskHandler struct {
	tasks    *repository.TaskRepo
	projects *repository.ProjectRepo
	cache    *redis.Client
	validate *validator.Validate
}

func NewTaskHandler(tasks *repository.TaskRepo, projects *repository.ProjectRepo, cache *redis.Client, validate *validator.Validate) *TaskHandler {
	return &TaskHandler{tasks: tasks, projects: projects, cache: cache, validate: validate}
}

func parseDeadline(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return nil, apperr.Validation("Invalid deadline, expected YYYY-MM-DD")
	}
	return &s, nil
}

// Create stores a task under an existing project. Status defaults to
// "To Do".
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	type CreateTaskRequest struct {
		Title       string  `json:"title" validate:"required"`
		Description *string `json:"description"`
		Status      string  `json:"status"`
		Deadline    string  `json:"deadline"`
		ProjectID   int     `json:"project_id" validate:"required"`
		AssigneeID  *int    `json:"assignee_id"`
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return respondError(c, apperr.Validation("Bad request"))
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, apperr.Validation("Missing fields (title, project_id required)"))
	}

	status := models.StatusToDo
	if req.Status != "" {
		if !models.ValidStatus(req.Status) {
			return respondError(c, apperr.Validation("Invalid status"))
		}
		status = models.Status(req.Status)
	}

	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return respondError(c, err)
	}

	exists, err := h.projects.Exists(req.ProjectID)
	if err != nil {
		return respondError(c, err)
	}
	if !exists {
		return respondError(c, apperr.Validation("Project not found"))
	}

	task, err := h.tasks.Create(req.Title, req.Description, status, deadline, req.ProjectID, req.AssigneeID)
	if err != nil {
		return respondError(c, err)
	}

	h.cache.Del(c.UserContext(), metricsCacheKey)

	logger.AuditLogger.Info("Task created successfully", zap.Int("task_id", task.ID))
	return respond(c, fiber.StatusCreated, "Task created successfully", task)
}

func (h *TaskHandler) List(c *fiber.Ctx) error {
	tasks, err := h.tasks.List()
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Tasks fetched successfully", tasks)
}

// ListByProject returns the tasks of one project; unknown projects yield
// an empty list rather than an error.
func (h *TaskHandler) ListByProject(c *fiber.Ctx) error {
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid project ID"))
	}

	tasks, err := h.tasks.ListByProject(projectID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Tasks fetched successfully", tasks)
}

// Update patches title, status, deadline and assignee only. Description
// is not patchable, matching the inherited contract.
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid task ID"))
	}

	task, err := h.tasks.GetByID(taskID)
	if err != nil {
		return respondError(c, err)
	}

	type UpdateTaskRequest struct {
		Title      *string `json:"title"`
		Status     *string `json:"status"`
		Deadline   *string `json:"deadline"`
		AssigneeID *int    `json:"assignee_id"`
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("Bad request"))
	}

	if req.Title != nil && *req.Title != "" {
		task.Title = *req.Title
	}
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			return respondError(c, apperr.Validation("Invalid status"))
		}
		task.Status = models.Status(*req.Status)
	}
	if req.Deadline != nil {
		// An empty string clears the deadline.
		deadline, err := parseDeadline(*req.Deadline)
		if err != nil {
			return respondError(c, err)
		}
		task.Deadline = deadline
	}
	if req.AssigneeID != nil {
		task.AssigneeID = req.AssigneeID
	}

	updated, err := h.tasks.Update(taskID, task.Title, task.Status, task.Deadline, task.AssigneeID)
	if err != nil {
		return respondError(c, err)
	}

	h.cache.Del(c.UserContext(), metricsCacheKey)

	logger.AuditLogger.Info("Task updated successfully", zap.Int("task_id", taskID))
	return respond(c, fiber.StatusOK, "Task updated successfully", updated)
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid task ID"))
	}

	if err := h.tasks.Delete(taskID); err != nil {
		return respondError(c, err)
	}

	h.cache.Del(c.UserContext(), metricsCacheKey)

	logger.AuditLogger.Info("Task deleted successfully", zap.Int("task_id", taskID))
	return c.SendStatus(fiber.StatusNoContent)
}
