package v1

import (
	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Project *handlers.ProjectHandler
	Task    *handlers.TaskHandler
}

func RegisterRoutes(app *fiber.App, h Handlers, secret []byte) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)

	// User
	userRoutes := api.Group("/users", middleware.UseToken(secret))
	userRoutes.Get("/", h.User.List)
	userRoutes.Post("/", h.User.Create)
	userRoutes.Get("/me", h.User.Me)
	userRoutes.Get("/:id", h.User.Get)
	userRoutes.Put("/:id", h.User.Update)
	userRoutes.Delete("/:id", h.User.Delete)

	// Project
	projectRoutes := api.Group("/projects", middleware.UseToken(secret))
	projectRoutes.Post("/", h.Project.Create)
	projectRoutes.Get("/", h.Project.List)
	projectRoutes.Get("/metrics", h.Project.Metrics)
	projectRoutes.Get("/:id", h.Project.Get)
	projectRoutes.Put("/:id", h.Project.Update)
	projectRoutes.Delete("/:id", h.Project.Delete)
	projectRoutes.Post("/:id/members/:userId", h.Project.AddMember)
	projectRoutes.Delete("/:id/members/:userId", h.Project.RemoveMember)

	// Task
	taskRoutes := api.Group("/tasks", middleware.UseToken(secret))
	taskRoutes.Post("/", h.Task.Create)
	taskRoutes.Get("/", h.Task.List)
	taskRoutes.Get("/project/:id", h.Task.ListByProject)
	taskRoutes.Put("/:id", h.Task.Update)
	taskRoutes.Delete("/:id", h.Task.Delete)
}
