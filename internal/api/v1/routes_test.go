package v1

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitLoggers()
	defer logger.SyncLoggers()
	os.Exit(m.Run())
}

func newTestApp(t *testing.T) *fiber.App {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	validate := validator.New()
	userRepo := repository.NewUserRepo(db)
	projectRepo := repository.NewProjectRepo(db)
	taskRepo := repository.NewTaskRepo(db)
	secret := []byte("secret")

	app := fiber.New()
	RegisterRoutes(app, Handlers{
		Auth:    handlers.NewAuthHandler(userRepo, validate, secret),
		User:    handlers.NewUserHandler(userRepo, cache, validate),
		Project: handlers.NewProjectHandler(projectRepo, taskRepo, cache, validate),
		Task:    handlers.NewTaskHandler(taskRepo, projectRepo, cache, validate),
	}, secret)
	return app
}

func TestHealthNeedsNoToken(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIGroupsRejectMissingToken(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/users/", "/api/projects/", "/api/tasks/"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}
