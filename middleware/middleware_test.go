package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms/config"
	"lms/logger"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func useConfig(t *testing.T, env string) {
	t.Helper()
	logger.Silence()
	prev := config.AppConfig
	cfg := config.Test()
	cfg.Env = env
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })
}

type envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func get(t *testing.T, app *fiber.App, path string) (int, envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestErrorHandler(t *testing.T) {
	useConfig(t, "test")
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })

	code, env := get(t, app, "/missing")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Status)
	assert.Equal(t, "Cannot GET /missing", env.Message)

	code, env = get(t, app, "/teapot")
	assert.Equal(t, http.StatusTeapot, code)
	assert.Equal(t, "short and stout", env.Message)

	code, env = get(t, app, "/boom")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error!", env.Message)
	assert.Nil(t, env.Data)
}

func TestRequireRole(t *testing.T) {
	useConfig(t, "test")
	app := fiber.New()
	app.Get("/admin", func(c *fiber.Ctx) error {
		if role := c.Get("X-Role"); role != "" {
			c.Locals("userId", uint(1))
			c.Locals("role", role)
		}
		return c.Next()
	}, middleware.RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "welcome", nil)
	})

	do := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if role != "" {
			req.Header.Set("X-Role", role)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, do(""))
	assert.Equal(t, http.StatusForbidden, do(models.RoleUser))
	assert.Equal(t, http.StatusOK, do(models.RoleAdmin))
}

func TestJWTRoundTrip(t *testing.T) {
	useConfig(t, "test")
	user := models.User{Model: gorm.Model{ID: 42}, Role: models.RoleAdmin}

	token, err := middleware.GenerateJWT(user, "session-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := middleware.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	expired, err := middleware.GenerateJWT(user, "session-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = middleware.ParseJWT(expired)
	assert.Error(t, err)

	config.AppConfig.JWTKey = "another-secret"
	_, err = middleware.ParseJWT(token)
	assert.Error(t, err)
}

func TestAuthRateLimiter(t *testing.T) {
	useConfig(t, "production")
	app := fiber.New()
	app.Get("/login", middleware.AuthRateLimiter(), func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "ok", nil)
	})

	for i := 0; i < 20; i++ {
		code, _ := get(t, app, "/login")
		require.Equal(t, http.StatusOK, code, "request %d", i+1)
	}
	code, env := get(t, app, "/login")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.False(t, env.Status)

	config.AppConfig.Env = "test"
	code, _ = get(t, app, "/login")
	assert.Equal(t, http.StatusOK, code)
}
