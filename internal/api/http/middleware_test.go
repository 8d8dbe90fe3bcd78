package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/article-service/internal/auth"
	"github.com/spec-kit/article-service/internal/observability"
	"github.com/spec-kit/article-service/internal/service"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(metrics *observability.Metrics) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/throttled", func(*fiber.Ctx) error { return service.ErrCodeAlreadySent })
	app.Get("/expired", func(*fiber.Ctx) error {
		return errors.Join(auth.ErrInvalidCredential, auth.ErrExpired)
	})
	app.Get("/panic", func(*fiber.Ctx) error { panic("boom") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func decode(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestErrorMiddlewareMapsServiceErrors(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newTestApp(metrics)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/throttled", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "CODE_ALREADY_SENT", decode(t, resp).Error.Code)
	assert.Equal(t, int64(1), metrics.Snapshot().Errors["/throttled|GET|CODE_ALREADY_SENT"])
}

func TestErrorMiddlewareChallengesOnUnauthorized(t *testing.T) {
	app := newTestApp(observability.NewMetrics())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/expired", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get(fiber.HeaderWWWAuthenticate))
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	app := newTestApp(observability.NewMetrics())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, resp).Error.Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newTestApp(metrics)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(observability.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(observability.RequestIDHeader, "req-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.Header.Get(observability.RequestIDHeader))

	assert.Equal(t, int64(2), metrics.Snapshot().Requests["/ok|GET|200"])
}

func TestUnitOfWorkWithoutPool(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Get("/api", unitOfWorkMiddleware(nil, zap.NewNop()), func(c *fiber.Ctx) error {
		t.Fatal("handler must not run without a database")
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
