package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/article-service/internal/observability"
	"github.com/spec-kit/article-service/pkg/util"
)

const readinessTimeout = 2 * time.Second

// Dependency is a backing service the readiness probe checks, such as the
// article database or the verification-code cache.
type Dependency struct {
	Name  string
	Check func(context.Context) error
}

// HealthHandler serves liveness, readiness and the metrics snapshot.
type HealthHandler struct {
	serviceName string
	version     string
	startedAt   time.Time
	metrics     *observability.Metrics
	deps        []Dependency
}

// NewHealthHandler reports readiness only while every dependency answers.
func NewHealthHandler(serviceName, version string, metrics *observability.Metrics, deps ...Dependency) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		startedAt:   time.Now(),
		metrics:     metrics,
		deps:        deps,
	}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "alive",
		"service":        h.serviceName,
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// Ready handles GET /health/ready. A failing dependency yields 503 with the
// per-dependency status in the error details.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	status := make(map[string]any, len(h.deps))
	ready := true
	for _, dep := range h.deps {
		if err := dep.Check(ctx); err != nil {
			status[dep.Name] = err.Error()
			ready = false
			continue
		}
		status[dep.Name] = "ok"
	}

	if !ready {
		return util.NewDomainError("DEPENDENCY_UNAVAILABLE", "one or more dependencies unavailable", http.StatusServiceUnavailable, status)
	}
	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": status,
	})
}

// Metrics handles GET /metrics.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
