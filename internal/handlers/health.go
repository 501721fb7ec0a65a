package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// HealthHandler reports the state of the service dependencies.
type HealthHandler struct {
	checks  map[string]Checker
	timeout time.Duration
}

func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := "ok"
	services := fiber.Map{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = "degraded"
			services[name] = "unavailable"
			continue
		}
		services[name] = "connected"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"version":  "1.0.0",
		"services": services,
	})
}
