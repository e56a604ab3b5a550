package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks the dataset cache plus any optional DB and NATS
// connections. The service is ready without a stored dataset; the first
// heatmap request collects one.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Dataset cache
		if deps.DatasetCache != nil {
			exists, err := deps.DatasetCache.Exists(ctx)
			switch {
			case err != nil:
				checks["cache"] = "error: " + err.Error()
				allOK = false
			case exists:
				checks["cache"] = "ok"
			default:
				checks["cache"] = "empty"
			}
		} else {
			checks["cache"] = "not configured"
		}

		// In-memory dataset
		if at := deps.Heatmap.LoadedAt(); !at.IsZero() {
			checks["dataset"] = "loaded " + at.UTC().Format(time.RFC3339)
		} else {
			checks["dataset"] = "not loaded"
		}

		// Database
		if deps.DB != nil {
			if err := deps.DB.Pool.Ping(ctx); err != nil {
				checks["database"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["database"] = "ok"
			}
		} else {
			checks["database"] = "not configured"
		}

		// NATS
		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
				allOK = false
			}
		} else {
			checks["nats"] = "not configured"
		}

		status := "ready"
		code := 200
		if !allOK {
			status = "not ready"
			code = 503
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
