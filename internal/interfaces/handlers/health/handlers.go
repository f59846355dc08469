package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Pinger abstracts a dependency liveness check.
type Pinger interface {
	Ping() error
}

// Handlers serves health probes.
type Handlers struct {
	DB  Pinger
	Rdb *redis.Client
}

// JSON GET /health/json — dependency status for monitors.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	dbStatus := "not_configured"
	if h.DB != nil {
		if err := h.DB.Ping(); err != nil {
			dbStatus = "down: " + err.Error()
		} else {
			dbStatus = "up"
		}
	}

	redisStatus := "not_configured"
	if h.Rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.Rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "down: " + err.Error()
		} else {
			redisStatus = "up"
		}
	}

	status := fiber.StatusOK
	overall := "ok"
	if (dbStatus != "up" && dbStatus != "not_configured") ||
		(redisStatus != "up" && redisStatus != "not_configured") {
		status = fiber.StatusServiceUnavailable
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"postgres": dbStatus,
		"redis":    redisStatus,
		"time":     time.Now().UTC(),
	})
}
