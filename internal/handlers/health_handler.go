package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fluencyjet/sentence-master/internal/dto"
)

const (
	statusOK        = "ok"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// HealthChecker is satisfied by the database checker and the Redis client.
type HealthChecker interface {
	Check(ctx context.Context) error
}

type HealthHandler struct {
	db    HealthChecker
	cache HealthChecker
}

// NewHealthHandler builds the handler. cache may be nil when Redis is not
// configured.
func NewHealthHandler(db, cache HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check reports coarse component states. Failure details go to the log, not
// the response.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        statusOK,
		Cache:     statusDisabled,
	}
	code := fiber.StatusOK

	if err := h.db.Check(ctx); err != nil {
		slog.Error("health check failed", "component", "db", "error", err)
		resp.DB = statusUnhealthy
		resp.Status = statusUnhealthy
		code = fiber.StatusServiceUnavailable
	}

	if h.cache != nil {
		resp.Cache = statusOK
		if err := h.cache.Check(ctx); err != nil {
			slog.Warn("health check failed", "component", "cache", "error", err)
			resp.Cache = statusUnhealthy
			if resp.Status == statusOK {
				resp.Status = statusDegraded
			}
		}
	}

	return c.Status(code).JSON(resp)
}
