package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v7"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports whether the API can reach its backing services.
type HealthHandler struct {
	checks map[string]func(ctx context.Context) error
}

// NewHealthHandler creates a HealthHandler that pings db and, when rdb is
// non-nil, Redis.
func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	checks := map[string]func(ctx context.Context) error{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.WithContext(ctx).Ping().Err()
		}
	}
	return &HealthHandler{checks: checks}
}

// HealthResponse lists the state of each dependency.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles the health check
// @Summary     Health check
// @Description Ping the database and, when configured, Redis
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse "All dependencies reachable"
// @Failure     503 {object} HealthResponse "A dependency is down"
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}

	c.JSON(status, resp)
}
