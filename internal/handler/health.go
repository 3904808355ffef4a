package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/deppfellow/booking-backend/internal/middleware"
	"github.com/deppfellow/booking-backend/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler serves /status for load balancers and uptime monitors.
type HealthHandler struct {
	server *server.Server
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{server: s}
}

type check struct {
	name string
	ping func(ctx context.Context) error
}

// CheckHealth pings the configured dependencies (observability.health_checks)
// and answers 200 when all of them respond, 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()
	cfg := h.server.Config.Observability.HealthChecks

	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
	}
	if !cfg.Enabled {
		return c.JSON(http.StatusOK, response)
	}

	checks := map[string]any{}
	healthy := true

	for _, chk := range h.checks() {
		if !slices.Contains(cfg.Checks, chk.name) {
			continue
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
		checkStart := time.Now()
		err := chk.ping(ctx)
		cancel()
		elapsed := time.Since(checkStart)

		if err == nil {
			checks[chk.name] = map[string]any{"status": "healthy", "response_time": elapsed.String()}
			continue
		}

		healthy = false
		checks[chk.name] = map[string]any{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}

		logger.Error().Err(err).Str("check", chk.name).Dur("response_time", elapsed).Msg("health check failed")
		h.recordFailure(chk.name, elapsed, err)
	}
	response["checks"] = checks

	if !healthy {
		response["status"] = "unhealthy"
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) checks() []check {
	return []check{
		{name: "database", ping: h.server.DB.Pool.Ping},
		{name: "redis", ping: func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		}},
	}
}

func (h *HealthHandler) recordFailure(name string, elapsed time.Duration, err error) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}
	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", map[string]any{
		"check_type":       name,
		"operation":        "health_check",
		"error_type":       name + "_unhealthy",
		"response_time_ms": elapsed.Milliseconds(),
		"error_message":    err.Error(),
	})
}
