package router

import (
	"github.com/deppfellow/booking-backend/internal/handler"
	"github.com/deppfellow/booking-backend/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerSystemRoutes registers the endpoints outside the API: health and
// Prometheus metrics. Neither requires a session.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	r.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Metrics, promhttp.HandlerOpts{
		Registry: s.Metrics,
	})))
}
