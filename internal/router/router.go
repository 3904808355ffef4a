// Package router wires the Echo instance: global middleware, the /api/v1
// routes and the system endpoints.
package router

import (
	"github.com/deppfellow/booking-backend/internal/handler"
	"github.com/deppfellow/booking-backend/internal/middleware"
	"github.com/deppfellow/booking-backend/internal/server"
	"github.com/deppfellow/booking-backend/internal/service"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers, services *service.Services) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	// Request id before tracing and tracing before the context enhancer,
	// so the request logger carries both.
	router.Use(
		middlewares.Global.Recover(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.RateLimit.Limit(),
	)

	registerSystemRoutes(router, s, h)

	v1 := router.Group("/api/v1", middlewares.Auth.RequireAuth)
	registerCRUD(v1.Group("/locations"), h.Locations)
	registerCRUD(v1.Group("/services"), h.Services)
	registerCRUD(v1.Group("/staff"), h.Staff)
	registerCRUD(v1.Group("/customers"), h.Customers)
	registerCRUD(v1.Group("/shifts"), h.Shifts)
	registerCRUD(v1.Group("/day-offs"), h.DayOffs)
	registerCRUD(v1.Group("/reviews"), h.Reviews)

	appointments := v1.Group("/appointments")
	registerReads(appointments, h.Appointments.Reads)
	appointments.POST("", h.Appointments.Create)
	appointments.PUT("/:id", h.Appointments.Reschedule)
	appointments.POST("/:id/cancel", h.Appointments.Cancel)

	notifications := v1.Group("/notifications")
	registerReads(notifications, h.Notifications.Reads)
	notifications.POST("/:id/read", h.Notifications.MarkRead)

	s.Logger.Debug().Strs("requests", services.Dispatcher.Requests()).Msg("dispatcher ready")

	return router
}

func registerReads(g *echo.Group, r handler.Reads) {
	g.GET("", r.List)
	g.GET("/:id", r.Get)
}

func registerCRUD(g *echo.Group, c handler.CRUD) {
	registerReads(g, c.Reads)
	g.POST("", c.Create)
	g.PUT("/:id", c.Update)
	g.DELETE("/:id", c.Delete)
}
