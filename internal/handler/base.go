package handler

import (
	"time"

	"github.com/deppfellow/booking-backend/internal/mediator"
	"github.com/deppfellow/booking-backend/internal/middleware"
	"github.com/deppfellow/booking-backend/internal/server"
	"github.com/deppfellow/booking-backend/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	server     *server.Server
	dispatcher *mediator.Dispatcher
}

func NewHandler(s *server.Server, d *mediator.Dispatcher) Handler {
	return Handler{server: s, dispatcher: d}
}

// Request is a pointer to a request struct that validates itself.
type Request[Req any] interface {
	*Req
	validation.Validatable
}

// actor is implemented by commands embedding service.Actor.
type actor interface {
	SetActor(id string)
}

// ResponseHandler writes a successful result.
type ResponseHandler interface {
	Handle(c echo.Context, result any) error

	// GetOperation names the handler type in logs.
	GetOperation() string

	AddAttributes(txn *newrelic.Transaction, result any)
}

// JSONResponseHandler writes the result as JSON with a fixed status.
type JSONResponseHandler struct {
	status  int
	request string
}

func (h JSONResponseHandler) Handle(c echo.Context, result any) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

func (h JSONResponseHandler) AddAttributes(txn *newrelic.Transaction, result any) {
	// http.status_code is already set by EnhanceTracing.
	if result == nil {
		txn.AddAttribute("dispatch.request", h.request)
	}
}

// handleRequest binds and validates req, runs handler and writes the
// result, logging and tracing each phase.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (any, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	path := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", path)
		responseHandler.AddAttributes(txn, nil)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("method", c.Request().Method).
		Str("route", path).
		Logger()

	logger.Debug().Msg("handling request")

	validationStart := time.Now()
	if err := validation.BindAndValidate(c, req); err != nil {
		validationDuration := time.Since(validationStart)

		logger.Warn().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("validation.status", "failed")
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}
		return err
	}

	validationDuration := time.Since(validationStart)
	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
	}

	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		}
		return err
	}

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", time.Since(start).Milliseconds())
		responseHandler.AddAttributes(txn, result)
	}

	logger.Info().
		Dur("handler_duration", handlerDuration).
		Dur("validation_duration", validationDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request completed successfully")

	return responseHandler.Handle(c, result)
}

// Dispatch returns an endpoint that binds a fresh Req on every call and
// sends it through the dispatcher. Commands embedding service.Actor get
// the authenticated user id.
//
//	g.POST("/appointments", Dispatch[service.CreateAppointment, model.Appointment](h, http.StatusCreated))
func Dispatch[Req any, Res any, PReq Request[Req]](h Handler, status int) echo.HandlerFunc {
	responseHandler := JSONResponseHandler{status: status, request: mediator.RequestName(*new(Req))}

	return func(c echo.Context) error {
		req := PReq(new(Req))

		return handleRequest(c, req, func(c echo.Context, req PReq) (any, error) {
			if a, ok := any(req).(actor); ok {
				a.SetActor(middleware.GetUserID(c))
			}
			return mediator.Send[Res](c.Request().Context(), h.dispatcher, *req)
		}, responseHandler)
	}
}
