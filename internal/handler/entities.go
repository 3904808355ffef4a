package handler

import (
	"net/http"

	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/deppfellow/booking-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// Reads are the list and detail endpoints every entity has.
type Reads struct {
	List echo.HandlerFunc
	Get  echo.HandlerFunc
}

// CRUD adds plain create, update and delete to Reads.
type CRUD struct {
	Reads
	Create echo.HandlerFunc
	Update echo.HandlerFunc
	Delete echo.HandlerFunc
}

func reads[T any](h Handler) Reads {
	return Reads{
		List: Dispatch[service.List[T], query.PaginatedResult[any]](h, http.StatusOK),
		Get:  Dispatch[service.Get[T], T](h, http.StatusOK),
	}
}

// crud builds the endpoints of T, created with C and updated with U.
func crud[T any, C any, U any, PC Request[C], PU Request[U]](h Handler) CRUD {
	return CRUD{
		Reads:  reads[T](h),
		Create: Dispatch[C, T, PC](h, http.StatusCreated),
		Update: Dispatch[U, T, PU](h, http.StatusOK),
		Delete: Dispatch[service.Delete[T], service.Deleted](h, http.StatusOK),
	}
}

type AppointmentHandler struct {
	Reads
	Create     echo.HandlerFunc
	Reschedule echo.HandlerFunc
	Cancel     echo.HandlerFunc
}

func NewAppointmentHandler(h Handler) *AppointmentHandler {
	return &AppointmentHandler{
		Reads:      reads[model.Appointment](h),
		Create:     Dispatch[service.CreateAppointment, model.Appointment](h, http.StatusCreated),
		Reschedule: Dispatch[service.RescheduleAppointment, model.Appointment](h, http.StatusOK),
		Cancel:     Dispatch[service.CancelAppointment, model.Appointment](h, http.StatusOK),
	}
}

type NotificationHandler struct {
	Reads
	MarkRead echo.HandlerFunc
}

func NewNotificationHandler(h Handler) *NotificationHandler {
	return &NotificationHandler{
		Reads:    reads[model.Notification](h),
		MarkRead: Dispatch[service.MarkNotificationRead, model.Notification](h, http.StatusOK),
	}
}
