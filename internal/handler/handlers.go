package handler

import (
	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/server"
	"github.com/deppfellow/booking-backend/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	Health *HealthHandler

	Locations CRUD
	Services  CRUD
	Staff     CRUD
	Customers CRUD
	Shifts    CRUD
	DayOffs   CRUD
	Reviews   CRUD

	Appointments  *AppointmentHandler
	Notifications *NotificationHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	h := NewHandler(s, services.Dispatcher)

	return &Handlers{
		Health: NewHealthHandler(s),

		Locations: crud[model.Location, service.CreateLocation, service.UpdateLocation](h),
		Services:  crud[model.Service, service.CreateService, service.UpdateService](h),
		Staff:     crud[model.Staff, service.CreateStaff, service.UpdateStaff](h),
		Customers: crud[model.Customer, service.CreateCustomer, service.UpdateCustomer](h),
		Shifts:    crud[model.Shift, service.CreateShift, service.UpdateShift](h),
		DayOffs:   crud[model.DayOff, service.CreateDayOff, service.UpdateDayOff](h),
		Reviews:   crud[model.Review, service.CreateReview, service.UpdateReview](h),

		Appointments:  NewAppointmentHandler(h),
		Notifications: NewNotificationHandler(h),
	}
}
