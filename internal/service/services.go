package service

import (
	"errors"

	"github.com/deppfellow/booking-backend/internal/config"
	"github.com/deppfellow/booking-backend/internal/lib/email"
	"github.com/deppfellow/booking-backend/internal/lib/job"
	"github.com/deppfellow/booking-backend/internal/mediator"
	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/repository"
	"github.com/deppfellow/booking-backend/internal/server"
)

type Services struct {
	Job        *job.JobService
	Dispatcher *mediator.Dispatcher
}

// NewService registers every handler, builds the dispatcher and wires the
// background workers to it.
//
// Behaviors run outermost first: tracing, logging, metrics and finally the
// transaction, so commit failures are logged and counted.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var notifier Notifier
	if s.Job != nil {
		notifier = s.Job
	}

	registry := mediator.NewRegistry()
	if err := Register(registry, repos, notifier, s.Config.Booking); err != nil {
		return nil, err
	}

	metrics, err := mediator.NewMetrics(s.Metrics)
	if err != nil {
		return nil, err
	}

	dispatcher := registry.Build(
		mediator.TracingBehavior(),
		mediator.LoggingBehavior(),
		metrics.Behavior(),
		mediator.TransactionBehavior(s.DB, s.DB.TxOptions()),
	)

	if s.Job != nil {
		s.Job.InitHandlers(
			NewDeliveries(dispatcher, s.Config.Booking.Location()),
			email.NewClient(s.Config, s.Logger),
		)
	}

	return &Services{
		Job:        s.Job,
		Dispatcher: dispatcher,
	}, nil
}

// Register binds every request type to its handler.
func Register(r *mediator.Registry, repos *repository.Repositories, notifier Notifier, booking *config.BookingConfig) error {
	loc := booking.Location()
	p := NewPipelines(booking.DefaultPageSize)
	if err := p.Check(repos); err != nil {
		return err
	}

	locations := NewLocationService(repos.Locations)
	catalog := NewCatalogService(repos.Services)
	staff := NewStaffService(repos.Staff)
	customers := NewCustomerService(repos.Customers)
	appointments := NewAppointmentService(repos.Appointments, repos.Services, repos.Staff, repos.DayOffs, notifier, loc)
	availability := NewAvailabilityService(repos.Shifts, repos.DayOffs, repos.Staff, loc)
	reviews := NewReviewService(repos.Reviews, repos.Appointments)
	notifications := NewNotificationService(repos.Notifications)

	return errors.Join(
		registerReads(r, p.Locations, repos.Locations),
		registerDelete[model.Location](r, repos.Locations),
		handle(r, locations.Create),
		handle(r, locations.Update),

		registerReads(r, p.Services, repos.Services),
		registerDelete[model.Service](r, repos.Services),
		handle(r, catalog.Create),
		handle(r, catalog.Update),

		registerReads(r, p.Staff, repos.Staff),
		registerDelete[model.Staff](r, repos.Staff),
		handle(r, staff.Create),
		handle(r, staff.Update),

		registerReads(r, p.Customers, repos.Customers),
		registerDelete[model.Customer](r, repos.Customers),
		handle(r, customers.Create),
		handle(r, customers.Update),

		registerReads(r, p.Appointments, repos.Appointments),
		handle(r, appointments.Create),
		handle(r, appointments.Reschedule),
		handle(r, appointments.Cancel),
		handle(r, appointments.Details),

		registerReads(r, p.Shifts, repos.Shifts),
		registerDelete[model.Shift](r, repos.Shifts),
		handle(r, availability.CreateShift),
		handle(r, availability.UpdateShift),

		registerReads(r, p.DayOffs, repos.DayOffs),
		registerDelete[model.DayOff](r, repos.DayOffs),
		handle(r, availability.CreateDayOff),
		handle(r, availability.UpdateDayOff),

		registerReads(r, p.Reviews, repos.Reviews),
		registerDelete[model.Review](r, repos.Reviews),
		handle(r, reviews.Create),
		handle(r, reviews.Update),

		registerReads(r, p.Notifications, repos.Notifications),
		handle(r, notifications.MarkRead),
		handle(r, notifications.Record),
	)
}
