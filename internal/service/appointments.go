package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/booking-backend/internal/database"
	"github.com/deppfellow/booking-backend/internal/errs"
	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/repository"
	"github.com/deppfellow/booking-backend/internal/schedule"
	"github.com/deppfellow/booking-backend/internal/validation"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// CreateAppointment books a customer with a staff member. EndsAt defaults
// to StartsAt plus the service duration; LocationID defaults to the staff
// member's location.
type CreateAppointment struct {
	Actor
	StaffID    int64      `json:"staff_id" validate:"required,gt=0"`
	CustomerID int64      `json:"customer_id" validate:"required,gt=0"`
	ServiceID  int64      `json:"service_id" validate:"required,gt=0"`
	LocationID int64      `json:"location_id" validate:"omitempty,gt=0"`
	StartsAt   time.Time  `json:"starts_at" validate:"required"`
	EndsAt     *time.Time `json:"ends_at" validate:"omitempty,gtfield=StartsAt"`
	Notes      string     `json:"notes" validate:"max=1000"`
}

func (r *CreateAppointment) Validate() error { return validation.Struct(r) }

// RescheduleAppointment moves an appointment. A zero StaffID keeps the
// current staff member; a nil EndsAt keeps the current length.
type RescheduleAppointment struct {
	Actor
	ID       int64      `param:"id" json:"-" validate:"required,gt=0"`
	StaffID  int64      `json:"staff_id" validate:"omitempty,gt=0"`
	StartsAt time.Time  `json:"starts_at" validate:"required"`
	EndsAt   *time.Time `json:"ends_at" validate:"omitempty,gtfield=StartsAt"`
	Notes    *string    `json:"notes" validate:"omitempty,max=1000"`
}

func (r *RescheduleAppointment) Validate() error { return validation.Struct(r) }

// CancelAppointment frees the slot. Cancelling twice is not an error.
type CancelAppointment struct {
	Actor
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (r *CancelAppointment) Validate() error { return validation.Struct(r) }

// GetAppointmentDetails loads an appointment with the names a confirmation
// message needs.
type GetAppointmentDetails struct {
	ID int64
}

func (GetAppointmentDetails) TxOptions() pgx.TxOptions { return readOnly }

// Notifier delivers appointment notifications outside the request.
type Notifier interface {
	EnqueueAppointmentConfirmation(ctx context.Context, appointmentID int64) error
}

type appointmentStore interface {
	reader[model.Appointment]
	schedule.IntervalSource
	Create(ctx context.Context, a model.Appointment) (model.Appointment, error)
	Reschedule(ctx context.Context, a model.Appointment) (model.Appointment, error)
	SetStatus(ctx context.Context, id int64, status model.AppointmentStatus) (model.Appointment, error)
	Details(ctx context.Context, id int64) (repository.AppointmentDetails, error)
}

type byID[T any] interface {
	GetByID(ctx context.Context, id int64) (T, error)
}

type AppointmentService struct {
	appointments appointmentStore
	services     byID[model.Service]
	staff        byID[model.Staff]
	notifier     Notifier

	// booked compares against the staff member's appointments on the
	// candidate's day; away against their day-offs.
	booked schedule.Guard
	away   schedule.Guard
}

func NewAppointmentService(
	appointments appointmentStore,
	services byID[model.Service],
	staff byID[model.Staff],
	dayOffs schedule.IntervalSource,
	notifier Notifier,
	loc *time.Location,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		services:     services,
		staff:        staff,
		notifier:     notifier,
		booked:       schedule.Guard{Kind: "appointment", Source: appointments, DayScoped: true, Location: loc},
		away:         schedule.Guard{Kind: "day off", Source: dayOffs, Location: loc},
	}
}

func (s *AppointmentService) Create(ctx context.Context, req CreateAppointment) (model.Appointment, error) {
	svc, err := s.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return model.Appointment{}, err
	}
	if !svc.IsActive {
		return model.Appointment{}, badRequest("SERVICE_INACTIVE", fmt.Sprintf("Service %s is not bookable", svc.Name))
	}

	member, err := s.activeStaff(ctx, req.StaffID)
	if err != nil {
		return model.Appointment{}, err
	}

	a := model.Appointment{
		StaffID:    member.ID,
		CustomerID: req.CustomerID,
		ServiceID:  svc.ID,
		LocationID: req.LocationID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.StartsAt.Add(svc.Duration()),
		Status:     model.AppointmentScheduled,
		Notes:      req.Notes,
		CreatedBy:  req.ActorID,
	}
	if req.EndsAt != nil {
		a.EndsAt = *req.EndsAt
	}
	if a.LocationID == 0 {
		a.LocationID = member.LocationID
	}

	if err := s.check(ctx, a, member); err != nil {
		return model.Appointment{}, err
	}

	created, err := s.appointments.Create(ctx, a)
	if err != nil {
		return model.Appointment{}, err
	}

	s.notifyAfterCommit(ctx, created.ID)
	return created, nil
}

func (s *AppointmentService) Reschedule(ctx context.Context, req RescheduleAppointment) (model.Appointment, error) {
	current, err := s.appointments.GetByID(ctx, req.ID)
	if err != nil {
		return model.Appointment{}, err
	}
	if current.Status != model.AppointmentScheduled {
		return model.Appointment{}, badRequest("APPOINTMENT_NOT_SCHEDULED",
			fmt.Sprintf("Appointment %d is %s and cannot be rescheduled", current.ID, current.Status))
	}

	staffID := current.StaffID
	if req.StaffID != 0 {
		staffID = req.StaffID
	}
	member, err := s.activeStaff(ctx, staffID)
	if err != nil {
		return model.Appointment{}, err
	}

	moved := current
	if member.ID != current.StaffID {
		moved.StaffID = member.ID
		moved.LocationID = member.LocationID
	}
	moved.StartsAt = req.StartsAt
	moved.EndsAt = req.StartsAt.Add(current.EndsAt.Sub(current.StartsAt))
	if req.EndsAt != nil {
		moved.EndsAt = *req.EndsAt
	}
	if req.Notes != nil {
		moved.Notes = *req.Notes
	}

	if err := s.check(ctx, moved, member, schedule.Excluding(current.ID)); err != nil {
		return model.Appointment{}, err
	}

	updated, err := s.appointments.Reschedule(ctx, moved)
	if err != nil {
		return model.Appointment{}, err
	}

	zerolog.Ctx(ctx).Info().
		Int64("appointment_id", updated.ID).
		Str("actor", req.ActorID).
		Time("from", current.StartsAt).
		Time("to", updated.StartsAt).
		Msg("appointment rescheduled")

	s.notifyAfterCommit(ctx, updated.ID)
	return updated, nil
}

func (s *AppointmentService) Cancel(ctx context.Context, req CancelAppointment) (model.Appointment, error) {
	current, err := s.appointments.GetByID(ctx, req.ID)
	if err != nil {
		return model.Appointment{}, err
	}

	switch current.Status {
	case model.AppointmentCancelled:
		return current, nil
	case model.AppointmentCompleted:
		return model.Appointment{}, badRequest("APPOINTMENT_COMPLETED",
			fmt.Sprintf("Appointment %d is already completed", current.ID))
	}

	cancelled, err := s.appointments.SetStatus(ctx, current.ID, model.AppointmentCancelled)
	if err != nil {
		return model.Appointment{}, err
	}

	zerolog.Ctx(ctx).Info().
		Int64("appointment_id", cancelled.ID).
		Str("actor", req.ActorID).
		Msg("appointment cancelled")

	return cancelled, nil
}

func (s *AppointmentService) Details(ctx context.Context, req GetAppointmentDetails) (repository.AppointmentDetails, error) {
	return s.appointments.Details(ctx, req.ID)
}

func (s *AppointmentService) activeStaff(ctx context.Context, id int64) (model.Staff, error) {
	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return model.Staff{}, err
	}
	if !member.IsActive {
		return model.Staff{}, badRequest("STAFF_INACTIVE", fmt.Sprintf("%s is not taking appointments", member.FullName))
	}
	return member, nil
}

// check runs both guards. opts only apply to the appointment guard: a
// day-off never shares an id with the appointment being moved.
func (s *AppointmentService) check(ctx context.Context, a model.Appointment, member model.Staff, opts ...schedule.Option) error {
	candidate := a.Interval()
	candidate.SubjectName = member.FullName

	if err := invalidInterval(candidate.Validate()); err != nil {
		return err
	}
	if err := s.booked.Check(ctx, candidate, opts...); err != nil {
		return err
	}
	return s.away.Check(ctx, candidate)
}

func (s *AppointmentService) notifyAfterCommit(ctx context.Context, appointmentID int64) {
	if s.notifier == nil {
		return
	}

	database.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.notifier.EnqueueAppointmentConfirmation(ctx, appointmentID); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Int64("appointment_id", appointmentID).
				Msg("failed to enqueue appointment confirmation")
		}
	})
}

func badRequest(code, message string) error {
	return errs.NewBadRequestError(message, true, &code, nil, nil)
}

// invalidInterval turns schedule.ErrInvalidInterval into a client error.
func invalidInterval(err error) error {
	if errors.Is(err, schedule.ErrInvalidInterval) {
		return errs.NewBadRequestError("Start must be before end", true, nil,
			[]errs.FieldError{{Field: "ends_at", Error: "must be after starts_at"}}, nil)
	}
	return err
}
