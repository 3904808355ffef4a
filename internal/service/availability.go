package service

import (
	"context"
	"time"

	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/schedule"
	"github.com/deppfellow/booking-backend/internal/validation"
)

type CreateShift struct {
	StaffID    int64     `json:"staff_id" validate:"required,gt=0"`
	LocationID int64     `json:"location_id" validate:"required,gt=0"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

func (r *CreateShift) Validate() error { return validation.Struct(r) }

type UpdateShift struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
	CreateShift
}

func (r *UpdateShift) Validate() error { return validation.Struct(r) }

type CreateDayOff struct {
	StaffID  int64     `json:"staff_id" validate:"required,gt=0"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Reason   string    `json:"reason" validate:"max=500"`
}

func (r *CreateDayOff) Validate() error { return validation.Struct(r) }

type UpdateDayOff struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
	CreateDayOff
}

func (r *UpdateDayOff) Validate() error { return validation.Struct(r) }

type shiftStore interface {
	reader[model.Shift]
	deleter
	schedule.IntervalSource
	Create(ctx context.Context, s model.Shift) (model.Shift, error)
	Update(ctx context.Context, s model.Shift) (model.Shift, error)
}

type dayOffStore interface {
	reader[model.DayOff]
	deleter
	schedule.IntervalSource
	Create(ctx context.Context, d model.DayOff) (model.DayOff, error)
	Update(ctx context.Context, d model.DayOff) (model.DayOff, error)
}

// AvailabilityService manages when staff members work and when they are
// away. Neither shifts nor day-offs of one staff member may overlap.
type AvailabilityService struct {
	shifts  shiftStore
	dayOffs dayOffStore
	staff   byID[model.Staff]

	shiftGuard  schedule.Guard
	dayOffGuard schedule.Guard
}

func NewAvailabilityService(shifts shiftStore, dayOffs dayOffStore, staff byID[model.Staff], loc *time.Location) *AvailabilityService {
	return &AvailabilityService{
		shifts:      shifts,
		dayOffs:     dayOffs,
		staff:       staff,
		shiftGuard:  schedule.Guard{Kind: "shift", Source: shifts, Location: loc},
		dayOffGuard: schedule.Guard{Kind: "day off", Source: dayOffs, Location: loc},
	}
}

func (s *AvailabilityService) CreateShift(ctx context.Context, req CreateShift) (model.Shift, error) {
	shift := req.shift()
	if err := s.guard(ctx, s.shiftGuard, shift.StaffID, shift.Interval()); err != nil {
		return model.Shift{}, err
	}
	return s.shifts.Create(ctx, shift)
}

func (s *AvailabilityService) UpdateShift(ctx context.Context, req UpdateShift) (model.Shift, error) {
	shift := req.shift()
	shift.ID = req.ID
	if err := s.guard(ctx, s.shiftGuard, shift.StaffID, shift.Interval(), schedule.Excluding(req.ID)); err != nil {
		return model.Shift{}, err
	}
	return s.shifts.Update(ctx, shift)
}

func (s *AvailabilityService) CreateDayOff(ctx context.Context, req CreateDayOff) (model.DayOff, error) {
	d := req.dayOff()
	if err := s.guard(ctx, s.dayOffGuard, d.StaffID, d.Interval()); err != nil {
		return model.DayOff{}, err
	}
	return s.dayOffs.Create(ctx, d)
}

func (s *AvailabilityService) UpdateDayOff(ctx context.Context, req UpdateDayOff) (model.DayOff, error) {
	d := req.dayOff()
	d.ID = req.ID
	if err := s.guard(ctx, s.dayOffGuard, d.StaffID, d.Interval(), schedule.Excluding(req.ID)); err != nil {
		return model.DayOff{}, err
	}
	return s.dayOffs.Update(ctx, d)
}

// guard resolves the staff member for the conflict message and runs g.
func (s *AvailabilityService) guard(ctx context.Context, g schedule.Guard, staffID int64, candidate schedule.Interval, opts ...schedule.Option) error {
	if err := invalidInterval(candidate.Validate()); err != nil {
		return err
	}

	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return err
	}
	candidate.SubjectName = member.FullName

	return g.Check(ctx, candidate, opts...)
}

func (r CreateShift) shift() model.Shift {
	return model.Shift{StaffID: r.StaffID, LocationID: r.LocationID, StartsAt: r.StartsAt, EndsAt: r.EndsAt}
}

func (r CreateDayOff) dayOff() model.DayOff {
	return model.DayOff{StaffID: r.StaffID, StartsAt: r.StartsAt, EndsAt: r.EndsAt, Reason: r.Reason}
}
