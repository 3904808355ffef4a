package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/booking-backend/internal/config"
	"github.com/deppfellow/booking-backend/internal/mediator"
	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/repository"
	"github.com/deppfellow/booking-backend/internal/schedule"
)

type shiftTable struct {
	*table[model.Shift]
}

func (s *shiftTable) Create(_ context.Context, sh model.Shift) (model.Shift, error) {
	return s.insert(func(r *model.Shift, id int64) { *r = sh; r.ID = id }), nil
}

func (s *shiftTable) Update(_ context.Context, sh model.Shift) (model.Shift, error) {
	s.rows[sh.ID] = sh
	return sh, nil
}

func (s *shiftTable) Intervals(_ context.Context, subject string, from, to time.Time) ([]schedule.Interval, error) {
	var out []schedule.Interval
	for _, sh := range s.rows {
		if iv := sh.Interval(); iv.SubjectKey == subject && iv.Start.Before(to) && iv.End.After(from) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func newAvailability() (*AvailabilityService, *fixture, *shiftTable) {
	f := newFixture()
	shifts := &shiftTable{newTable[model.Shift]()}
	return NewAvailabilityService(shifts, f.dayOffs, f.staff, time.UTC), f, shifts
}

func TestShiftsOfOneStaffMemberDoNotOverlap(t *testing.T) {
	svc, _, shifts := newAvailability()
	ctx := context.Background()

	morning, err := svc.CreateShift(ctx, CreateShift{StaffID: 1, LocationID: 3, StartsAt: at(8, 0), EndsAt: at(12, 0)})
	if err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	_, err = svc.CreateShift(ctx, CreateShift{StaffID: 1, LocationID: 3, StartsAt: at(11, 0), EndsAt: at(15, 0)})
	httpErr := httpStatus(t, err)
	if httpErr.Code != "SHIFT_CONFLICT" || !strings.Contains(httpErr.Message, "Siti already has a shift") {
		t.Fatalf("overlapping shift = %+v", httpErr)
	}

	// Back to back and another staff member are both fine.
	if _, err := svc.CreateShift(ctx, CreateShift{StaffID: 1, LocationID: 3, StartsAt: at(12, 0), EndsAt: at(16, 0)}); err != nil {
		t.Fatalf("adjacent shift: %v", err)
	}
	if _, err := svc.CreateShift(ctx, CreateShift{StaffID: 2, LocationID: 3, StartsAt: at(9, 0), EndsAt: at(13, 0)}); err != nil {
		t.Fatalf("other staff member: %v", err)
	}

	extended, err := svc.UpdateShift(ctx, UpdateShift{
		ID:          morning.ID,
		CreateShift: CreateShift{StaffID: 1, LocationID: 3, StartsAt: at(7, 0), EndsAt: at(12, 0)},
	})
	if err != nil {
		t.Fatalf("UpdateShift over its own slot: %v", err)
	}
	if !shifts.rows[morning.ID].StartsAt.Equal(at(7, 0)) || extended.ID != morning.ID {
		t.Fatalf("shift not updated: %+v", shifts.rows[morning.ID])
	}
}

func TestDayOffConflictsAndInvalidRange(t *testing.T) {
	svc, _, _ := newAvailability()
	ctx := context.Background()

	if _, err := svc.CreateDayOff(ctx, CreateDayOff{StaffID: 1, StartsAt: at(13, 0), EndsAt: at(17, 0)}); err != nil {
		t.Fatalf("CreateDayOff: %v", err)
	}

	_, err := svc.CreateDayOff(ctx, CreateDayOff{StaffID: 1, StartsAt: at(16, 0), EndsAt: at(18, 0)})
	if code := httpStatus(t, err).Code; code != "DAY_OFF_CONFLICT" {
		t.Fatalf("code = %q, want DAY_OFF_CONFLICT", code)
	}

	_, err = svc.CreateDayOff(ctx, CreateDayOff{StaffID: 1, StartsAt: at(18, 0), EndsAt: at(18, 0)})
	httpErr := httpStatus(t, err)
	if httpErr.Code != "BAD_REQUEST" || len(httpErr.Errors) != 1 || httpErr.Errors[0].Field != "ends_at" {
		t.Fatalf("empty day off = %+v", httpErr)
	}
}

func TestReviewRequiresCompletedAppointment(t *testing.T) {
	f := newFixture()
	a := f.book(t, at(10, 0))
	reviews := &reviewTable{newTable[model.Review]()}
	svc := NewReviewService(reviews, f.appointments)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateReview{AppointmentID: a.ID, Rating: 5})
	if code := httpStatus(t, err).Code; code != "APPOINTMENT_NOT_COMPLETED" {
		t.Fatalf("code = %q", code)
	}

	f.appointments.SetStatus(ctx, a.ID, model.AppointmentCompleted)
	r, err := svc.Create(ctx, CreateReview{AppointmentID: a.ID, Rating: 5, Comment: "great"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.CustomerID != 9 {
		t.Fatalf("CustomerID = %d, want the appointment's customer", r.CustomerID)
	}
}

type reviewTable struct {
	*table[model.Review]
}

func (r *reviewTable) Create(_ context.Context, rv model.Review) (model.Review, error) {
	return r.insert(func(row *model.Review, id int64) { *row = rv; row.ID = id }), nil
}

func (r *reviewTable) Update(_ context.Context, rv model.Review) (model.Review, error) {
	r.rows[rv.ID] = rv
	return rv, nil
}

func TestRegisterBindsEveryRequestOnce(t *testing.T) {
	r := mediator.NewRegistry()
	repos := repository.NewRepositories()
	booking := config.DefaultBookingConfig()

	if err := Register(r, repos, nil, booking); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(r, repos, nil, booking); !errors.Is(err, mediator.ErrDuplicateHandler) {
		t.Fatalf("second Register = %v, want ErrDuplicateHandler", err)
	}

	d := r.Build()
	requests := strings.Join(d.Requests(), "\n")
	for _, want := range []string{
		"service.CreateAppointment",
		"service.CancelAppointment",
		"model.Location]",
		"model.DayOff]",
		"service.RecordNotification",
	} {
		if !strings.Contains(requests, want) {
			t.Fatalf("%s is not registered; have:\n%s", want, requests)
		}
	}
}
