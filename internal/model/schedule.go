package model

import (
	"strconv"
	"time"

	"github.com/deppfellow/booking-backend/internal/schedule"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// Blocks reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) Blocks() bool {
	return s != AppointmentCancelled
}

type Appointment struct {
	ID         int64             `json:"id" db:"id"`
	StaffID    int64             `json:"staff_id" db:"staff_id"`
	CustomerID int64             `json:"customer_id" db:"customer_id"`
	ServiceID  int64             `json:"service_id" db:"service_id"`
	LocationID int64             `json:"location_id" db:"location_id"`
	StartsAt   time.Time         `json:"starts_at" db:"starts_at"`
	EndsAt     time.Time         `json:"ends_at" db:"ends_at"`
	Status     AppointmentStatus `json:"status" db:"status"`
	Notes      string            `json:"notes" db:"notes"`
	CreatedBy  string            `json:"created_by" db:"created_by"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}

func (a Appointment) Interval() schedule.Interval {
	return staffInterval(a.ID, a.StaffID, a.StartsAt, a.EndsAt)
}

type Shift struct {
	ID         int64     `json:"id" db:"id"`
	StaffID    int64     `json:"staff_id" db:"staff_id"`
	LocationID int64     `json:"location_id" db:"location_id"`
	StartsAt   time.Time `json:"starts_at" db:"starts_at"`
	EndsAt     time.Time `json:"ends_at" db:"ends_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

func (s Shift) Interval() schedule.Interval {
	return staffInterval(s.ID, s.StaffID, s.StartsAt, s.EndsAt)
}

type DayOff struct {
	ID        int64     `json:"id" db:"id"`
	StaffID   int64     `json:"staff_id" db:"staff_id"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
	EndsAt    time.Time `json:"ends_at" db:"ends_at"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (d DayOff) Interval() schedule.Interval {
	return staffInterval(d.ID, d.StaffID, d.StartsAt, d.EndsAt)
}

// StaffKey is the overlap subject key of a staff member.
func StaffKey(staffID int64) string {
	return strconv.FormatInt(staffID, 10)
}

func staffInterval(id, staffID int64, start, end time.Time) schedule.Interval {
	return schedule.Interval{
		ID:         id,
		SubjectKey: StaffKey(staffID),
		Start:      start,
		End:        end,
	}
}
