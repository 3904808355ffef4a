package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/deppfellow/booking-backend/internal/database"
	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/deppfellow/booking-backend/internal/schedule"
	"github.com/jackc/pgx/v5"
)

// Date range filters shared by the schedulable tables. date_to is inclusive.
const (
	dateFromClause = "starts_at >= @date_from::date"
	dateToClause   = "starts_at < @date_to::date + 1"
)

var appointments = listSpec{
	table:   "appointments",
	columns: "id, staff_id, customer_id, service_id, location_id, starts_at, ends_at, status, notes, created_by, created_at, updated_at",
	filters: map[string]string{
		"staff_id":    "staff_id = @staff_id",
		"customer_id": "customer_id = @customer_id",
		"service_id":  "service_id = @service_id",
		"location_id": "location_id = @location_id",
		"status":      "status = @status",
		"date_from":   dateFromClause,
		"date_to":     dateToClause,
	},
	search:  []string{"notes"},
	orderBy: map[string]string{"starts_at": "starts_at", "created_at": "created_at", "status": "status"},
}

type AppointmentRepository struct{}

func (r *AppointmentRepository) Mapping() Mapping { return appointments.mapping() }

func (r *AppointmentRepository) Find(ctx context.Context, p query.FindParams) (query.FindResult[model.Appointment], error) {
	return find[model.Appointment](ctx, appointments, p)
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (model.Appointment, error) {
	return getByID[model.Appointment](ctx, appointments, id)
}

func (r *AppointmentRepository) Create(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	return queryOne[model.Appointment](ctx, appointments.table, `
		INSERT INTO appointments (staff_id, customer_id, service_id, location_id, starts_at, ends_at, status, notes, created_by)
		VALUES (@staff_id, @customer_id, @service_id, @location_id, @starts_at, @ends_at, @status, @notes, @created_by)
		RETURNING `+appointments.columns,
		pgx.NamedArgs{
			"staff_id":    a.StaffID,
			"customer_id": a.CustomerID,
			"service_id":  a.ServiceID,
			"location_id": a.LocationID,
			"starts_at":   a.StartsAt,
			"ends_at":     a.EndsAt,
			"status":      string(a.Status),
			"notes":       a.Notes,
			"created_by":  a.CreatedBy,
		})
}

// Reschedule moves an appointment to another slot, possibly with another
// staff member and their location.
func (r *AppointmentRepository) Reschedule(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	return queryOne[model.Appointment](ctx, appointments.table, `
		UPDATE appointments
		SET staff_id = @staff_id, location_id = @location_id, starts_at = @starts_at, ends_at = @ends_at,
			notes = @notes, updated_at = NOW()
		WHERE id = @id
		RETURNING `+appointments.columns,
		pgx.NamedArgs{
			"id":          a.ID,
			"staff_id":    a.StaffID,
			"location_id": a.LocationID,
			"starts_at":   a.StartsAt,
			"ends_at":     a.EndsAt,
			"notes":       a.Notes,
		})
}

func (r *AppointmentRepository) SetStatus(ctx context.Context, id int64, status model.AppointmentStatus) (model.Appointment, error) {
	return queryOne[model.Appointment](ctx, appointments.table, `
		UPDATE appointments SET status = @status, updated_at = NOW()
		WHERE id = @id
		RETURNING `+appointments.columns,
		pgx.NamedArgs{"id": id, "status": string(status)})
}

// Intervals implements schedule.IntervalSource over the non-cancelled
// appointments of a staff member.
func (r *AppointmentRepository) Intervals(ctx context.Context, subjectKey string, from, to time.Time) ([]schedule.Interval, error) {
	return staffIntervals(ctx, "appointments", "AND t.status <> 'cancelled'", subjectKey, from, to)
}

// AppointmentDetails is an appointment joined with the names a
// confirmation message needs.
type AppointmentDetails struct {
	model.Appointment
	CustomerName  string `db:"customer_name"`
	CustomerEmail string `db:"customer_email"`
	StaffName     string `db:"staff_name"`
	ServiceName   string `db:"service_name"`
	LocationName  string `db:"location_name"`
}

func (r *AppointmentRepository) Details(ctx context.Context, id int64) (AppointmentDetails, error) {
	return queryOne[AppointmentDetails](ctx, appointments.table, `
		SELECT a.id, a.staff_id, a.customer_id, a.service_id, a.location_id, a.starts_at, a.ends_at,
		       a.status, a.notes, a.created_by, a.created_at, a.updated_at,
		       c.full_name AS customer_name, c.email AS customer_email,
		       s.full_name AS staff_name, sv.name AS service_name, l.name AS location_name
		FROM appointments a
		JOIN customers c ON c.id = a.customer_id
		JOIN staff s ON s.id = a.staff_id
		JOIN services sv ON sv.id = a.service_id
		JOIN locations l ON l.id = a.location_id
		WHERE a.id = @id`,
		pgx.NamedArgs{"id": id})
}

var shifts = listSpec{
	table:   "shifts",
	columns: "id, staff_id, location_id, starts_at, ends_at, created_at, updated_at",
	filters: map[string]string{
		"staff_id":    "staff_id = @staff_id",
		"location_id": "location_id = @location_id",
		"date_from":   dateFromClause,
		"date_to":     dateToClause,
	},
	orderBy: map[string]string{"starts_at": "starts_at", "created_at": "created_at"},
}

type ShiftRepository struct{}

func (r *ShiftRepository) Mapping() Mapping { return shifts.mapping() }

func (r *ShiftRepository) Find(ctx context.Context, p query.FindParams) (query.FindResult[model.Shift], error) {
	return find[model.Shift](ctx, shifts, p)
}

func (r *ShiftRepository) GetByID(ctx context.Context, id int64) (model.Shift, error) {
	return getByID[model.Shift](ctx, shifts, id)
}

func (r *ShiftRepository) Create(ctx context.Context, s model.Shift) (model.Shift, error) {
	return queryOne[model.Shift](ctx, shifts.table, `
		INSERT INTO shifts (staff_id, location_id, starts_at, ends_at)
		VALUES (@staff_id, @location_id, @starts_at, @ends_at)
		RETURNING `+shifts.columns,
		shiftArgs(s))
}

func (r *ShiftRepository) Update(ctx context.Context, s model.Shift) (model.Shift, error) {
	return queryOne[model.Shift](ctx, shifts.table, `
		UPDATE shifts
		SET staff_id = @staff_id, location_id = @location_id, starts_at = @starts_at, ends_at = @ends_at, updated_at = NOW()
		WHERE id = @id
		RETURNING `+shifts.columns,
		shiftArgs(s))
}

func (r *ShiftRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, shifts.table, id)
}

func (r *ShiftRepository) Intervals(ctx context.Context, subjectKey string, from, to time.Time) ([]schedule.Interval, error) {
	return staffIntervals(ctx, "shifts", "", subjectKey, from, to)
}

func shiftArgs(s model.Shift) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":          s.ID,
		"staff_id":    s.StaffID,
		"location_id": s.LocationID,
		"starts_at":   s.StartsAt,
		"ends_at":     s.EndsAt,
	}
}

var dayOffs = listSpec{
	table:   "day_offs",
	columns: "id, staff_id, starts_at, ends_at, reason, created_at, updated_at",
	filters: map[string]string{
		"staff_id":  "staff_id = @staff_id",
		"date_from": dateFromClause,
		"date_to":   dateToClause,
	},
	search:  []string{"reason"},
	orderBy: map[string]string{"starts_at": "starts_at", "created_at": "created_at"},
}

type DayOffRepository struct{}

func (r *DayOffRepository) Mapping() Mapping { return dayOffs.mapping() }

func (r *DayOffRepository) Find(ctx context.Context, p query.FindParams) (query.FindResult[model.DayOff], error) {
	return find[model.DayOff](ctx, dayOffs, p)
}

func (r *DayOffRepository) GetByID(ctx context.Context, id int64) (model.DayOff, error) {
	return getByID[model.DayOff](ctx, dayOffs, id)
}

func (r *DayOffRepository) Create(ctx context.Context, d model.DayOff) (model.DayOff, error) {
	return queryOne[model.DayOff](ctx, dayOffs.table, `
		INSERT INTO day_offs (staff_id, starts_at, ends_at, reason)
		VALUES (@staff_id, @starts_at, @ends_at, @reason)
		RETURNING `+dayOffs.columns,
		dayOffArgs(d))
}

func (r *DayOffRepository) Update(ctx context.Context, d model.DayOff) (model.DayOff, error) {
	return queryOne[model.DayOff](ctx, dayOffs.table, `
		UPDATE day_offs
		SET staff_id = @staff_id, starts_at = @starts_at, ends_at = @ends_at, reason = @reason, updated_at = NOW()
		WHERE id = @id
		RETURNING `+dayOffs.columns,
		dayOffArgs(d))
}

func (r *DayOffRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, dayOffs.table, id)
}

func (r *DayOffRepository) Intervals(ctx context.Context, subjectKey string, from, to time.Time) ([]schedule.Interval, error) {
	return staffIntervals(ctx, "day_offs", "", subjectKey, from, to)
}

func dayOffArgs(d model.DayOff) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":        d.ID,
		"staff_id":  d.StaffID,
		"starts_at": d.StartsAt,
		"ends_at":   d.EndsAt,
		"reason":    d.Reason,
	}
}

// staffIntervals loads the intervals of one staff member in table that
// intersect [from, to). table and extra are constants, never user input.
func staffIntervals(ctx context.Context, table, extra, subjectKey string, from, to time.Time) ([]schedule.Interval, error) {
	staffID, err := strconv.ParseInt(subjectKey, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid staff key %q: %w", table, subjectKey, err)
	}

	conn, err := database.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `
		SELECT t.id, t.starts_at, t.ends_at, s.full_name
		FROM `+table+` t
		JOIN staff s ON s.id = t.staff_id
		WHERE t.staff_id = @staff_id AND t.starts_at < @to AND t.ends_at > @from `+extra+`
		ORDER BY t.starts_at, t.id`,
		pgx.NamedArgs{"staff_id": staffID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("loading %s intervals: %w", table, err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (schedule.Interval, error) {
		i := schedule.Interval{SubjectKey: subjectKey}
		err := row.Scan(&i.ID, &i.Start, &i.End, &i.SubjectName)
		return i, err
	})
}
