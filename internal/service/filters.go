package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/deppfellow/booking-backend/internal/repository"
)

// Filter structs declare the keys each list endpoint accepts in its
// filter parameter. Keys must match the repository filter mappings.

type locationFilter struct {
	IsActive *bool   `json:"is_active"`
	Name     *string `json:"name" validate:"omitempty,max=120"`
}

func (locationFilter) FilterName() string { return "location" }

type serviceFilter struct {
	IsActive    *bool  `json:"is_active"`
	MaxPrice    *int64 `json:"max_price" validate:"omitempty,min=0"`
	MaxDuration *int   `json:"max_duration" validate:"omitempty,min=1"`
}

func (serviceFilter) FilterName() string { return "service" }

type staffFilter struct {
	LocationID *int64  `json:"location_id" validate:"omitempty,min=1"`
	IsActive   *bool   `json:"is_active"`
	Email      *string `json:"email" validate:"omitempty,email"`
}

func (staffFilter) FilterName() string { return "staff" }

type customerFilter struct {
	Email *string `json:"email" validate:"omitempty,email"`
}

func (customerFilter) FilterName() string { return "customer" }

type appointmentFilter struct {
	StaffID    *int64      `json:"staff_id" validate:"omitempty,min=1"`
	CustomerID *int64      `json:"customer_id" validate:"omitempty,min=1"`
	ServiceID  *int64      `json:"service_id" validate:"omitempty,min=1"`
	LocationID *int64      `json:"location_id" validate:"omitempty,min=1"`
	Status     *string     `json:"status" validate:"omitempty,oneof=scheduled cancelled completed"`
	DateFrom   *query.Date `json:"date_from"`
	DateTo     *query.Date `json:"date_to" validate:"omitempty,gte_if_set=DateFrom"`
}

func (appointmentFilter) FilterName() string { return "appointment" }

type shiftFilter struct {
	StaffID    *int64      `json:"staff_id" validate:"omitempty,min=1"`
	LocationID *int64      `json:"location_id" validate:"omitempty,min=1"`
	DateFrom   *query.Date `json:"date_from"`
	DateTo     *query.Date `json:"date_to" validate:"omitempty,gte_if_set=DateFrom"`
}

func (shiftFilter) FilterName() string { return "shift" }

type dayOffFilter struct {
	StaffID  *int64      `json:"staff_id" validate:"omitempty,min=1"`
	DateFrom *query.Date `json:"date_from"`
	DateTo   *query.Date `json:"date_to" validate:"omitempty,gte_if_set=DateFrom"`
}

func (dayOffFilter) FilterName() string { return "day_off" }

type reviewFilter struct {
	AppointmentID *int64 `json:"appointment_id" validate:"omitempty,min=1"`
	CustomerID    *int64 `json:"customer_id" validate:"omitempty,min=1"`
	MinRating     *int   `json:"min_rating" validate:"omitempty,min=1,max=5"`
}

func (reviewFilter) FilterName() string { return "review" }

type notificationFilter struct {
	CustomerID    *int64  `json:"customer_id" validate:"omitempty,min=1"`
	AppointmentID *int64  `json:"appointment_id" validate:"omitempty,min=1"`
	Channel       *string `json:"channel" validate:"omitempty,oneof=email"`
	Unread        *bool   `json:"unread"`
}

func (notificationFilter) FilterName() string { return "notification" }

// Pipelines holds the list pipeline of every entity.
type Pipelines struct {
	Locations     query.Pipeline[model.Location]
	Services      query.Pipeline[model.Service]
	Staff         query.Pipeline[model.Staff]
	Customers     query.Pipeline[model.Customer]
	Appointments  query.Pipeline[model.Appointment]
	Shifts        query.Pipeline[model.Shift]
	DayOffs       query.Pipeline[model.DayOff]
	Reviews       query.Pipeline[model.Review]
	Notifications query.Pipeline[model.Notification]
}

func pipeline[T any, F any](pageSize int, defaultOrder string, sortable ...string) query.Pipeline[T] {
	return query.Pipeline[T]{
		Filter:          query.NewFilterSpec[F](),
		Shape:           query.ShapeSpecFor[T]("id"),
		Sortable:        append([]string{"id"}, sortable...),
		DefaultOrderBy:  defaultOrder,
		DefaultPageSize: pageSize,
	}
}

// NewPipelines builds the list pipelines. Filter keys and sortable fields
// must match the repository mappings; Check enforces that.
func NewPipelines(pageSize int) Pipelines {
	return Pipelines{
		Locations:     pipeline[model.Location, locationFilter](pageSize, "name", "name", "created_at"),
		Services:      pipeline[model.Service, serviceFilter](pageSize, "name", "name", "price_cents", "duration_minutes"),
		Staff:         pipeline[model.Staff, staffFilter](pageSize, "full_name", "full_name", "created_at"),
		Customers:     pipeline[model.Customer, customerFilter](pageSize, "full_name", "full_name", "created_at"),
		Appointments:  pipeline[model.Appointment, appointmentFilter](pageSize, "starts_at", "starts_at", "status", "created_at"),
		Shifts:        pipeline[model.Shift, shiftFilter](pageSize, "starts_at", "starts_at", "created_at"),
		DayOffs:       pipeline[model.DayOff, dayOffFilter](pageSize, "starts_at", "starts_at", "created_at"),
		Reviews:       pipeline[model.Review, reviewFilter](pageSize, "created_at", "rating", "created_at"),
		Notifications: pipeline[model.Notification, notificationFilter](pageSize, "sent_at", "sent_at", "created_at"),
	}
}

type mapper interface {
	Mapping() repository.Mapping
}

// Check fails when a pipeline accepts a filter key or sort field its
// repository cannot translate to SQL.
func (p Pipelines) Check(repos *repository.Repositories) error {
	return errors.Join(
		checkMapping(p.Locations, repos.Locations),
		checkMapping(p.Services, repos.Services),
		checkMapping(p.Staff, repos.Staff),
		checkMapping(p.Customers, repos.Customers),
		checkMapping(p.Appointments, repos.Appointments),
		checkMapping(p.Shifts, repos.Shifts),
		checkMapping(p.DayOffs, repos.DayOffs),
		checkMapping(p.Reviews, repos.Reviews),
		checkMapping(p.Notifications, repos.Notifications),
	)
}

func checkMapping[T any](p query.Pipeline[T], repo mapper) error {
	m := repo.Mapping()

	var missing []string
	for _, f := range p.Filter.Fields() {
		if !slices.Contains(m.Filters, f.Name) {
			missing = append(missing, "filter "+f.Name)
		}
	}
	for _, field := range p.Sortable {
		if !slices.Contains(m.Sortable, field) {
			missing = append(missing, "sort "+field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s list: no column mapping for %s", p.Filter.Name(), strings.Join(missing, ", "))
	}
	return nil
}
