package service

import (
	"context"
	"time"

	"github.com/deppfellow/booking-backend/internal/lib/email"
	"github.com/deppfellow/booking-backend/internal/lib/job"
	"github.com/deppfellow/booking-backend/internal/mediator"
	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/repository"
)

// Deliveries gives the background workers access to bookings through the
// dispatcher, so each call gets its own transaction and the same
// logging and metrics as HTTP requests.
type Deliveries struct {
	dispatcher *mediator.Dispatcher
	loc        *time.Location
}

var _ job.Deliveries = (*Deliveries)(nil)

func NewDeliveries(d *mediator.Dispatcher, loc *time.Location) *Deliveries {
	if loc == nil {
		loc = time.UTC
	}
	return &Deliveries{dispatcher: d, loc: loc}
}

func (d *Deliveries) AppointmentConfirmation(ctx context.Context, appointmentID int64) (email.AppointmentConfirmation, error) {
	details, err := mediator.Send[repository.AppointmentDetails](ctx, d.dispatcher, GetAppointmentDetails{ID: appointmentID})
	if err != nil {
		return email.AppointmentConfirmation{}, err
	}

	return email.AppointmentConfirmation{
		AppointmentID: details.ID,
		CustomerID:    details.CustomerID,
		To:            details.CustomerEmail,
		CustomerName:  details.CustomerName,
		StaffName:     details.StaffName,
		ServiceName:   details.ServiceName,
		LocationName:  details.LocationName,
		StartsAt:      details.StartsAt.In(d.loc),
		EndsAt:        details.EndsAt.In(d.loc),
		Notes:         details.Notes,
		Cancelled:     details.Status == model.AppointmentCancelled,
	}, nil
}

func (d *Deliveries) RecordDelivery(ctx context.Context, del job.Delivery) error {
	appointmentID := del.AppointmentID
	_, err := mediator.Send[model.Notification](ctx, d.dispatcher, RecordNotification{
		CustomerID:    del.CustomerID,
		AppointmentID: &appointmentID,
		Channel:       del.Channel,
		Subject:       del.Subject,
		Body:          del.Body,
		SentAt:        del.SentAt,
	})
	return err
}
