package job

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/booking-backend/internal/lib/email"
	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/hibiken/asynq"
)

// Deliveries is the booking side of the workers: loading what to send and
// recording what was sent. Each call runs in its own transaction.
type Deliveries interface {
	AppointmentConfirmation(ctx context.Context, appointmentID int64) (email.AppointmentConfirmation, error)
	RecordDelivery(ctx context.Context, d Delivery) error
}

// Delivery is a message that reached its recipient.
type Delivery struct {
	CustomerID    int64
	AppointmentID int64
	Channel       string
	Subject       string
	Body          string
	SentAt        time.Time
}

// Sender sends a rendered email.
type Sender interface {
	Send(ctx context.Context, m email.Message) error
}

// InitHandlers sets the dependencies of the task handlers.
func (j *JobService) InitHandlers(deliveries Deliveries, sender Sender) {
	j.deliveries = deliveries
	j.sender = sender
}

// handleAppointmentConfirmationTask sends the confirmation email of an
// appointment and records it as a notification.
//
// Returning an error makes Asynq retry the task. A cancelled appointment is
// skipped without error.
func (j *JobService) handleAppointmentConfirmationTask(ctx context.Context, t *asynq.Task) error {
	var p AppointmentConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal appointment confirmation payload: %w: %w", err, asynq.SkipRetry)
	}

	logger := j.logger.With().
		Str("type", TaskAppointmentConfirmation).
		Int64("appointment_id", p.AppointmentID).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Msg("Processing appointment confirmation task")

	confirmation, err := j.deliveries.AppointmentConfirmation(ctx, p.AppointmentID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load appointment")
		return err
	}
	if confirmation.Cancelled {
		logger.Info().Msg("Appointment was cancelled, skipping confirmation")
		return nil
	}

	message, err := email.NewAppointmentConfirmation(confirmation)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	sendCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	if err := j.sender.Send(sendCtx, message); err != nil {
		logger.Error().Err(err).Msg("Failed to send appointment confirmation")
		return err
	}

	err = j.deliveries.RecordDelivery(ctx, Delivery{
		CustomerID:    confirmation.CustomerID,
		AppointmentID: confirmation.AppointmentID,
		Channel:       model.ChannelEmail,
		Subject:       message.Subject,
		Body:          message.HTML,
		SentAt:        time.Now(),
	})
	if err != nil {
		// The email is out; a retry would send it twice.
		logger.Error().Err(err).Msg("Failed to record appointment confirmation")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	logger.Info().Msg("Successfully sent appointment confirmation")
	return nil
}

func sprint(args []any) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}
