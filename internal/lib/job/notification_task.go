package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskAppointmentConfirmation is the job type name stored in Redis.
	TaskAppointmentConfirmation = "notification:appointment_confirmed"
)

// AppointmentConfirmationPayload is the JSON payload of the confirmation
// task. It only carries the id: the worker reloads the committed row.
type AppointmentConfirmationPayload struct {
	AppointmentID int64 `json:"appointment_id"`
}

// NewAppointmentConfirmationTask constructs the confirmation task: up to 5
// retries on the critical queue, killed after 30 seconds.
func NewAppointmentConfirmationTask(appointmentID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(AppointmentConfirmationPayload{AppointmentID: appointmentID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAppointmentConfirmation,
		payload,
		asynq.MaxRetry(5),
		asynq.Queue("critical"),
		asynq.Timeout(30*time.Second),
	), nil
}

// EnqueueAppointmentConfirmation queues the confirmation of an appointment.
func (j *JobService) EnqueueAppointmentConfirmation(ctx context.Context, appointmentID int64) error {
	task, err := NewAppointmentConfirmationTask(appointmentID)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", TaskAppointmentConfirmation, err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Int64("appointment_id", appointmentID).
		Msg("appointment confirmation enqueued")
	return nil
}
