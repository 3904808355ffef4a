// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - You enqueue tasks (producer) using asynq.Client.
//   - A server runs workers that process those tasks (consumer) using asynq.Server.
package job

import (
	"errors"
	"time"

	"github.com/deppfellow/booking-backend/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

var ErrHandlersNotInitialized = errors.New("job: handlers not initialized")

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger

	// Worker dependencies, set by InitHandlers.
	deliveries Deliveries
	sender     Sender

	// timeout bounds every outbound delivery call.
	timeout time.Duration
}

// NewJobService creates a JobService configured to use Redis from cfg.
//
// Queue weights give "critical" tasks the largest worker share.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisAddr := cfg.Redis.Address

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6, // confirmations of new bookings
				"default":  3,
				"low":      1,
			},
			Logger: asynqLogger{logger},
		},
	)

	return &JobService{
		Client:  client,
		server:  server,
		logger:  logger,
		timeout: cfg.Booking.DeliveryTimeout,
	}
}

// Start registers the task handlers and starts the workers. InitHandlers
// must be called first.
func (j *JobService) Start() error {
	if j.deliveries == nil || j.sender == nil {
		return ErrHandlersNotInitialized
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskAppointmentConfirmation, j.handleAppointmentConfirmationTask)

	j.logger.Info().Msg("Starting background job server")

	return j.server.Start(mux)
}

// Stop gracefully stops the job server and closes client resources.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}

// asynqLogger routes Asynq's own logs through zerolog.
type asynqLogger struct {
	logger *zerolog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.logger.Debug().Msg(sprint(args)) }
func (l asynqLogger) Info(args ...any)  { l.logger.Info().Msg(sprint(args)) }
func (l asynqLogger) Warn(args ...any)  { l.logger.Warn().Msg(sprint(args)) }
func (l asynqLogger) Error(args ...any) { l.logger.Error().Msg(sprint(args)) }
func (l asynqLogger) Fatal(args ...any) { l.logger.Fatal().Msg(sprint(args)) }
