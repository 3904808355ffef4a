package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/validation"
)

type CreateReview struct {
	AppointmentID int64  `json:"appointment_id" validate:"required,gt=0"`
	Rating        int    `json:"rating" validate:"required,min=1,max=5"`
	Comment       string `json:"comment" validate:"max=2000"`
}

func (r *CreateReview) Validate() error { return validation.Struct(r) }

type UpdateReview struct {
	ID      int64  `param:"id" json:"-" validate:"required,gt=0"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (r *UpdateReview) Validate() error { return validation.Struct(r) }

type reviewStore interface {
	reader[model.Review]
	deleter
	Create(ctx context.Context, r model.Review) (model.Review, error)
	Update(ctx context.Context, r model.Review) (model.Review, error)
}

type ReviewService struct {
	reviews      reviewStore
	appointments byID[model.Appointment]
}

func NewReviewService(reviews reviewStore, appointments byID[model.Appointment]) *ReviewService {
	return &ReviewService{reviews: reviews, appointments: appointments}
}

// Create reviews a completed appointment on behalf of its customer.
func (s *ReviewService) Create(ctx context.Context, req CreateReview) (model.Review, error) {
	a, err := s.appointments.GetByID(ctx, req.AppointmentID)
	if err != nil {
		return model.Review{}, err
	}
	if a.Status != model.AppointmentCompleted {
		return model.Review{}, badRequest("APPOINTMENT_NOT_COMPLETED",
			fmt.Sprintf("Appointment %d cannot be reviewed before it is completed", a.ID))
	}

	return s.reviews.Create(ctx, model.Review{
		AppointmentID: a.ID,
		CustomerID:    a.CustomerID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
}

func (s *ReviewService) Update(ctx context.Context, req UpdateReview) (model.Review, error) {
	return s.reviews.Update(ctx, model.Review{ID: req.ID, Rating: req.Rating, Comment: req.Comment})
}

// MarkNotificationRead stamps the notification as read. Repeating it keeps
// the first read time.
type MarkNotificationRead struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (r *MarkNotificationRead) Validate() error { return validation.Struct(r) }

// RecordNotification stores a delivered notification. It is sent by the
// delivery worker, never by clients.
type RecordNotification struct {
	CustomerID    int64
	AppointmentID *int64
	Channel       string
	Subject       string
	Body          string
	SentAt        time.Time
}

type notificationStore interface {
	reader[model.Notification]
	Create(ctx context.Context, n model.Notification) (model.Notification, error)
	MarkRead(ctx context.Context, id int64) (model.Notification, error)
}

type NotificationService struct {
	repo notificationStore
}

func NewNotificationService(repo notificationStore) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) MarkRead(ctx context.Context, req MarkNotificationRead) (model.Notification, error) {
	return s.repo.MarkRead(ctx, req.ID)
}

func (s *NotificationService) Record(ctx context.Context, req RecordNotification) (model.Notification, error) {
	channel := req.Channel
	if channel == "" {
		channel = model.ChannelEmail
	}
	sentAt := req.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	return s.repo.Create(ctx, model.Notification{
		CustomerID:    req.CustomerID,
		AppointmentID: req.AppointmentID,
		Channel:       channel,
		Subject:       req.Subject,
		Body:          req.Body,
		SentAt:        sentAt,
	})
}
