package repository

import (
	"context"

	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/jackc/pgx/v5"
)

var reviews = listSpec{
	table:   "reviews",
	columns: "id, appointment_id, customer_id, rating, comment, created_at, updated_at",
	filters: map[string]string{
		"appointment_id": "appointment_id = @appointment_id",
		"customer_id":    "customer_id = @customer_id",
		"min_rating":     "rating >= @min_rating",
	},
	search:  []string{"comment"},
	orderBy: map[string]string{"rating": "rating", "created_at": "created_at"},
}

type ReviewRepository struct{}

func (r *ReviewRepository) Mapping() Mapping { return reviews.mapping() }

func (r *ReviewRepository) Find(ctx context.Context, p query.FindParams) (query.FindResult[model.Review], error) {
	return find[model.Review](ctx, reviews, p)
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (model.Review, error) {
	return getByID[model.Review](ctx, reviews, id)
}

func (r *ReviewRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	return queryOne[model.Review](ctx, reviews.table, `
		INSERT INTO reviews (appointment_id, customer_id, rating, comment)
		VALUES (@appointment_id, @customer_id, @rating, @comment)
		RETURNING `+reviews.columns,
		pgx.NamedArgs{
			"appointment_id": rv.AppointmentID,
			"customer_id":    rv.CustomerID,
			"rating":         rv.Rating,
			"comment":        rv.Comment,
		})
}

// Update only changes the rating and the comment.
func (r *ReviewRepository) Update(ctx context.Context, rv model.Review) (model.Review, error) {
	return queryOne[model.Review](ctx, reviews.table, `
		UPDATE reviews SET rating = @rating, comment = @comment, updated_at = NOW()
		WHERE id = @id
		RETURNING `+reviews.columns,
		pgx.NamedArgs{"id": rv.ID, "rating": rv.Rating, "comment": rv.Comment})
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, reviews.table, id)
}

var notifications = listSpec{
	table:   "notifications",
	columns: "id, customer_id, appointment_id, channel, subject, body, sent_at, read_at, created_at",
	filters: map[string]string{
		"customer_id":    "customer_id = @customer_id",
		"appointment_id": "appointment_id = @appointment_id",
		"channel":        "channel = @channel",
		"unread":         "(read_at IS NULL) = @unread",
	},
	search:  []string{"subject"},
	orderBy: map[string]string{"sent_at": "sent_at", "created_at": "created_at"},
}

type NotificationRepository struct{}

func (r *NotificationRepository) Mapping() Mapping { return notifications.mapping() }

func (r *NotificationRepository) Find(ctx context.Context, p query.FindParams) (query.FindResult[model.Notification], error) {
	return find[model.Notification](ctx, notifications, p)
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (model.Notification, error) {
	return getByID[model.Notification](ctx, notifications, id)
}

func (r *NotificationRepository) Create(ctx context.Context, n model.Notification) (model.Notification, error) {
	return queryOne[model.Notification](ctx, notifications.table, `
		INSERT INTO notifications (customer_id, appointment_id, channel, subject, body, sent_at)
		VALUES (@customer_id, @appointment_id, @channel, @subject, @body, @sent_at)
		RETURNING `+notifications.columns,
		pgx.NamedArgs{
			"customer_id":    n.CustomerID,
			"appointment_id": n.AppointmentID,
			"channel":        n.Channel,
			"subject":        n.Subject,
			"body":           n.Body,
			"sent_at":        n.SentAt,
		})
}

// MarkRead stamps read_at once; reading an already read notification keeps
// the first timestamp.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) (model.Notification, error) {
	return queryOne[model.Notification](ctx, notifications.table, `
		UPDATE notifications SET read_at = COALESCE(read_at, NOW())
		WHERE id = @id
		RETURNING `+notifications.columns,
		pgx.NamedArgs{"id": id})
}
