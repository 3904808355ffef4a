// Package model holds the booking entities.
//
// Every entity has a JSON shape (json tags) used by the API and a row
// shape (db tags) used by pgx.RowToStructByName. Timestamps are stored as
// timestamptz.
package model

import "time"

type Location struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	Phone     string    `json:"phone" db:"phone"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Service struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	PriceCents      int64     `json:"price_cents" db:"price_cents"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Duration is the default length of an appointment for this service.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

type Staff struct {
	ID         int64     `json:"id" db:"id"`
	LocationID int64     `json:"location_id" db:"location_id"`
	FullName   string    `json:"full_name" db:"full_name"`
	Email      string    `json:"email" db:"email"`
	Phone      string    `json:"phone" db:"phone"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type Customer struct {
	ID        int64     `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Review struct {
	ID            int64     `json:"id" db:"id"`
	AppointmentID int64     `json:"appointment_id" db:"appointment_id"`
	CustomerID    int64     `json:"customer_id" db:"customer_id"`
	Rating        int       `json:"rating" db:"rating"`
	Comment       string    `json:"comment" db:"comment"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type Notification struct {
	ID            int64      `json:"id" db:"id"`
	CustomerID    int64      `json:"customer_id" db:"customer_id"`
	AppointmentID *int64     `json:"appointment_id" db:"appointment_id"`
	Channel       string     `json:"channel" db:"channel"`
	Subject       string     `json:"subject" db:"subject"`
	Body          string     `json:"body" db:"body"`
	SentAt        time.Time  `json:"sent_at" db:"sent_at"`
	ReadAt        *time.Time `json:"read_at" db:"read_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

const ChannelEmail = "email"
