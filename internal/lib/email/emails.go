package email

import (
	"fmt"
	"time"
)

// AppointmentConfirmation is the data of a confirmation email. Times are
// already in the business timezone.
type AppointmentConfirmation struct {
	AppointmentID int64
	CustomerID    int64
	To            string
	CustomerName  string
	StaffName     string
	ServiceName   string
	LocationName  string
	StartsAt      time.Time
	EndsAt        time.Time
	Notes         string

	// Cancelled appointments are not confirmed.
	Cancelled bool
}

// NewAppointmentConfirmation renders the confirmation of c.
func NewAppointmentConfirmation(c AppointmentConfirmation) (Message, error) {
	body, err := Render(TemplateAppointmentConfirmed, c)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      c.To,
		Subject: fmt.Sprintf("Your %s appointment on %s", c.ServiceName, c.StartsAt.Format("Mon, 02 Jan 15:04")),
		HTML:    body,
	}, nil
}
