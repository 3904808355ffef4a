package email

import "time"

// PreviewData holds sample data for every template, used to render
// previews locally and in tests.
var PreviewData = map[Template]any{
	TemplateAppointmentConfirmed: AppointmentConfirmation{
		AppointmentID: 42,
		CustomerID:    7,
		To:            "dewi@example.com",
		CustomerName:  "Dewi",
		StaffName:     "Siti",
		ServiceName:   "Haircut",
		LocationName:  "Kemang",
		StartsAt:      time.Date(2025, 12, 24, 10, 0, 0, 0, time.UTC),
		EndsAt:        time.Date(2025, 12, 24, 11, 0, 0, 0, time.UTC),
		Notes:         "First visit",
	},
}
