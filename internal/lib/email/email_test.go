package email

import (
	"strings"
	"testing"
)

func TestEveryTemplateRendersPreview(t *testing.T) {
	for name, data := range PreviewData {
		body, err := Render(name, data)
		if err != nil {
			t.Fatalf("Render(%s): %v", name, err)
		}
		if strings.Contains(body, "<no value>") {
			t.Fatalf("Render(%s) left a placeholder unfilled:\n%s", name, body)
		}
	}
}

func TestNewAppointmentConfirmation(t *testing.T) {
	c := PreviewData[TemplateAppointmentConfirmed].(AppointmentConfirmation)

	m, err := NewAppointmentConfirmation(c)
	if err != nil {
		t.Fatalf("NewAppointmentConfirmation: %v", err)
	}
	if m.To != "dewi@example.com" {
		t.Fatalf("To = %q", m.To)
	}
	if m.Subject != "Your Haircut appointment on Wed, 24 Dec 10:00" {
		t.Fatalf("Subject = %q", m.Subject)
	}
	for _, want := range []string{"Hi Dewi", "Siti", "Kemang", "Wed, 24 Dec 2025 10:00", "11:00 UTC", "Reference #42"} {
		if !strings.Contains(m.HTML, want) {
			t.Fatalf("body does not contain %q:\n%s", want, m.HTML)
		}
	}
}

func TestUnknownTemplate(t *testing.T) {
	if _, err := Render("missing", nil); err == nil {
		t.Fatalf("Render of an unknown template succeeded")
	}
}
