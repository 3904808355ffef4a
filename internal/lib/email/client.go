// Package email renders and sends transactional emails through Resend.
//
// Templates are embedded HTML files rendered with html/template.
package email

import (
	"context"

	"github.com/deppfellow/booking-backend/internal/config"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// Message is a rendered email ready to be sent.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Client wraps the Resend client.
type Client struct {
	client *resend.Client
	from   string
	logger *zerolog.Logger
}

func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	return &Client{
		client: resend.NewClient(cfg.Integration.ResendAPIKey),
		from:   cfg.Integration.EmailFrom,
		logger: logger,
	}
}

// Send delivers m. ctx bounds the API call.
func (c *Client) Send(ctx context.Context, m Message) error {
	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return errors.Wrapf(err, "failed to send email %q", m.Subject)
	}

	c.logger.Debug().Str("email_id", sent.Id).Str("subject", m.Subject).Msg("email sent")
	return nil
}
