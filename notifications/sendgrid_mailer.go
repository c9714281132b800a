package notifications

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridMailer(apiKey string, from Recipient) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(from.Name, from.Email),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if err := validRecipient(msg.To); err != nil {
		return err
	}

	to := sgmail.NewEmail(msg.To.Name, msg.To.Email)
	text := msg.TextBody
	if text == "" {
		text = msg.Subject
	}
	mail := sgmail.NewSingleEmail(m.from, msg.Subject, to, text, msg.HTMLBody)

	res, err := m.client.SendWithContext(ctx, mail)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", msg.To.Email, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", msg.To.Email, res.StatusCode, res.Body)
	}
	return nil
}
