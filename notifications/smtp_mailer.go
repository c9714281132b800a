package notifications

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     Recipient
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   Recipient
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := validRecipient(msg.To); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := gomail.NewMessage()
	mail.SetAddressHeader("From", m.from.Email, m.from.Name)
	mail.SetAddressHeader("To", msg.To.Email, msg.To.Name)
	mail.SetHeader("Subject", msg.Subject)
	if msg.TextBody != "" {
		mail.SetBody("text/plain", msg.TextBody)
		mail.AddAlternative("text/html", msg.HTMLBody)
	} else {
		mail.SetBody("text/html", msg.HTMLBody)
	}

	if err := m.dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To.Email, err)
	}
	return nil
}

func validRecipient(to Recipient) error {
	if to.Email == "" || !strings.Contains(to.Email, "@") {
		return fmt.Errorf("invalid recipient email: %q", to.Email)
	}
	return nil
}
