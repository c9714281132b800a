package notifications

import (
	"context"
	"log"
	"strings"

	config "github.com/anjiri1684/mentora/configs"
)

type Recipient struct {
	Name  string
	Email string
}

type Message struct {
	To       Recipient
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers a single rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailerFromConfig picks the delivery backend from EMAIL_PROVIDER
// ("smtp", "sendgrid" or "console"). Missing credentials fall back to console.
func NewMailerFromConfig() Mailer {
	from := Recipient{
		Name:  config.Default("EMAIL_SENDER_NAME", "Mentora"),
		Email: config.Config("EMAIL_SENDER"),
	}

	switch strings.ToLower(config.Default("EMAIL_PROVIDER", "smtp")) {
	case "sendgrid":
		key := config.Config("SENDGRID_API_KEY")
		if key == "" || from.Email == "" {
			log.Println("⚠️ SendGrid not configured, emails will be printed to the console.")
			return NewConsoleMailer()
		}
		log.Println("✅ Email service initialized (sendgrid).")
		return NewSendGridMailer(key, from)
	case "console":
		return NewConsoleMailer()
	default:
		host := config.Config("SMTP_HOST")
		if host == "" || from.Email == "" {
			log.Println("⚠️ SMTP not configured, emails will be printed to the console.")
			return NewConsoleMailer()
		}
		log.Println("✅ Email service initialized (smtp).")
		return NewSMTPMailer(SMTPConfig{
			Host:     host,
			Port:     config.Int("SMTP_PORT", 587),
			Username: config.Config("SMTP_USERNAME"),
			Password: config.Config("SMTP_PASSWORD"),
			From:     from,
		})
	}
}
