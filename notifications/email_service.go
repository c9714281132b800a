package notifications

import (
	"context"
	"log"
	"sync"
	"time"
)

const sendTimeout = 15 * time.Second

// EmailService renders transactional templates and hands them to a Mailer.
type EmailService struct {
	mailer      Mailer
	appName     string
	frontendURL string
	wg          sync.WaitGroup
}

func NewEmailService(mailer Mailer, appName, frontendURL string) *EmailService {
	return &EmailService{mailer: mailer, appName: appName, frontendURL: frontendURL}
}

func (s *EmailService) FrontendURL() string {
	return s.frontendURL
}

// SendNow renders and delivers the template synchronously.
func (s *EmailService) SendNow(ctx context.Context, to Recipient, template string, data map[string]any) error {
	merged := map[string]any{
		"AppName":     s.appName,
		"FrontendURL": s.frontendURL,
		"Name":        to.Name,
	}
	for k, v := range data {
		merged[k] = v
	}

	subject, html, err := Render(template, merged)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, Message{To: to, Subject: subject, HTMLBody: html})
}

// Send delivers in the background; failures are logged.
func (s *EmailService) Send(to Recipient, template string, data map[string]any) {
	if s == nil || s.mailer == nil {
		log.Println("Email client not initialized, skipping email send.")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := s.SendNow(ctx, to, template, data); err != nil {
			log.Printf("🔥 Failed to send %s email to %s: %v", template, to.Email, err)
			return
		}
		log.Printf("✅ Email %s sent to %s", template, to.Email)
	}()
}

// Wait blocks until background sends started so far have finished.
func (s *EmailService) Wait() {
	s.wg.Wait()
}
