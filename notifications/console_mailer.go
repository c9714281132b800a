package notifications

import (
	"context"
	"log"
	"sync"
)

// ConsoleMailer logs messages instead of delivering them and keeps a copy of
// everything sent.
type ConsoleMailer struct {
	mu   sync.Mutex
	sent []Message
}

func NewConsoleMailer() *ConsoleMailer {
	return &ConsoleMailer{}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if err := validRecipient(msg.To); err != nil {
		return err
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	log.Printf("📧 [console mailer] to=%s subject=%q", msg.To.Email, msg.Subject)
	return nil
}

// Sent returns a snapshot of the messages sent so far.
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
