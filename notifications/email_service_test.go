package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAllTemplates(t *testing.T) {
	data := map[string]any{
		"AppName":           "Mentora",
		"FrontendURL":       "https://mentora.test",
		"Name":              "Ada",
		"CourseTitle":       "Go for Gophers",
		"CourseSlug":        "go-for-gophers",
		"Reason":            "Add more sections",
		"ResetToken":        "abc",
		"ValidMinutes":      15,
		"CertificateNumber": "MNT-20260101-ABCDEFGH",
		"Amount":            19.99,
		"Currency":          "USD",
		"PendingMentors":    2,
		"PendingCourses":    3,
	}
	for name := range subjects {
		t.Run(name, func(t *testing.T) {
			subject, html, err := Render(name, data)
			require.NoError(t, err)
			assert.NotEmpty(t, subject)
			assert.Contains(t, html, "Hi Ada,")
		})
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("nope", nil)
	assert.Error(t, err)
}

func TestEmailServiceSend(t *testing.T) {
	mailer := NewConsoleMailer()
	svc := NewEmailService(mailer, "Mentora", "https://mentora.test")

	svc.Send(Recipient{Name: "Ada", Email: "ada@example.com"}, TemplateCourseApproved, map[string]any{
		"CourseTitle": "Go for Gophers",
		"CourseSlug":  "go-for-gophers",
	})
	svc.Wait()

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Go for Gophers is now live", sent[0].Subject)
	assert.Contains(t, sent[0].HTMLBody, "https://mentora.test/courses/go-for-gophers")
}

func TestConsoleMailerRejectsInvalidRecipient(t *testing.T) {
	err := NewConsoleMailer().Send(context.Background(), Message{To: Recipient{Email: "not-an-email"}})
	assert.Error(t, err)
}
