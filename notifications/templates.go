package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateWelcome             = "welcome"
	TemplatePasswordReset       = "password_reset"
	TemplateMentorApproved      = "mentor_approved"
	TemplateMentorRejected      = "mentor_rejected"
	TemplateCourseApproved      = "course_approved"
	TemplateCourseRejected      = "course_rejected"
	TemplateEnrollmentConfirmed = "enrollment_confirmed"
	TemplateCertificateIssued   = "certificate_issued"
	TemplateRefundProcessed     = "refund_processed"
	TemplatePendingReviewDigest = "pending_review_digest"
)

var subjects = map[string]string{
	TemplateWelcome:             "Welcome to {{.AppName}}!",
	TemplatePasswordReset:       "Your password reset link",
	TemplateMentorApproved:      "Your mentor application has been approved",
	TemplateMentorRejected:      "Update on your mentor application",
	TemplateCourseApproved:      "{{.CourseTitle}} is now live",
	TemplateCourseRejected:      "{{.CourseTitle}} needs changes",
	TemplateEnrollmentConfirmed: "You're enrolled in {{.CourseTitle}}",
	TemplateCertificateIssued:   "Your certificate for {{.CourseTitle}}",
	TemplateRefundProcessed:     "Your refund has been processed",
	TemplatePendingReviewDigest: "[{{.AppName}}] Moderation queue",
}

type compiled struct {
	subject *texttmpl.Template
	body    *template.Template
}

var (
	tmplOnce  sync.Once
	tmplCache map[string]compiled
	tmplErr   error
)

func parseTemplates() {
	tmplCache = make(map[string]compiled, len(subjects))
	for name, subj := range subjects {
		st, err := texttmpl.New(name).Option("missingkey=zero").Parse(subj)
		if err != nil {
			tmplErr = fmt.Errorf("parsing subject %s: %w", name, err)
			return
		}
		bt, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			tmplErr = fmt.Errorf("parsing template %s: %w", name, err)
			return
		}
		tmplCache[name] = compiled{subject: st, body: bt}
	}
}

// Render produces the subject and HTML body of the named template.
func Render(name string, data map[string]any) (string, string, error) {
	tmplOnce.Do(parseTemplates)
	if tmplErr != nil {
		return "", "", tmplErr
	}
	t, ok := tmplCache[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}

	var subj, body bytes.Buffer
	if err := t.subject.Execute(&subj, data); err != nil {
		return "", "", fmt.Errorf("rendering subject %s: %w", name, err)
	}
	if err := t.body.ExecuteTemplate(&body, "layout", data); err != nil {
		return "", "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return subj.String(), body.String(), nil
}
