package services

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"log"
	"sync"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/anjiri1684/mentora/storage"
	"github.com/anjiri1684/mentora/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

//go:embed templates/certificate.html
var certificateFS embed.FS

var certificateTemplate = template.Must(template.ParseFS(certificateFS, "templates/certificate.html"))

const renderTimeout = 60 * time.Second

// FileStore persists generated files and returns their public URL.
type FileStore interface {
	Upload(ctx context.Context, r io.Reader, folder, publicID string, raw bool) (string, error)
}

// VerifiedCertificate is the public view of a certificate.
type VerifiedCertificate struct {
	CertificateNumber string    `json:"certificate_number"`
	StudentName       string    `json:"student_name"`
	CourseTitle       string    `json:"course_title"`
	MentorName        string    `json:"mentor_name"`
	IssuedAt          time.Time `json:"issued_at"`
	CertificateURL    string    `json:"certificate_url"`
}

type CertificateService struct {
	db          *gorm.DB
	renderer    PDFRenderer
	store       FileStore
	mail        Emailer
	appName     string
	frontendURL string
	wg          sync.WaitGroup
	now         func() time.Time
}

// NewCertificateService builds the service. renderer and store may be nil, in
// which case certificates are issued without a PDF.
func NewCertificateService(db *gorm.DB, renderer PDFRenderer, store FileStore, mail Emailer, appName, frontendURL string) *CertificateService {
	return &CertificateService{
		db:          db,
		renderer:    renderer,
		store:       store,
		mail:        mail,
		appName:     appName,
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

// Issue creates the certificate for a completed course once. The PDF is
// rendered and uploaded in the background; a failure there leaves the record
// with an empty URL.
func (s *CertificateService) Issue(userID, courseID uuid.UUID) (*models.Certificate, error) {
	var existing models.Certificate
	err := s.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "loading certificate")
	}

	var cert models.Certificate
	err = s.db.Transaction(func(tx *gorm.DB) error {
		issuedAt := s.now()
		number, err := utils.GenerateCertificateNumber(tx, issuedAt)
		if err != nil {
			return err
		}
		cert = models.Certificate{
			UserID:            userID,
			CourseID:          courseID,
			CertificateNumber: number,
			IssuedAt:          issuedAt,
		}
		return tx.Create(&cert).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if err := s.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error; err != nil {
			return nil, errors.Wrap(err, "loading certificate")
		}
		return &existing, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "creating certificate")
	}

	log.Printf("✅ Issued certificate %s to user %s for course %s", cert.CertificateNumber, userID, courseID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
		defer cancel()
		s.finish(ctx, cert.ID)
	}()
	return &cert, nil
}

// finish attaches the PDF, when possible, and emails the student.
func (s *CertificateService) finish(ctx context.Context, certID uuid.UUID) {
	cert, err := s.attachPDF(ctx, certID)
	if err != nil {
		log.Printf("🔥 Failed to generate certificate PDF for %s: %v", certID, err)
	}
	if cert == nil || cert.User == nil || cert.Course == nil {
		return
	}
	s.mail.Send(recipient(cert.User), notifications.TemplateCertificateIssued, map[string]any{
		"CourseTitle":       cert.Course.Title,
		"CertificateNumber": cert.CertificateNumber,
		"CertificateURL":    cert.CertificateURL,
	})
}

// attachPDF renders and uploads the certificate document and stores its URL.
// The loaded certificate is returned even when rendering fails.
func (s *CertificateService) attachPDF(ctx context.Context, certID uuid.UUID) (*models.Certificate, error) {
	var cert models.Certificate
	if err := first(s.db.Preload("User").Preload("Course.Mentor"), &cert, "Certificate", "id = ?", certID); err != nil {
		return nil, err
	}
	if s.renderer == nil || s.store == nil || cert.CertificateURL != "" {
		return &cert, nil
	}

	html, err := s.renderHTML(&cert)
	if err != nil {
		return &cert, err
	}
	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return &cert, err
	}
	url, err := s.store.Upload(ctx, bytes.NewReader(pdf), storage.FolderCertificates, cert.CertificateNumber, true)
	if err != nil {
		return &cert, errors.Wrap(err, "uploading certificate")
	}
	if err := s.db.Model(&cert).Update("certificate_url", url).Error; err != nil {
		return &cert, errors.Wrap(err, "saving certificate url")
	}
	cert.CertificateURL = url
	log.Printf("✅ Uploaded certificate %s", cert.CertificateNumber)
	return &cert, nil
}

func (s *CertificateService) renderHTML(cert *models.Certificate) (string, error) {
	data := map[string]string{
		"AppName":           s.appName,
		"CertificateNumber": cert.CertificateNumber,
		"IssuedOn":          cert.IssuedAt.Format("January 2, 2006"),
		"VerifyURL":         s.frontendURL + "/certificates/verify/" + cert.CertificateNumber,
	}
	if cert.User != nil {
		data["StudentName"] = cert.User.FullName
	}
	if cert.Course != nil {
		data["CourseTitle"] = cert.Course.Title
		if cert.Course.Mentor != nil {
			data["MentorName"] = cert.Course.Mentor.FullName
		}
	}

	var rendered bytes.Buffer
	if err := certificateTemplate.Execute(&rendered, data); err != nil {
		return "", errors.Wrap(err, "rendering certificate html")
	}
	return rendered.String(), nil
}

// RenderMissing retries PDF generation for up to limit certificates that
// have no document yet. It returns how many were completed.
func (s *CertificateService) RenderMissing(ctx context.Context, limit int) (int, error) {
	if s.renderer == nil || s.store == nil {
		return 0, nil
	}
	var ids []uuid.UUID
	if err := s.db.Model(&models.Certificate{}).
		Where("certificate_url = '' OR certificate_url IS NULL").
		Order("issued_at asc").Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return 0, errors.Wrap(err, "listing certificates without pdf")
	}

	done := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		cert, err := s.attachPDF(ctx, id)
		if err != nil {
			log.Printf("🔥 Retrying certificate PDF %s failed: %v", id, err)
			continue
		}
		if cert.CertificateURL != "" {
			done++
		}
	}
	return done, nil
}

// Wait blocks until background rendering started so far has finished.
func (s *CertificateService) Wait() {
	s.wg.Wait()
}

func (s *CertificateService) ListMine(userID uuid.UUID) ([]models.Certificate, error) {
	certs := make([]models.Certificate, 0)
	err := s.db.Preload("Course").
		Where("user_id = ?", userID).
		Order("issued_at desc").
		Find(&certs).Error
	return certs, errors.Wrap(err, "listing certificates")
}

// Verify looks a certificate up by its public number.
func (s *CertificateService) Verify(number string) (*VerifiedCertificate, error) {
	var cert models.Certificate
	if err := first(s.db.Preload("User").Preload("Course.Mentor"), &cert, "Certificate", "certificate_number = ?", number); err != nil {
		return nil, err
	}
	if cert.User == nil || cert.Course == nil {
		return nil, apperrors.NotFound("Certificate")
	}

	out := &VerifiedCertificate{
		CertificateNumber: cert.CertificateNumber,
		StudentName:       cert.User.FullName,
		CourseTitle:       cert.Course.Title,
		IssuedAt:          cert.IssuedAt,
		CertificateURL:    cert.CertificateURL,
	}
	if cert.Course.Mentor != nil {
		out.MentorName = cert.Course.Mentor.FullName
	}
	return out, nil
}
