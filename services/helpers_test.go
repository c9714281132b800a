package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/anjiri1684/mentora/payments"
	"github.com/anjiri1684/mentora/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "password123"

type push struct {
	UserID  uuid.UUID
	Payload interface{}
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes []push
}

func (p *recordingPusher) Push(userID uuid.UUID, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, push{UserID: userID, Payload: payload})
}

func (p *recordingPusher) For(userID uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ps := range p.pushes {
		if ps.UserID == userID {
			n++
		}
	}
	return n
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 " + html[:10]), nil
}

type stubStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
	err     error
}

func (s *stubStore) Upload(_ context.Context, r io.Reader, folder, publicID string, raw bool) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploads == nil {
		s.uploads = make(map[string][]byte)
	}
	key := folder + "/" + publicID
	s.uploads[key] = buf.Bytes()
	return "https://files.example.com/" + key + ".pdf", nil
}

type fakeGateway struct {
	mu            sync.Mutex
	created       int
	captureStatus string
	captureErr    error
	createErr     error
	lastAmount    float64
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount float64, currency, referenceID string) (*payments.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created++
	g.lastAmount = amount
	id := fmt.Sprintf("ORDER-%d-%s", g.created, referenceID[:8])
	return &payments.Order{ID: id, Status: payments.OrderCreated, ApproveURL: "https://paypal.test/approve/" + id}, nil
}

func (g *fakeGateway) CaptureOrder(_ context.Context, orderID string) (*payments.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	status := g.captureStatus
	if status == "" {
		status = payments.OrderCompleted
	}
	return &payments.Order{ID: orderID, Status: status}, nil
}

// env wires every service against one in-memory database.
type env struct {
	db           *gorm.DB
	mailer       *notifications.ConsoleMailer
	mail         *notifications.EmailService
	pusher       *recordingPusher
	store        *stubStore
	gateway      *fakeGateway
	notifier     *NotificationService
	users        *UserService
	mentors      *MentorService
	courses      *CourseService
	certificates *CertificateService
	enrollments  *EnrollmentService
	quizzes      *QuizService
	reviews      *ReviewService
	transactions *TransactionService
	analytics    *AnalyticsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		db:      testutil.OpenDB(t),
		mailer:  notifications.NewConsoleMailer(),
		pusher:  &recordingPusher{},
		store:   &stubStore{},
		gateway: &fakeGateway{},
	}
	e.mail = notifications.NewEmailService(e.mailer, "Mentora", "https://mentora.test")
	e.notifier = NewNotificationService(e.db, e.pusher)
	e.users = NewUserService(e.db, e.mail, "test-secret", time.Hour)
	e.mentors = NewMentorService(e.db, e.notifier, e.mail)
	e.courses = NewCourseService(e.db, e.notifier, e.mail)
	e.certificates = NewCertificateService(e.db, stubRenderer{}, e.store, e.mail, "Mentora", "https://mentora.test")
	e.enrollments = NewEnrollmentService(e.db, e.notifier, e.mail, e.certificates)
	e.quizzes = NewQuizService(e.db, e.enrollments, 70)
	e.reviews = NewReviewService(e.db, e.notifier)
	e.transactions = NewTransactionService(e.db, e.gateway, e.enrollments, e.notifier, e.mail, 20)
	e.analytics = NewAnalyticsService(e.db, e.transactions)
	t.Cleanup(func() {
		e.certificates.Wait()
		e.mail.Wait()
	})
	return e
}

// sentTo waits for background work and returns the messages sent to
// address.
func (e *env) sentTo(address string) []notifications.Message {
	e.certificates.Wait()
	e.mail.Wait()
	var out []notifications.Message
	for _, m := range e.mailer.Sent() {
		if m.To.Email == address {
			out = append(out, m)
		}
	}
	return out
}

func (e *env) user(t *testing.T, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	id := uuid.New()
	u := &models.User{
		Base:     models.Base{ID: id},
		FullName: "User " + id.String()[:6],
		Email:    id.String()[:8] + "@example.com",
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *env) mentor(t *testing.T) *models.User {
	t.Helper()
	u := e.user(t, models.RoleMentor)
	require.NoError(t, e.db.Create(&models.MentorProfile{
		UserID:   u.ID,
		Headline: "Senior Go engineer",
		Bio:      "Ten years of building backend services in Go.",
		Status:   models.MentorApproved,
	}).Error)
	return u
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func strPtr(s string) *string {
	return &s
}

// draftCourse creates a course through the service with one section and the
// given number of article materials.
func (e *env) draftCourse(t *testing.T, mentor *models.User, price float64, materials int) (*models.Course, []*models.Material) {
	t.Helper()
	course, err := e.courses.Create(actorOf(mentor), CourseInput{
		Title:       "Go for Backend Developers " + uuid.NewString()[:4],
		Description: "A practical introduction to building services in Go.",
		Category:    "Programming",
		Level:       models.LevelBeginner,
		Price:       price,
	})
	require.NoError(t, err)

	section, err := e.courses.AddSection(actorOf(mentor), course.ID, SectionInput{Title: "Getting started"})
	require.NoError(t, err)

	out := make([]*models.Material, 0, materials)
	for i := 0; i < materials; i++ {
		m, err := e.courses.AddMaterial(actorOf(mentor), section.ID, MaterialInput{
			Title: fmt.Sprintf("Lesson %d", i+1),
			Type:  models.MaterialArticle,
			Body:  strPtr("Lesson body"),
		})
		require.NoError(t, err)
		out = append(out, m)
	}
	return course, out
}

// publishedCourse runs a draft through review and approval.
func (e *env) publishedCourse(t *testing.T, mentor *models.User, price float64, materials int) (*models.Course, []*models.Material) {
	t.Helper()
	course, mats := e.draftCourse(t, mentor, price, materials)
	_, err := e.courses.Submit(actorOf(mentor), course.ID)
	require.NoError(t, err)
	course, err = e.courses.Approve(course.ID)
	require.NoError(t, err)
	return course, mats
}

func (e *env) enrolled(t *testing.T, course *models.Course) *models.User {
	t.Helper()
	student := e.user(t, models.RoleStudent)
	_, err := e.enrollments.Enroll(actorOf(student), course.ID)
	require.NoError(t, err)
	return student
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureLog redirects the standard logger for the rest of the test.
func captureLog(t *testing.T) *syncBuffer {
	t.Helper()
	out := &syncBuffer{}
	log.SetOutput(out)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return out
}

// failUpdates makes every UPDATE on table fail.
func (e *env) failUpdates(t *testing.T, table string) {
	t.Helper()
	err := e.db.Callback().Update().Before("gorm:update").Register("test:fail_updates", func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)
}
