package jobs

import (
	"testing"
	"time"

	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/anjiri1684/mentora/services"
	"github.com/anjiri1684/mentora/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUser(t *testing.T, db *gorm.DB, role string, active bool) models.User {
	t.Helper()
	id := uuid.New()
	u := models.User{
		Base:     models.Base{ID: id},
		FullName: "User " + id.String()[:6],
		Email:    id.String()[:8] + "@example.com",
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(&u).Error)
	if !active {
		require.NoError(t, db.Model(&u).Update("is_active", false).Error)
	}
	return u
}

func TestRunPendingReviewDigest(t *testing.T) {
	db := testutil.OpenDB(t)
	mailer := notifications.NewConsoleMailer()
	mail := notifications.NewEmailService(mailer, "Mentora", "https://mentora.test")

	admin := newUser(t, db, models.RoleAdmin, true)
	newUser(t, db, models.RoleAdmin, false)
	mentor := newUser(t, db, models.RoleMentor, true)

	sent, err := RunPendingReviewDigest(db, mail)
	require.NoError(t, err)
	assert.Zero(t, sent, "an empty queue sends nothing")

	require.NoError(t, db.Create(&models.Course{
		MentorID: mentor.ID,
		Title:    "Waiting",
		Slug:     "waiting",
		Status:   models.CoursePendingReview,
	}).Error)

	sent, err = RunPendingReviewDigest(db, mail)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	mail.Wait()
	messages := mailer.Sent()
	require.Len(t, messages, 1)
	assert.Equal(t, admin.Email, messages[0].To.Email)
	assert.Equal(t, "[Mentora] Moderation queue", messages[0].Subject)
}

func TestExpireStaleTransactions(t *testing.T) {
	db := testutil.OpenDB(t)
	mail := notifications.NewEmailService(notifications.NewConsoleMailer(), "Mentora", "https://mentora.test")
	notifier := services.NewNotificationService(db, nil)
	certs := services.NewCertificateService(db, nil, nil, mail, "Mentora", "https://mentora.test")
	enrollments := services.NewEnrollmentService(db, notifier, mail, certs)
	txns := services.NewTransactionService(db, nil, enrollments, notifier, mail, 20)

	student := newUser(t, db, models.RoleStudent, true)
	mentor := newUser(t, db, models.RoleMentor, true)
	course := models.Course{MentorID: mentor.ID, Title: "Paid", Slug: "paid", Price: 10, Status: models.CoursePublished}
	require.NoError(t, db.Create(&course).Error)

	pending := func(createdAt time.Time) models.Transaction {
		txn := models.Transaction{
			Base:     models.Base{CreatedAt: createdAt},
			UserID:   student.ID,
			CourseID: course.ID,
			Amount:   10,
			Currency: "USD",
			Provider: models.ProviderPayPal,
			Status:   models.TransactionPending,
		}
		require.NoError(t, db.Create(&txn).Error)
		return txn
	}
	stale := pending(time.Now().Add(-48 * time.Hour))
	fresh := pending(time.Now())

	ExpireStaleTransactions(txns, 24*time.Hour)()

	var reloaded models.Transaction
	require.NoError(t, db.First(&reloaded, "id = ?", stale.ID).Error)
	assert.Equal(t, models.TransactionFailed, reloaded.Status)
	require.NoError(t, db.First(&reloaded, "id = ?", fresh.ID).Error)
	assert.Equal(t, models.TransactionPending, reloaded.Status)
}
