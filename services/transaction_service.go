package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/anjiri1684/mentora/payments"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PaymentGateway is the part of the payment provider checkout needs.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, referenceID string) (*payments.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*payments.Order, error)
}

type CheckoutResult struct {
	Transaction *models.Transaction `json:"transaction"`
	OrderID     string              `json:"order_id"`
	ApproveURL  string              `json:"approve_url"`
}

type CaptureResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Enrollment  *models.Enrollment  `json:"enrollment"`
}

// TransactionFilter narrows the admin transaction listing.
type TransactionFilter struct {
	Status   string
	Provider string
	UserID   *uuid.UUID
	CourseID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

type CourseEarning struct {
	CourseID uuid.UUID `json:"course_id"`
	Title    string    `json:"title"`
	Sales    int64     `json:"sales"`
	Gross    float64   `json:"gross"`
}

type Earnings struct {
	FeePercent  float64         `json:"fee_percent"`
	Sales       int64           `json:"sales"`
	Gross       float64         `json:"gross"`
	PlatformFee float64         `json:"platform_fee"`
	Net         float64         `json:"net"`
	Courses     []CourseEarning `json:"courses"`
}

type TransactionService struct {
	db          *gorm.DB
	gateway     PaymentGateway
	enrollments *EnrollmentService
	notifier    *NotificationService
	mail        Emailer
	feePercent  float64
	now         func() time.Time
}

func NewTransactionService(db *gorm.DB, gateway PaymentGateway, enrollments *EnrollmentService, notifier *NotificationService, mail Emailer, feePercent float64) *TransactionService {
	return &TransactionService{
		db:          db,
		gateway:     gateway,
		enrollments: enrollments,
		notifier:    notifier,
		mail:        mail,
		feePercent:  feePercent,
		now:         time.Now,
	}
}

func errGateway(err error) error {
	log.Printf("🔥 Payment provider error: %v", err)
	return apperrors.New(fiber.StatusBadGateway, "Payment provider is unavailable, please try again")
}

// Checkout opens a payment for a paid course. A pending transaction for the
// same course is reused.
func (s *TransactionService) Checkout(ctx context.Context, actor Actor, courseID uuid.UUID) (*CheckoutResult, error) {
	if s.gateway == nil {
		return nil, apperrors.New(fiber.StatusServiceUnavailable, "Payments are not configured")
	}

	var course models.Course
	if err := first(s.db, &course, "Course", "id = ?", courseID); err != nil {
		return nil, err
	}
	if err := checkEnrollable(s.db, actor.ID, &course); err != nil {
		return nil, err
	}
	if course.IsFree() {
		return nil, apperrors.BadRequest("This course is free, enroll directly")
	}

	var txn models.Transaction
	err := s.db.Where("user_id = ? AND course_id = ? AND provider = ? AND status = ?",
		actor.ID, course.ID, models.ProviderPayPal, models.TransactionPending).
		Order("created_at desc").First(&txn).Error
	if err == nil && (txn.Amount != course.Price || txn.Currency != course.Currency) {
		// The price changed since the order was opened.
		if err := s.db.Model(&txn).Update("status", models.TransactionFailed).Error; err != nil {
			return nil, errors.Wrap(err, "expiring outdated transaction")
		}
		err = gorm.ErrRecordNotFound
	}
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		txn = models.Transaction{
			UserID:   actor.ID,
			CourseID: course.ID,
			Amount:   course.Price,
			Currency: course.Currency,
			Provider: models.ProviderPayPal,
			Status:   models.TransactionPending,
		}
		if err := s.db.Create(&txn).Error; err != nil {
			return nil, errors.Wrap(err, "creating transaction")
		}
	default:
		return nil, errors.Wrap(err, "loading pending transaction")
	}

	order, err := s.gateway.CreateOrder(ctx, txn.Amount, txn.Currency, txn.ID.String())
	if err != nil {
		return nil, errGateway(err)
	}
	if txn.ProviderOrderID == nil || *txn.ProviderOrderID != order.ID {
		if err := s.db.Model(&txn).Update("provider_order_id", order.ID).Error; err != nil {
			return nil, errors.Wrap(err, "saving order id")
		}
		txn.ProviderOrderID = &order.ID
	}

	return &CheckoutResult{Transaction: &txn, OrderID: order.ID, ApproveURL: order.ApproveURL}, nil
}

// Capture completes an approved order and enrolls the buyer. Capturing a
// transaction that already succeeded returns the existing enrollment.
func (s *TransactionService) Capture(ctx context.Context, actor Actor, transactionID uuid.UUID) (*CaptureResult, error) {
	var txn models.Transaction
	if err := first(s.db, &txn, "Transaction", "id = ?", transactionID); err != nil {
		return nil, err
	}
	if txn.UserID != actor.ID {
		return nil, apperrors.NotFound("Transaction")
	}

	switch txn.Status {
	case models.TransactionSuccess:
		return s.captured(&txn)
	case models.TransactionPending:
	default:
		return nil, apperrors.Conflict("Transaction is %s and cannot be captured", txn.Status)
	}
	if txn.ProviderOrderID == nil || s.gateway == nil {
		return nil, apperrors.BadRequest("Transaction has no payment order to capture")
	}

	order, err := s.gateway.CaptureOrder(ctx, *txn.ProviderOrderID)
	if err != nil {
		return nil, errGateway(err)
	}
	if order.Status != payments.OrderCompleted {
		if err := s.db.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionPending).
			Update("status", models.TransactionFailed).Error; err != nil {
			log.Printf("🔥 Error failing transaction %s: %v", txn.ID, err)
		}
		return nil, apperrors.BadRequest("Payment was not completed (status %s)", order.Status)
	}

	var enrollment *models.Enrollment
	var firstCapture bool
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionPending).
			Update("status", models.TransactionSuccess)
		if res.Error != nil {
			return errors.Wrap(res.Error, "marking transaction paid")
		}
		if res.RowsAffected == 0 {
			return nil
		}
		firstCapture = true

		var err error
		enrollment, err = enrollTx(tx, txn.UserID, txn.CourseID)
		if apperrors.IsConflict(err) {
			enrollment, err = nil, nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !firstCapture || enrollment == nil {
		if err := s.db.First(&txn, "id = ?", txn.ID).Error; err != nil {
			return nil, errors.Wrap(err, "reloading transaction")
		}
		return s.captured(&txn)
	}

	var course models.Course
	if err := first(s.db, &course, "Course", "id = ?", txn.CourseID); err != nil {
		return nil, err
	}
	if err := s.enrollments.afterEnroll(enrollment, &course); err != nil {
		return nil, err
	}
	txn.Status = models.TransactionSuccess
	return &CaptureResult{Transaction: &txn, Enrollment: enrollment}, nil
}

func (s *TransactionService) captured(txn *models.Transaction) (*CaptureResult, error) {
	var enrollment models.Enrollment
	if err := first(s.db, &enrollment, "Enrollment", "user_id = ? AND course_id = ?", txn.UserID, txn.CourseID); err != nil {
		return nil, err
	}
	return &CaptureResult{Transaction: txn, Enrollment: &enrollment}, nil
}

func (s *TransactionService) Get(actor Actor, transactionID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := first(s.db.Preload("Course"), &txn, "Transaction", "id = ?", transactionID); err != nil {
		return nil, err
	}
	if txn.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.NotFound("Transaction")
	}
	return &txn, nil
}

func (s *TransactionService) ListMine(userID uuid.UUID, p Pagination) (Page[models.Transaction], error) {
	q := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	return paginate[models.Transaction](q, p, "created_at desc", "Course")
}

func (s *TransactionService) filtered(f TransactionFilter) *gorm.DB {
	q := s.db.Model(&models.Transaction{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Provider != "" {
		q = q.Where("provider = ?", f.Provider)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.CourseID != nil {
		q = q.Where("course_id = ?", *f.CourseID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	return q
}

func (s *TransactionService) List(f TransactionFilter, p Pagination) (Page[models.Transaction], error) {
	return paginate[models.Transaction](s.filtered(f), p, "created_at desc", "User", "Course")
}

// Refund marks a successful payment refunded and cancels the enrollment. The
// money itself is returned through the provider's dashboard.
func (s *TransactionService) Refund(transactionID uuid.UUID, reason string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := first(tx.Preload("User").Preload("Course"), &txn, "Transaction", "id = ?", transactionID); err != nil {
			return err
		}
		if txn.Provider == models.ProviderFree {
			return apperrors.BadRequest("Free enrollments cannot be refunded")
		}
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionSuccess).
			Update("status", models.TransactionRefunded)
		if res.Error != nil {
			return errors.Wrap(res.Error, "refunding transaction")
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Only successful transactions can be refunded")
		}
		txn.Status = models.TransactionRefunded

		return errors.Wrap(tx.Model(&models.Enrollment{}).
			Where("user_id = ? AND course_id = ?", txn.UserID, txn.CourseID).
			Update("status", models.EnrollmentCancelled).Error, "cancelling enrollment")
	})
	if err != nil {
		return nil, err
	}

	title := "your course"
	if txn.Course != nil {
		title = fmt.Sprintf("%q", txn.Course.Title)
	}
	msg := fmt.Sprintf("Your payment of %.2f %s for %s was refunded.", txn.Amount, txn.Currency, title)
	if reason != "" {
		msg += " " + reason
	}
	if _, err := s.notifier.Notify(txn.UserID, models.NotifyPayment, "Refund processed", msg, "/transactions"); err != nil {
		return nil, err
	}
	if txn.User != nil && txn.Course != nil {
		s.mail.Send(recipient(txn.User), notifications.TemplateRefundProcessed, map[string]any{
			"CourseTitle": txn.Course.Title,
			"Amount":      txn.Amount,
			"Currency":    txn.Currency,
		})
	}
	return &txn, nil
}

// ExpireStale fails pending transactions older than maxAge and returns how
// many were expired.
func (s *TransactionService) ExpireStale(maxAge time.Duration) (int64, error) {
	res := s.db.Model(&models.Transaction{}).
		Where("status = ? AND created_at < ?", models.TransactionPending, s.now().Add(-maxAge)).
		Update("status", models.TransactionFailed)
	return res.RowsAffected, errors.Wrap(res.Error, "expiring pending transactions")
}

// MentorEarnings sums successful sales of the mentor's courses in [from, to].
// Nil bounds are open.
func (s *TransactionService) MentorEarnings(mentorID uuid.UUID, from, to *time.Time) (*Earnings, error) {
	q := s.db.Model(&models.Transaction{}).
		Select("courses.id AS course_id, courses.title AS title, COUNT(*) AS sales, COALESCE(SUM(transactions.amount), 0) AS gross").
		Joins("JOIN courses ON courses.id = transactions.course_id").
		Where("courses.mentor_id = ? AND transactions.status = ? AND transactions.amount > 0", mentorID, models.TransactionSuccess)
	if from != nil {
		q = q.Where("transactions.created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("transactions.created_at <= ?", *to)
	}

	rows := make([]CourseEarning, 0)
	if err := q.Group("courses.id, courses.title").Order("gross desc").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "summing earnings")
	}

	out := &Earnings{FeePercent: s.feePercent, Courses: rows}
	for _, r := range rows {
		out.Sales += r.Sales
		out.Gross += r.Gross
	}
	out.Gross = roundMoney(out.Gross)
	out.PlatformFee = roundMoney(out.Gross * s.feePercent / 100)
	out.Net = roundMoney(out.Gross - out.PlatformFee)
	return out, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
