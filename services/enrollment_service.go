package services

import (
	"fmt"
	"math"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CourseProgress summarises one student's progress through a course.
type CourseProgress struct {
	CourseID             uuid.UUID           `json:"course_id"`
	Status               string              `json:"status"`
	Percent              float64             `json:"percent"`
	TotalMaterials       int64               `json:"total_materials"`
	CompletedMaterials   int64               `json:"completed_materials"`
	CompletedMaterialIDs []uuid.UUID         `json:"completed_material_ids"`
	CompletedAt          *time.Time          `json:"completed_at"`
	Certificate          *models.Certificate `json:"certificate,omitempty"`
}

type EnrollmentService struct {
	db       *gorm.DB
	notifier *NotificationService
	mail     Emailer
	certs    *CertificateService
	now      func() time.Time
}

func NewEnrollmentService(db *gorm.DB, notifier *NotificationService, mail Emailer, certs *CertificateService) *EnrollmentService {
	return &EnrollmentService{db: db, notifier: notifier, mail: mail, certs: certs, now: time.Now}
}

// Enroll registers the actor in a free course. Paid courses go through
// checkout and are enrolled when the payment is captured.
func (s *EnrollmentService) Enroll(actor Actor, courseID uuid.UUID) (*models.Enrollment, error) {
	var enrollment *models.Enrollment
	var course models.Course
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &course, "Course", "id = ?", courseID); err != nil {
			return err
		}
		if err := checkEnrollable(tx, actor.ID, &course); err != nil {
			return err
		}

		if course.IsFree() {
			txn := models.Transaction{
				UserID:   actor.ID,
				CourseID: course.ID,
				Amount:   0,
				Currency: course.Currency,
				Provider: models.ProviderFree,
				Status:   models.TransactionSuccess,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return errors.Wrap(err, "recording free enrollment")
			}
		} else {
			var paid int64
			if err := tx.Model(&models.Transaction{}).
				Where("user_id = ? AND course_id = ? AND status = ?", actor.ID, course.ID, models.TransactionSuccess).
				Count(&paid).Error; err != nil {
				return errors.Wrap(err, "checking payment")
			}
			if paid == 0 {
				return apperrors.BadRequest("This is a paid course, complete checkout to enroll")
			}
		}

		var err error
		enrollment, err = enrollTx(tx, actor.ID, course.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.afterEnroll(enrollment, &course); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// checkEnrollable rejects unpublished courses, owners and existing students.
func checkEnrollable(tx *gorm.DB, userID uuid.UUID, course *models.Course) error {
	if course.Status != models.CoursePublished {
		return apperrors.BadRequest("Course is not open for enrollment")
	}
	if course.MentorID == userID {
		return apperrors.BadRequest("You cannot enroll in your own course")
	}
	var existing models.Enrollment
	err := tx.Where("user_id = ? AND course_id = ?", userID, course.ID).First(&existing).Error
	if err == nil && existing.HasAccess() {
		return apperrors.Conflict("You are already enrolled in this course")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "loading enrollment")
	}
	return nil
}

// enrollTx creates the enrollment or reactivates a cancelled one.
func enrollTx(tx *gorm.DB, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	switch {
	case err == nil:
		if enrollment.HasAccess() {
			return nil, apperrors.Conflict("You are already enrolled in this course")
		}
		if err := tx.Model(&enrollment).Updates(map[string]interface{}{
			"status":       models.EnrollmentActive,
			"completed_at": nil,
		}).Error; err != nil {
			return nil, errors.Wrap(err, "reactivating enrollment")
		}
		enrollment.Status = models.EnrollmentActive
		enrollment.CompletedAt = nil
		return &enrollment, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		enrollment = models.Enrollment{UserID: userID, CourseID: courseID, Status: models.EnrollmentActive}
		if err := tx.Create(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.Conflict("You are already enrolled in this course")
			}
			return nil, errors.Wrap(err, "creating enrollment")
		}
		return &enrollment, nil
	default:
		return nil, errors.Wrap(err, "loading enrollment")
	}
}

func (s *EnrollmentService) afterEnroll(enrollment *models.Enrollment, course *models.Course) error {
	if _, err := s.notifier.Notify(enrollment.UserID, models.NotifyEnrollment,
		"Enrollment confirmed",
		fmt.Sprintf("You are now enrolled in %q.", course.Title),
		"/learn/"+course.Slug); err != nil {
		return err
	}
	if _, err := s.notifier.Notify(course.MentorID, models.NotifyEnrollment,
		"New student",
		fmt.Sprintf("A new student enrolled in %q.", course.Title),
		"/mentor/courses/"+course.ID.String()+"/students"); err != nil {
		return err
	}

	var student models.User
	if err := first(s.db, &student, "User", "id = ?", enrollment.UserID); err != nil {
		return err
	}
	s.mail.Send(recipient(&student), notifications.TemplateEnrollmentConfirmed, map[string]any{
		"CourseTitle": course.Title,
		"CourseSlug":  course.Slug,
	})
	return nil
}

// Cancel drops a free-course enrollment. Paid enrollments end through a refund.
func (s *EnrollmentService) Cancel(actor Actor, courseID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := first(s.db.Preload("Course"), &enrollment, "Enrollment", "user_id = ? AND course_id = ?", actor.ID, courseID); err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentActive {
		return nil, apperrors.Conflict("Only active enrollments can be cancelled")
	}
	if enrollment.Course != nil && !enrollment.Course.IsFree() {
		return nil, apperrors.BadRequest("Paid enrollments are cancelled through a refund request")
	}
	if err := s.db.Model(&enrollment).Update("status", models.EnrollmentCancelled).Error; err != nil {
		return nil, errors.Wrap(err, "cancelling enrollment")
	}
	enrollment.Status = models.EnrollmentCancelled
	return &enrollment, nil
}

func (s *EnrollmentService) ListMine(userID uuid.UUID, status string) ([]models.Enrollment, error) {
	q := s.db.Preload("Course.Mentor").Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	enrollments := make([]models.Enrollment, 0)
	err := q.Order("created_at desc").Find(&enrollments).Error
	return enrollments, errors.Wrap(err, "listing enrollments")
}

func (s *EnrollmentService) Get(userID, courseID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := first(s.db.Preload("Course"), &enrollment, "Enrollment", "user_id = ? AND course_id = ?", userID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListStudents lists the enrollments of a course for its mentor or an admin.
func (s *EnrollmentService) ListStudents(actor Actor, courseID uuid.UUID, p Pagination) (Page[models.Enrollment], error) {
	var course models.Course
	if err := first(s.db, &course, "Course", "id = ?", courseID); err != nil {
		return Page[models.Enrollment]{}, err
	}
	if course.MentorID != actor.ID && !actor.IsAdmin() {
		return Page[models.Enrollment]{}, apperrors.Forbidden("You do not own this course")
	}
	q := s.db.Model(&models.Enrollment{}).Where("course_id = ?", courseID)
	return paginate[models.Enrollment](q, p, "created_at desc", "User")
}

// requireAccess returns the enrollment granting userID access to courseID.
func requireAccess(tx *gorm.DB, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !enrollment.HasAccess()) {
		return nil, apperrors.Forbidden("You are not enrolled in this course")
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading enrollment")
	}
	return &enrollment, nil
}

// MarkMaterialComplete records a finished material and recomputes the course
// percentage. Reaching 100% completes the enrollment and issues the
// certificate. Quizzes are completed only by a passing attempt.
func (s *EnrollmentService) MarkMaterialComplete(userID, materialID uuid.UUID) (*CourseProgress, error) {
	return s.completeMaterial(userID, materialID, false)
}

func (s *EnrollmentService) completeMaterial(userID, materialID uuid.UUID, quizPassed bool) (*CourseProgress, error) {
	var material models.Material
	var justCompleted bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &material, "Material", "id = ?", materialID); err != nil {
			return err
		}
		if material.Type == models.MaterialQuiz && !quizPassed {
			return apperrors.BadRequest("Quizzes are completed by passing them")
		}
		enrollment, err := requireAccess(tx, userID, material.CourseID)
		if err != nil {
			return err
		}

		now := s.now()
		progress, err := loadOrNewProgress(tx, userID, &material)
		if err != nil {
			return err
		}
		if !progress.Completed {
			progress.Completed = true
			progress.CompletedAt = &now
			if err := tx.Save(progress).Error; err != nil {
				return errors.Wrap(err, "saving progress")
			}
		}

		justCompleted, err = s.recompute(tx, enrollment)
		return err
	})
	if err != nil {
		return nil, err
	}

	if justCompleted {
		if err := s.onCourseCompleted(userID, material.CourseID); err != nil {
			return nil, err
		}
	}
	return s.CourseProgress(userID, material.CourseID)
}

// UpdatePosition stores the playback position of a material.
func (s *EnrollmentService) UpdatePosition(userID, materialID uuid.UUID, seconds int) (*models.Progress, error) {
	if seconds < 0 {
		return nil, apperrors.BadRequest("position must not be negative")
	}

	var progress *models.Progress
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var material models.Material
		if err := first(tx, &material, "Material", "id = ?", materialID); err != nil {
			return err
		}
		if _, err := requireAccess(tx, userID, material.CourseID); err != nil {
			return err
		}
		var err error
		progress, err = loadOrNewProgress(tx, userID, &material)
		if err != nil {
			return err
		}
		progress.LastPositionSeconds = seconds
		return errors.Wrap(tx.Save(progress).Error, "saving progress")
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func loadOrNewProgress(tx *gorm.DB, userID uuid.UUID, material *models.Material) (*models.Progress, error) {
	var progress models.Progress
	err := tx.Where("user_id = ? AND material_id = ?", userID, material.ID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Progress{UserID: userID, MaterialID: material.ID, CourseID: material.CourseID}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading progress")
	}
	return &progress, nil
}

// recompute updates the enrollment percentage and reports whether this call
// moved it to COMPLETED.
func (s *EnrollmentService) recompute(tx *gorm.DB, enrollment *models.Enrollment) (bool, error) {
	total, done, err := progressCounts(tx, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return false, err
	}
	percent := progressPercent(done, total)

	updates := map[string]interface{}{"progress_percent": percent}
	completed := total > 0 && done >= total && enrollment.Status != models.EnrollmentCompleted
	if completed {
		updates["status"] = models.EnrollmentCompleted
		updates["completed_at"] = s.now()
	}
	if err := tx.Model(enrollment).Updates(updates).Error; err != nil {
		return false, errors.Wrap(err, "updating enrollment progress")
	}
	return completed, nil
}

func progressCounts(tx *gorm.DB, userID, courseID uuid.UUID) (total, done int64, err error) {
	if err = tx.Model(&models.Material{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return 0, 0, errors.Wrap(err, "counting materials")
	}
	if err = tx.Model(&models.Progress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&done).Error; err != nil {
		return 0, 0, errors.Wrap(err, "counting completed materials")
	}
	return total, done, nil
}

func progressPercent(done, total int64) float64 {
	if total == 0 {
		return 0
	}
	if done > total {
		done = total
	}
	return math.Round(float64(done)*10000/float64(total)) / 100
}

func (s *EnrollmentService) onCourseCompleted(userID, courseID uuid.UUID) error {
	var course models.Course
	if err := first(s.db, &course, "Course", "id = ?", courseID); err != nil {
		return err
	}

	msg := fmt.Sprintf("You completed %q.", course.Title)
	if s.certs != nil {
		cert, err := s.certs.Issue(userID, courseID)
		if err != nil {
			return err
		}
		msg += " Your certificate number is " + cert.CertificateNumber + "."
	}
	_, err := s.notifier.Notify(userID, models.NotifyCertificate, "Course completed", msg, "/certificates")
	return err
}

func (s *EnrollmentService) CourseProgress(userID, courseID uuid.UUID) (*CourseProgress, error) {
	enrollment, err := requireAccess(s.db, userID, courseID)
	if err != nil {
		return nil, err
	}
	total, done, err := progressCounts(s.db, userID, courseID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0)
	if err := s.db.Model(&models.Progress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Pluck("material_id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "listing completed materials")
	}

	out := &CourseProgress{
		CourseID:             courseID,
		Status:               enrollment.Status,
		Percent:              progressPercent(done, total),
		TotalMaterials:       total,
		CompletedMaterials:   done,
		CompletedMaterialIDs: ids,
		CompletedAt:          enrollment.CompletedAt,
	}
	var cert models.Certificate
	err = s.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
	if err == nil {
		out.Certificate = &cert
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "loading certificate")
	}
	return out, nil
}

// MaterialProgress returns the stored progress rows of a student in a course.
func (s *EnrollmentService) MaterialProgress(userID, courseID uuid.UUID) ([]models.Progress, error) {
	if _, err := requireAccess(s.db, userID, courseID); err != nil {
		return nil, err
	}
	rows := make([]models.Progress, 0)
	err := s.db.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&rows).Error
	return rows, errors.Wrap(err, "listing progress")
}
