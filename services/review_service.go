package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type ReviewService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewReviewService(db *gorm.DB, notifier *NotificationService) *ReviewService {
	return &ReviewService{db: db, notifier: notifier}
}

// Create adds the student's single review of a course and refreshes the
// course rating in the same transaction.
func (s *ReviewService) Create(actor Actor, courseID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var review models.Review
	var course models.Course
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &course, "Course", "id = ?", courseID); err != nil {
			return err
		}
		if _, err := requireAccess(tx, actor.ID, courseID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Review{}).Where("user_id = ? AND course_id = ?", actor.ID, courseID).Count(&existing).Error; err != nil {
			return errors.Wrap(err, "checking review")
		}
		if existing > 0 {
			return apperrors.Conflict("You have already reviewed this course")
		}

		review = models.Review{
			UserID:   actor.ID,
			CourseID: courseID,
			Rating:   in.Rating,
			Comment:  strings.TrimSpace(in.Comment),
		}
		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("You have already reviewed this course")
			}
			return errors.Wrap(err, "creating review")
		}
		return refreshRating(tx, courseID)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(course.MentorID, models.NotifyNewReview,
		"New review",
		fmt.Sprintf("%q received a %d-star review.", course.Title, in.Rating),
		"/courses/"+course.Slug+"#reviews"); err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *ReviewService) Update(actor Actor, reviewID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var review models.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &review, "Review", "id = ?", reviewID); err != nil {
			return err
		}
		if review.UserID != actor.ID {
			return apperrors.Forbidden("You can only edit your own review")
		}
		if err := tx.Model(&review).Updates(map[string]interface{}{
			"rating":  in.Rating,
			"comment": strings.TrimSpace(in.Comment),
		}).Error; err != nil {
			return errors.Wrap(err, "updating review")
		}
		review.Rating = in.Rating
		review.Comment = strings.TrimSpace(in.Comment)
		return refreshRating(tx, review.CourseID)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Delete removes a review. Authors may delete their own; admins any.
func (s *ReviewService) Delete(actor Actor, reviewID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := first(tx, &review, "Review", "id = ?", reviewID); err != nil {
			return err
		}
		if review.UserID != actor.ID && !actor.IsAdmin() {
			return apperrors.Forbidden("You can only delete your own review")
		}
		if err := tx.Delete(&review).Error; err != nil {
			return errors.Wrap(err, "deleting review")
		}
		return refreshRating(tx, review.CourseID)
	})
}

// refreshRating recomputes avg_rating and review_count of a course.
func refreshRating(tx *gorm.DB, courseID uuid.UUID) error {
	var result struct {
		Avg   float64
		Count int64
	}
	if err := tx.Model(&models.Review{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Scan(&result).Error; err != nil {
		return errors.Wrap(err, "computing rating")
	}
	return errors.Wrap(tx.Model(&models.Course{}).Where("id = ?", courseID).Updates(map[string]interface{}{
		"avg_rating":   math.Round(result.Avg*100) / 100,
		"review_count": result.Count,
	}).Error, "updating course rating")
}

// ListForCourse is the public, paginated review list of a course.
func (s *ReviewService) ListForCourse(courseID uuid.UUID, p Pagination) (Page[models.Review], error) {
	q := s.db.Model(&models.Review{}).Where("course_id = ?", courseID)
	return paginate[models.Review](q, p, "created_at desc", "User")
}

// MyReview returns the actor's review of a course.
func (s *ReviewService) MyReview(userID, courseID uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := first(s.db, &review, "Review", "user_id = ? AND course_id = ?", userID, courseID); err != nil {
		return nil, err
	}
	return &review, nil
}

// ListAll is the admin moderation listing.
func (s *ReviewService) ListAll(courseID *uuid.UUID, maxRating int, p Pagination) (Page[models.Review], error) {
	q := s.db.Model(&models.Review{})
	if courseID != nil {
		q = q.Where("course_id = ?", *courseID)
	}
	if maxRating > 0 {
		q = q.Where("rating <= ?", maxRating)
	}
	return paginate[models.Review](q, p, "created_at desc", "User", "Course")
}
