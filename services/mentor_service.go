package services

import (
	"strings"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type MentorApplicationInput struct {
	Headline  string `json:"headline" validate:"required,min=5,max=255"`
	Bio       string `json:"bio" validate:"required,min=20"`
	Expertise string `json:"expertise" validate:"max=255"`
}

// PublicMentor is an approved mentor as shown in the public directory.
type PublicMentor struct {
	UserID         uuid.UUID `json:"user_id"`
	FullName       string    `json:"full_name"`
	AvatarURL      *string   `json:"avatar_url"`
	Headline       string    `json:"headline"`
	Bio            string    `json:"bio"`
	Expertise      string    `json:"expertise"`
	PublishedCount int64     `json:"published_courses"`
}

type MentorService struct {
	db       *gorm.DB
	notifier *NotificationService
	mail     Emailer
}

func NewMentorService(db *gorm.DB, notifier *NotificationService, mail Emailer) *MentorService {
	return &MentorService{db: db, notifier: notifier, mail: mail}
}

// Apply files a mentor application. A rejected applicant may apply again,
// which puts the existing profile back to PENDING.
func (s *MentorService) Apply(userID uuid.UUID, in MentorApplicationInput) (*models.MentorProfile, error) {
	in.Headline = strings.TrimSpace(in.Headline)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var user models.User
	if err := first(s.db, &user, "User", "id = ?", userID); err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, apperrors.BadRequest("Admins cannot apply to become mentors")
	}

	var profile models.MentorProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	switch {
	case err == nil:
		if profile.Status != models.MentorRejected {
			return nil, apperrors.Conflict("A mentor application is already %s", strings.ToLower(profile.Status))
		}
		if err := s.db.Model(&profile).Updates(map[string]interface{}{
			"headline":         in.Headline,
			"bio":              in.Bio,
			"expertise":        in.Expertise,
			"status":           models.MentorPending,
			"rejection_reason": nil,
			"reviewed_at":      nil,
		}).Error; err != nil {
			return nil, errors.Wrap(err, "updating mentor application")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = models.MentorProfile{
			UserID:    userID,
			Headline:  in.Headline,
			Bio:       in.Bio,
			Expertise: in.Expertise,
			Status:    models.MentorPending,
		}
		if err := s.db.Create(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.Conflict("A mentor application already exists")
			}
			return nil, errors.Wrap(err, "creating mentor application")
		}
	default:
		return nil, errors.Wrap(err, "loading mentor profile")
	}

	if err := s.notifier.NotifyAdmins(models.NotifyMentorApplication,
		"New mentor application",
		user.FullName+" applied to become a mentor.",
		"/admin/mentors"); err != nil {
		return nil, err
	}
	return s.GetProfile(userID)
}

func (s *MentorService) GetProfile(userID uuid.UUID) (*models.MentorProfile, error) {
	var profile models.MentorProfile
	if err := first(s.db.Preload("User"), &profile, "Mentor profile", "user_id = ?", userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateOwnProfile edits an approved or pending profile without changing its
// status.
func (s *MentorService) UpdateOwnProfile(userID uuid.UUID, in MentorApplicationInput) (*models.MentorProfile, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile.Status == models.MentorRejected {
		return nil, apperrors.BadRequest("Rejected applications must be resubmitted")
	}
	if err := s.db.Model(profile).Updates(map[string]interface{}{
		"headline":  strings.TrimSpace(in.Headline),
		"bio":       in.Bio,
		"expertise": in.Expertise,
	}).Error; err != nil {
		return nil, errors.Wrap(err, "updating mentor profile")
	}
	return s.GetProfile(userID)
}

func (s *MentorService) ListApplications(status string, p Pagination) (Page[models.MentorProfile], error) {
	q := s.db.Model(&models.MentorProfile{})
	if status != "" {
		q = q.Where("status = ?", strings.ToUpper(status))
	}
	return paginate[models.MentorProfile](q, p, "created_at asc", "User")
}

// Approve promotes the applicant to MENTOR. The profile status and the user
// role change together.
func (s *MentorService) Approve(userID uuid.UUID) (*models.MentorProfile, error) {
	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var profile models.MentorProfile
		if err := first(tx, &profile, "Mentor application", "user_id = ?", userID); err != nil {
			return err
		}
		if profile.Status != models.MentorPending {
			return apperrors.Conflict("Application is %s, only pending applications can be approved", strings.ToLower(profile.Status))
		}
		if err := first(tx, &user, "User", "id = ?", userID); err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&profile).Updates(map[string]interface{}{
			"status":           models.MentorApproved,
			"rejection_reason": nil,
			"reviewed_at":      now,
		}).Error; err != nil {
			return errors.Wrap(err, "approving application")
		}
		if user.Role != models.RoleAdmin {
			if err := tx.Model(&user).Update("role", models.RoleMentor).Error; err != nil {
				return errors.Wrap(err, "updating user role")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(userID, models.NotifyMentorDecision,
		"Mentor application approved",
		"You can now create courses and submit them for review.",
		"/mentor/courses"); err != nil {
		return nil, err
	}
	s.mail.Send(recipient(&user), notifications.TemplateMentorApproved, nil)
	return s.GetProfile(userID)
}

func (s *MentorService) Reject(userID uuid.UUID, reason string) (*models.MentorProfile, error) {
	reason = strings.TrimSpace(reason)

	var profile models.MentorProfile
	if err := first(s.db.Preload("User"), &profile, "Mentor application", "user_id = ?", userID); err != nil {
		return nil, err
	}
	if profile.Status != models.MentorPending {
		return nil, apperrors.Conflict("Application is %s, only pending applications can be rejected", strings.ToLower(profile.Status))
	}

	updates := map[string]interface{}{
		"status":      models.MentorRejected,
		"reviewed_at": time.Now(),
	}
	if reason != "" {
		updates["rejection_reason"] = reason
	}
	if err := s.db.Model(&profile).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "rejecting application")
	}

	msg := "Your mentor application was not approved."
	if reason != "" {
		msg += " Reason: " + reason
	}
	if _, err := s.notifier.Notify(userID, models.NotifyMentorDecision, "Mentor application update", msg, "/mentor/apply"); err != nil {
		return nil, err
	}
	if profile.User != nil {
		s.mail.Send(recipient(profile.User), notifications.TemplateMentorRejected, map[string]any{"Reason": reason})
	}
	return s.GetProfile(userID)
}

// ListApproved returns the public mentor directory.
func (s *MentorService) ListApproved(search string, p Pagination) (Page[PublicMentor], error) {
	q := s.db.Table("mentor_profiles").
		Joins("JOIN users ON users.id = mentor_profiles.user_id").
		Where("mentor_profiles.status = ? AND users.is_active = ?", models.MentorApproved, true)
	if strings.TrimSpace(search) != "" {
		term := likePattern(search)
		q = q.Where("LOWER(users.full_name) LIKE ? OR LOWER(mentor_profiles.headline) LIKE ? OR LOWER(mentor_profiles.expertise) LIKE ?", term, term, term)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[PublicMentor]{}, errors.Wrap(err, "counting mentors")
	}

	mentors := make([]PublicMentor, 0)
	err := q.Select(`mentor_profiles.user_id, users.full_name, users.avatar_url,
			mentor_profiles.headline, mentor_profiles.bio, mentor_profiles.expertise,
			(SELECT COUNT(*) FROM courses WHERE courses.mentor_id = mentor_profiles.user_id AND courses.status = ?) AS published_count`,
		models.CoursePublished).
		Order("users.full_name asc").
		Offset(p.Offset()).Limit(p.Limit).
		Scan(&mentors).Error
	if err != nil {
		return Page[PublicMentor]{}, errors.Wrap(err, "listing mentors")
	}
	return Page[PublicMentor]{Data: mentors, Meta: p.Meta(total)}, nil
}
