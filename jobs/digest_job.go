package jobs

import (
	"log"

	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/anjiri1684/mentora/services"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// RunPendingReviewDigest emails every active admin the size of the
// moderation queue. Nothing is sent when the queue is empty. It returns the
// number of admins emailed.
func RunPendingReviewDigest(db *gorm.DB, mail services.Emailer) (int, error) {
	var pendingMentors, pendingCourses int64
	if err := db.Model(&models.MentorProfile{}).Where("status = ?", models.MentorPending).Count(&pendingMentors).Error; err != nil {
		return 0, errors.Wrap(err, "counting pending mentors")
	}
	if err := db.Model(&models.Course{}).Where("status = ?", models.CoursePendingReview).Count(&pendingCourses).Error; err != nil {
		return 0, errors.Wrap(err, "counting pending courses")
	}
	if pendingMentors == 0 && pendingCourses == 0 {
		return 0, nil
	}

	var admins []models.User
	if err := db.Where("role = ? AND is_active = ?", models.RoleAdmin, true).Find(&admins).Error; err != nil {
		return 0, errors.Wrap(err, "listing admins")
	}
	for _, admin := range admins {
		mail.Send(notifications.Recipient{Name: admin.FullName, Email: admin.Email}, notifications.TemplatePendingReviewDigest, map[string]any{
			"PendingMentors": pendingMentors,
			"PendingCourses": pendingCourses,
		})
	}
	return len(admins), nil
}

func PendingReviewDigest(db *gorm.DB, mail services.Emailer) func() {
	return func() {
		log.Println("Running job: PendingReviewDigest...")
		sent, err := RunPendingReviewDigest(db, mail)
		if err != nil {
			log.Printf("🔥 Pending review digest failed: %v", err)
			return
		}
		if sent > 0 {
			log.Printf("Pending review digest sent to %d admin(s)", sent)
		}
	}
}
