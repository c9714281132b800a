package services

import (
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Pusher delivers a payload to a user's live connections.
type Pusher interface {
	Push(userID uuid.UUID, payload interface{})
}

// NotificationEvent is the frame written to websocket clients.
type NotificationEvent struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
}

type NotificationService struct {
	db     *gorm.DB
	pusher Pusher
}

func NewNotificationService(db *gorm.DB, pusher Pusher) *NotificationService {
	return &NotificationService{db: db, pusher: pusher}
}

// Notify stores a notification for userID and pushes it to any open
// connections. link may be empty.
func (s *NotificationService) Notify(userID uuid.UUID, kind, title, message, link string) (*models.Notification, error) {
	n := models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if link != "" {
		n.Link = &link
	}
	if err := s.db.Create(&n).Error; err != nil {
		return nil, errors.Wrap(err, "creating notification")
	}
	s.push(&n)
	return &n, nil
}

// NotifyMany fans one notification out to every user in userIDs.
func (s *NotificationService) NotifyMany(userIDs []uuid.UUID, kind, title, message, link string) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]models.Notification, 0, len(userIDs))
	seen := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		n := models.Notification{UserID: id, Type: kind, Title: title, Message: message}
		if link != "" {
			l := link
			n.Link = &l
		}
		rows = append(rows, n)
	}
	if err := s.db.CreateInBatches(&rows, 100).Error; err != nil {
		return errors.Wrap(err, "creating notifications")
	}
	for i := range rows {
		s.push(&rows[i])
	}
	return nil
}

func (s *NotificationService) NotifyAdmins(kind, title, message, link string) error {
	var ids []uuid.UUID
	if err := s.db.Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Pluck("id", &ids).Error; err != nil {
		return errors.Wrap(err, "listing admins")
	}
	return s.NotifyMany(ids, kind, title, message, link)
}

// NotifyCourseStudents notifies everyone with access to courseID.
func (s *NotificationService) NotifyCourseStudents(courseID uuid.UUID, kind, title, message, link string) error {
	var ids []uuid.UUID
	if err := s.db.Model(&models.Enrollment{}).
		Where("course_id = ? AND status IN ?", courseID, []string{models.EnrollmentActive, models.EnrollmentCompleted}).
		Pluck("user_id", &ids).Error; err != nil {
		return errors.Wrap(err, "listing course students")
	}
	return s.NotifyMany(ids, kind, title, message, link)
}

func (s *NotificationService) push(n *models.Notification) {
	if s.pusher == nil {
		return
	}
	s.pusher.Push(n.UserID, NotificationEvent{Type: "notification", Notification: n})
}

func (s *NotificationService) ListMine(userID uuid.UUID, unreadOnly bool, p Pagination) (Page[models.Notification], error) {
	q := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	return paginate[models.Notification](q, p, "created_at desc")
}

func (s *NotificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, errors.Wrap(err, "counting unread notifications")
}

func (s *NotificationService) MarkRead(userID, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	if err := first(s.db, &n, "Notification", "id = ? AND user_id = ?", id, userID); err != nil {
		return nil, err
	}
	if n.ReadAt == nil {
		now := time.Now()
		if err := s.db.Model(&n).Update("read_at", now).Error; err != nil {
			return nil, errors.Wrap(err, "marking notification read")
		}
		n.ReadAt = &now
	}
	return &n, nil
}

// MarkAllRead returns the number of notifications updated.
func (s *NotificationService) MarkAllRead(userID uuid.UUID) (int64, error) {
	res := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now())
	return res.RowsAffected, errors.Wrap(res.Error, "marking notifications read")
}

func (s *NotificationService) Delete(userID, id uuid.UUID) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting notification")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Notification")
	}
	return nil
}
