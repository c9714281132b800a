package services

import (
	"math"
	"time"

	"github.com/anjiri1684/mentora/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const dashboardDays = 30

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type TopCourse struct {
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Enrollments int64     `json:"enrollments"`
}

type AdminDashboard struct {
	UsersByRole        map[string]int64     `json:"users_by_role"`
	PendingMentors     int64                `json:"pending_mentors"`
	CoursesByStatus    map[string]int64     `json:"courses_by_status"`
	EnrollmentsTotal   int64                `json:"enrollments_total"`
	EnrollmentsLast30  int64                `json:"enrollments_last_30_days"`
	Revenue            float64              `json:"revenue"`
	RevenueLast30      float64              `json:"revenue_last_30_days"`
	DailyEnrollments   []DailyCount         `json:"daily_enrollments"`
	TopCourses         []TopCourse          `json:"top_courses"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}

type MentorCourseStats struct {
	CourseID       uuid.UUID           `json:"course_id"`
	Title          string              `json:"title"`
	Status         models.CourseStatus `json:"status"`
	Enrollments    int64               `json:"enrollments"`
	Completed      int64               `json:"completed"`
	CompletionRate float64             `json:"completion_rate"`
	AvgRating      float64             `json:"avg_rating"`
	ReviewCount    int                 `json:"review_count"`
}

type MentorDashboard struct {
	TotalStudents int64               `json:"total_students"`
	Courses       []MentorCourseStats `json:"courses"`
	Earnings      *Earnings           `json:"earnings"`
}

type AnalyticsService struct {
	db           *gorm.DB
	transactions *TransactionService
	now          func() time.Time
}

func NewAnalyticsService(db *gorm.DB, transactions *TransactionService) *AnalyticsService {
	return &AnalyticsService{db: db, transactions: transactions, now: time.Now}
}

type groupCount struct {
	GroupKey string
	Count    int64
}

func countBy(db *gorm.DB, model interface{}, column string) (map[string]int64, error) {
	var rows []groupCount
	if err := db.Model(model).
		Select(column + " AS group_key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "counting by %s", column)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.Count
	}
	return out, nil
}

func (s *AnalyticsService) AdminDashboard() (*AdminDashboard, error) {
	now := s.now()
	since := now.AddDate(0, 0, -dashboardDays)
	out := &AdminDashboard{}

	var err error
	if out.UsersByRole, err = countBy(s.db, &models.User{}, "role"); err != nil {
		return nil, err
	}
	if out.CoursesByStatus, err = countBy(s.db, &models.Course{}, "status"); err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.MentorProfile{}).Where("status = ?", models.MentorPending).Count(&out.PendingMentors).Error; err != nil {
		return nil, errors.Wrap(err, "counting pending mentors")
	}
	if err := s.db.Model(&models.Enrollment{}).Count(&out.EnrollmentsTotal).Error; err != nil {
		return nil, errors.Wrap(err, "counting enrollments")
	}

	revenue := s.db.Model(&models.Transaction{}).Where("status = ?", models.TransactionSuccess)
	if err := revenue.Session(&gorm.Session{}).Select("COALESCE(SUM(amount), 0)").Row().Scan(&out.Revenue); err != nil {
		return nil, errors.Wrap(err, "summing revenue")
	}
	if err := revenue.Session(&gorm.Session{}).Where("created_at >= ?", since).Select("COALESCE(SUM(amount), 0)").Row().Scan(&out.RevenueLast30); err != nil {
		return nil, errors.Wrap(err, "summing recent revenue")
	}
	out.Revenue = roundMoney(out.Revenue)
	out.RevenueLast30 = roundMoney(out.RevenueLast30)

	var stamps []time.Time
	if err := s.db.Model(&models.Enrollment{}).Where("created_at >= ?", since).Pluck("created_at", &stamps).Error; err != nil {
		return nil, errors.Wrap(err, "loading recent enrollments")
	}
	out.EnrollmentsLast30 = int64(len(stamps))
	out.DailyEnrollments = dailySeries(stamps, now, dashboardDays)

	out.TopCourses = make([]TopCourse, 0)
	if err := s.db.Model(&models.Enrollment{}).
		Select("courses.id AS course_id, courses.title AS title, COUNT(*) AS enrollments").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.status <> ?", models.EnrollmentCancelled).
		Group("courses.id, courses.title").
		Order("enrollments desc").
		Limit(5).
		Scan(&out.TopCourses).Error; err != nil {
		return nil, errors.Wrap(err, "loading top courses")
	}

	out.RecentTransactions = make([]models.Transaction, 0)
	if err := s.db.Preload("User").Preload("Course").
		Order("created_at desc").Limit(5).
		Find(&out.RecentTransactions).Error; err != nil {
		return nil, errors.Wrap(err, "loading recent transactions")
	}
	return out, nil
}

// dailySeries buckets stamps into one entry per day, oldest first, ending
// today. Days without events are included with a zero count.
func dailySeries(stamps []time.Time, now time.Time, days int) []DailyCount {
	counts := make(map[string]int64, days)
	for _, t := range stamps {
		counts[t.In(now.Location()).Format("2006-01-02")]++
	}
	out := make([]DailyCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, DailyCount{Date: day, Count: counts[day]})
	}
	return out
}

func (s *AnalyticsService) MentorDashboard(mentorID uuid.UUID) (*MentorDashboard, error) {
	var courses []models.Course
	if err := s.db.Where("mentor_id = ?", mentorID).Order("created_at desc").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "listing courses")
	}

	ids := make([]uuid.UUID, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	enrolled, err := enrollmentCounts(s.db, ids)
	if err != nil {
		return nil, err
	}
	completed := make(map[uuid.UUID]int64, len(ids))
	if len(ids) > 0 {
		var rows []courseCount
		if err := s.db.Model(&models.Enrollment{}).
			Select("course_id, COUNT(*) AS count").
			Where("course_id IN ? AND status = ?", ids, models.EnrollmentCompleted).
			Group("course_id").
			Scan(&rows).Error; err != nil {
			return nil, errors.Wrap(err, "counting completions")
		}
		for _, r := range rows {
			completed[r.CourseID] = r.Count
		}
	}

	out := &MentorDashboard{Courses: make([]MentorCourseStats, len(courses))}
	for i, c := range courses {
		stats := MentorCourseStats{
			CourseID:    c.ID,
			Title:       c.Title,
			Status:      c.Status,
			Enrollments: enrolled[c.ID],
			Completed:   completed[c.ID],
			AvgRating:   c.AvgRating,
			ReviewCount: c.ReviewCount,
		}
		if stats.Enrollments > 0 {
			stats.CompletionRate = math.Round(float64(stats.Completed)*10000/float64(stats.Enrollments)) / 100
		}
		out.Courses[i] = stats
	}

	if len(ids) > 0 {
		if err := s.db.Model(&models.Enrollment{}).
			Where("course_id IN ? AND status <> ?", ids, models.EnrollmentCancelled).
			Distinct("user_id").
			Count(&out.TotalStudents).Error; err != nil {
			return nil, errors.Wrap(err, "counting students")
		}
	}

	if out.Earnings, err = s.transactions.MentorEarnings(mentorID, nil, nil); err != nil {
		return nil, err
	}
	return out, nil
}
