package services

import (
	"testing"
	"time"

	"github.com/anjiri1684/mentora/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminDashboard(t *testing.T) {
	e := newEnv(t)
	e.user(t, models.RoleAdmin)
	mentor := e.mentor(t)
	applicant := e.user(t, models.RoleStudent)
	_, err := e.mentors.Apply(applicant.ID, application)
	require.NoError(t, err)

	popular, _ := e.publishedCourse(t, mentor, 0, 1)
	paid, _ := e.publishedCourse(t, mentor, 25, 1)
	e.draftCourse(t, mentor, 0, 1)
	e.enrolled(t, popular)
	e.enrolled(t, popular)
	e.buy(t, paid)

	dash, err := e.analytics.AdminDashboard()
	require.NoError(t, err)

	assert.Equal(t, int64(1), dash.UsersByRole[models.RoleAdmin])
	assert.Equal(t, int64(1), dash.UsersByRole[models.RoleMentor])
	assert.Equal(t, int64(4), dash.UsersByRole[models.RoleStudent])
	assert.Equal(t, int64(1), dash.PendingMentors)
	assert.Equal(t, int64(2), dash.CoursesByStatus[string(models.CoursePublished)])
	assert.Equal(t, int64(1), dash.CoursesByStatus[string(models.CourseDraft)])
	assert.Equal(t, int64(3), dash.EnrollmentsTotal)
	assert.Equal(t, int64(3), dash.EnrollmentsLast30)
	assert.Equal(t, 25.0, dash.Revenue)
	assert.Equal(t, 25.0, dash.RevenueLast30)

	require.Len(t, dash.DailyEnrollments, dashboardDays)
	today := dash.DailyEnrollments[dashboardDays-1]
	assert.Equal(t, time.Now().Format("2006-01-02"), today.Date)
	assert.Equal(t, int64(3), today.Count)

	require.Len(t, dash.TopCourses, 2)
	assert.Equal(t, popular.ID, dash.TopCourses[0].CourseID)
	assert.Equal(t, int64(2), dash.TopCourses[0].Enrollments)

	assert.Len(t, dash.RecentTransactions, 3)
	assert.NotNil(t, dash.RecentTransactions[0].User)
}

func TestAdminDashboardEmpty(t *testing.T) {
	e := newEnv(t)

	dash, err := e.analytics.AdminDashboard()
	require.NoError(t, err)
	assert.Zero(t, dash.Revenue)
	assert.Empty(t, dash.TopCourses)
	assert.Empty(t, dash.RecentTransactions)
	assert.Len(t, dash.DailyEnrollments, dashboardDays)
}

func TestDailySeries(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		now,
		now.Add(-2 * time.Hour),
		now.AddDate(0, 0, -2),
		now.AddDate(0, 0, -10),
	}

	series := dailySeries(stamps, now, 3)
	require.Len(t, series, 3)
	assert.Equal(t, DailyCount{Date: "2026-03-08", Count: 1}, series[0])
	assert.Equal(t, DailyCount{Date: "2026-03-09", Count: 0}, series[1])
	assert.Equal(t, DailyCount{Date: "2026-03-10", Count: 2}, series[2])
}

func TestMentorDashboard(t *testing.T) {
	e := newEnv(t)
	mentor := e.mentor(t)
	free, materials := e.publishedCourse(t, mentor, 0, 1)
	paid, _ := e.publishedCourse(t, mentor, 40, 1)

	finisher := e.enrolled(t, free)
	e.enrolled(t, free)
	_, err := e.enrollments.MarkMaterialComplete(finisher.ID, materials[0].ID)
	require.NoError(t, err)
	_, err = e.reviews.Create(actorOf(finisher), free.ID, ReviewInput{Rating: 4})
	require.NoError(t, err)

	buyer, _ := e.buy(t, paid)
	_, err = e.enrollments.Enroll(actorOf(buyer), free.ID)
	require.NoError(t, err)

	dash, err := e.analytics.MentorDashboard(mentor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dash.TotalStudents, "students in several courses count once")
	require.Len(t, dash.Courses, 2)

	stats := map[string]MentorCourseStats{}
	for _, c := range dash.Courses {
		stats[c.CourseID.String()] = c
	}
	freeStats := stats[free.ID.String()]
	assert.Equal(t, int64(3), freeStats.Enrollments)
	assert.Equal(t, int64(1), freeStats.Completed)
	assert.Equal(t, 33.33, freeStats.CompletionRate)
	assert.Equal(t, 4.0, freeStats.AvgRating)
	assert.Equal(t, 1, freeStats.ReviewCount)

	require.NotNil(t, dash.Earnings)
	assert.Equal(t, 40.0, dash.Earnings.Gross)
	assert.Equal(t, 32.0, dash.Earnings.Net)

	empty, err := e.analytics.MentorDashboard(e.mentor(t).ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Courses)
	assert.Zero(t, empty.TotalStudents)
}
