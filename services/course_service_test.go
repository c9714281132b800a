package services

import (
	"net/http"
	"testing"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseInput(title string, price float64) CourseInput {
	return CourseInput{
		Title:       title,
		Description: "A practical introduction to building services in Go.",
		Category:    "Programming",
		Level:       models.LevelBeginner,
		Price:       price,
	}
}

func TestCreateCourseRequiresApprovedMentor(t *testing.T) {
	e := newEnv(t)
	student := e.user(t, models.RoleStudent)

	_, err := e.courses.Create(actorOf(student), courseInput("Intro to Go", 0))
	assert.Equal(t, http.StatusForbidden, apperrors.Status(err))

	_, err = e.mentors.Apply(student.ID, application)
	require.NoError(t, err)
	_, err = e.courses.Create(actorOf(student), courseInput("Intro to Go", 0))
	assert.Equal(t, http.StatusForbidden, apperrors.Status(err), "pending applicants cannot create courses")
}

func TestCreateCourseSlugs(t *testing.T) {
	e := newEnv(t)
	mentor := e.mentor(t)

	first, err := e.courses.Create(actorOf(mentor), courseInput("Intro to Go!", 0))
	require.NoError(t, err)
	assert.Equal(t, "intro-to-go", first.Slug)
	assert.Equal(t, models.CourseDraft, first.Status)
	assert.Equal(t, "USD", first.Currency)

	second, err := e.courses.Create(actorOf(mentor), courseInput("Intro to Go", 0))
	require.NoError(t, err)
	assert.Equal(t, "intro-to-go-2", second.Slug)

	renamed, err := e.courses.Update(actorOf(mentor), second.ID, courseInput("Advanced Go", 25))
	require.NoError(t, err)
	assert.Equal(t, "advanced-go", renamed.Slug)
	assert.Equal(t, 25.0, renamed.Price)

	_, err = e.courses.Create(actorOf(mentor), CourseInput{Title: "Go", Price: -1})
	assert.Equal(t, http.StatusBadRequest, apperrors.Status(err))
}

func TestCourseOwnership(t *testing.T) {
	e := newEnv(t)
	owner := e.mentor(t)
	other := e.mentor(t)
	course, materials := e.draftCourse(t, owner, 0, 1)

	_, err := e.courses.Update(actorOf(other), course.ID, courseInput("Stolen", 0))
	assert.Equal(t, http.StatusForbidden, apperrors.Status(err))
	_, err = e.courses.AddSection(actorOf(other), course.ID, SectionInput{Title: "Nope"})
	assert.Equal(t, http.StatusForbidden, apperrors.Status(err))
	assert.Equal(t, http.StatusForbidden, apperrors.Status(e.courses.DeleteMaterial(actorOf(other), materials[0].ID)))
	_, err = e.courses.Submit(actorOf(other), course.ID)
	assert.Equal(t, http.StatusForbidden, apperrors.Status(err))
}

func TestCurriculumPositionsAndValidation(t *testing.T) {
	e := newEnv(t)
	mentor := e.mentor(t)
	course, materials := e.draftCourse(t, mentor, 0, 3)

	for i, m := range materials {
		assert.Equal(t, i, m.Position)
	}

	second, err := e.courses.AddSection(actorOf(mentor), course.ID, SectionInput{Title: "Deep dive"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)

	_, err = e.courses.AddMaterial(actorOf(mentor), second.ID, MaterialInput{Title: "Video", Type: models.MaterialVideo})
	assert.EqualError(t, err, "content_url is required for video materials")
	_, err = e.courses.AddMaterial(actorOf(mentor), second.ID, MaterialInput{Title: "Article", Type: models.MaterialArticle})
	assert.EqualError(t, err, "body is required for article materials")
	_, err = e.courses.AddMaterial(actorOf(mentor), second.ID, MaterialInput{Title: "Thing", Type: "PODCAST"})
	assert.Equal(t, http.StatusBadRequest, apperrors.Status(err))

	video, err := e.courses.AddMaterial(actorOf(mentor), second.ID, MaterialInput{
		Title:      "Video",
		Type:       models.MaterialVideo,
		ContentURL: strPtr("https://cdn.example.com/v.mp4"),
		IsPreview:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, course.ID, video.CourseID)

	updated, err := e.courses.UpdateMaterial(actorOf(mentor), video.ID, MaterialInput{
		Title: "Reading", Type: models.MaterialArticle, Body: strPtr("Now an article"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaterialArticle, updated.Type)

	section, err := e.courses.UpdateSection(actorOf(mentor), second.ID, SectionInput{Title: "Renamed", Position: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", section.Title)
	assert.Equal(t, 5, section.Position)

	require.NoError(t, e.courses.DeleteSection(actorOf(mentor), second.ID))
	var count int64
	require.NoError(t, e.db.Model(&models.Material{}).Where("section_id = ?", second.ID).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, e.courses.DeleteMaterial(actorOf(mentor), materials[0].ID))
	require.NoError(t, e.db.Model(&models.Material{}).Where("course_id = ?", course.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSubmitRequiresContent(t *testing.T) {
	e := newEnv(t)
	mentor := e.mentor(t)

	course, err := e.courses.Create(actorOf(mentor), courseInput("Empty course", 0))
	require.NoError(t, err)
	_, err = e.courses.Submit(actorOf(mentor), course.ID)
	assert.Equal(t, http.StatusBadRequest, apperrors.Status(err))

	_, err = e.courses.AddSection(actorOf(mentor), course.ID, SectionInput{Title: "Only a section"})
	require.NoError(t, err)
	_, err = e.courses.Submit(actorOf(mentor), course.ID)
	assert.Equal(t, http.StatusBadRequest, apperrors.Status(err))
}

func TestCourseReviewLifecycle(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, models.RoleAdmin)
	mentor := e.mentor(t)
	course, _ := e.draftCourse(t, mentor, 0, 1)

	_, err := e.courses.Approve(course.ID)
	assert.True(t, apperrors.IsConflict(err), "drafts cannot be approved")

	submitted, err := e.courses.Submit(actorOf(mentor), course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CoursePendingReview, submitted.Status)
	assert.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, 1, e.pusher.For(admin.ID))

	_, err = e.courses.Update(actorOf(mentor), course.ID, courseInput("Edited while pending", 0))
	assert.True(t, apperrors.IsConflict(err), "pending courses are frozen")

	_, err = e.courses.Reject(course.ID, "  ")
	assert.Equal(t, http.StatusBadRequest, apperrors.Status(err))

	rejected, err := e.courses.Reject(course.ID, "Add a summary lesson")
	require.NoError(t, err)
	assert.Equal(t, models.CourseDraft, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Add a summary lesson", *rejected.RejectionReason)

	_, err = e.courses.Submit(actorOf(mentor), course.ID)
	require.NoError(t, err)
	published, err := e.courses.Approve(course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CoursePublished, published.Status)
	assert.NotNil(t, published.PublishedAt)
	assert.Nil(t, published.RejectionReason)

	subjects := []string{}
	for _, m := range e.sentTo(mentor.Email) {
		subjects = append(subjects, m.Subject)
	}
	assert.ElementsMatch(t, []string{course.Title + " needs changes", course.Title + " is now live"}, subjects)

	_, err = e.courses.AddSection(actorOf(mentor), course.ID, SectionInput{Title: "Late addition"})
	assert.True(t, apperrors.IsConflict(err), "published courses are frozen")
	assert.True(t, apperrors.IsConflict(e.courses.Delete(actorOf(mentor), course.ID)))
}

func TestArchiveAndRestore(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, models.RoleAdmin)
	mentor := e.mentor(t)
	course, _ := e.publishedCourse(t, mentor, 0, 1)
	student := e.enrolled(t, course)
	before := e.pusher.For(student.ID)

	archived, err := e.courses.Archive(actorOf(admin), course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CourseArchived, archived.Status)
	assert.Equal(t, before+1, e.pusher.For(student.ID), "students hear about the archive")

	page, err := e.courses.Catalog(CatalogFilter{}, NewPagination(1, 10))
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	detail, err := e.courses.Detail(&Actor{ID: student.ID, Role: models.RoleStudent}, course.Slug)
	require.NoError(t, err, "enrolled students keep access to archived courses")
	assert.True(t, detail.HasAccess)

	_, err = e.courses.Detail(nil, course.Slug)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = e.courses.Archive(actorOf(admin), course.ID)
	assert.True(t, apperrors.IsConflict(err))

	other := e.mentor(t)
	_, err = e.courses.Restore(actorOf(other), course.ID)
	assert.Equal(t, http.StatusForbidden, apperrors.Status(err))

	restored, err := e.courses.Restore(actorOf(mentor), course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CourseDraft, restored.Status)
	assert.Nil(t, restored.PublishedAt)
}

func TestDeleteDraftCourse(t *testing.T) {
	e := newEnv(t)
	mentor := e.mentor(t)
	course, _ := e.draftCourse(t, mentor, 0, 2)

	require.NoError(t, e.courses.Delete(actorOf(mentor), course.ID))
	_, err := e.courses.Get(course.ID)
	assert.True(t, apperrors.IsNotFound(err))

	var sections, materials int64
	require.NoError(t, e.db.Model(&models.Section{}).Where("course_id = ?", course.ID).Count(&sections).Error)
	require.NoError(t, e.db.Model(&models.Material{}).Where("course_id = ?", course.ID).Count(&materials).Error)
	assert.Zero(t, sections)
	assert.Zero(t, materials)
}

func TestCatalogFilters(t *testing.T) {
	e := newEnv(t)
	mentor := e.mentor(t)
	other := e.mentor(t)

	cheap, _ := e.publishedCourse(t, mentor, 0, 1)
	pricey, _ := e.publishedCourse(t, mentor, 50, 1)
	third, _ := e.publishedCourse(t, other, 20, 1)
	e.draftCourse(t, mentor, 0, 1)

	page, err := e.courses.Catalog(CatalogFilter{}, NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Data, 3, "drafts are not listed")
	require.NotNil(t, page.Data[0].Mentor)

	page, err = e.courses.Catalog(CatalogFilter{Sort: "price_desc"}, NewPagination(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, pricey.ID, page.Data[0].ID)
	assert.Equal(t, cheap.ID, page.Data[2].ID)

	minPrice, maxPrice := 10.0, 30.0
	page, err = e.courses.Catalog(CatalogFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}, NewPagination(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, third.ID, page.Data[0].ID)

	page, err = e.courses.Catalog(CatalogFilter{MentorID: &other.ID}, NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	page, err = e.courses.Catalog(CatalogFilter{Category: "programming", Level: "beginner"}, NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)

	page, err = e.courses.Catalog(CatalogFilter{Search: "no such words"}, NewPagination(1, 10))
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	page, err = e.courses.Catalog(CatalogFilter{Sort: "popular"}, NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)

	_, err = e.courses.Catalog(CatalogFilter{Sort: "random"}, NewPagination(1, 10))
	assert.Equal(t, http.StatusBadRequest, apperrors.Status(err))

	categories, err := e.courses.Categories()
	require.NoError(t, err)
	assert.Equal(t, []string{"Programming"}, categories)
}

func TestCourseDetailHidesLockedContent(t *testing.T) {
	e := newEnv(t)
	mentor := e.mentor(t)
	course, materials := e.publishedCourse(t, mentor, 0, 2)
	require.NoError(t, e.db.Model(&models.Material{}).Where("id = ?", materials[0].ID).Update("is_preview", true).Error)

	anon, err := e.courses.Detail(nil, course.ID.String())
	require.NoError(t, err)
	assert.False(t, anon.HasAccess)
	require.Len(t, anon.Sections, 1)
	require.Len(t, anon.Sections[0].Materials, 2)
	assert.NotNil(t, anon.Sections[0].Materials[0].Body, "previews stay visible")
	assert.Nil(t, anon.Sections[0].Materials[1].Body)

	student := e.enrolled(t, course)
	enrolled, err := e.courses.Detail(&Actor{ID: student.ID, Role: models.RoleStudent}, course.Slug)
	require.NoError(t, err)
	assert.True(t, enrolled.HasAccess)
	assert.False(t, enrolled.IsOwner)
	assert.NotNil(t, enrolled.Sections[0].Materials[1].Body)
	assert.Equal(t, int64(1), enrolled.StudentCount)

	owner, err := e.courses.Detail(&Actor{ID: mentor.ID, Role: models.RoleMentor}, course.Slug)
	require.NoError(t, err)
	assert.True(t, owner.IsOwner)

	draft, _ := e.draftCourse(t, mentor, 0, 1)
	_, err = e.courses.Detail(nil, draft.Slug)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = e.courses.Detail(&Actor{ID: student.ID, Role: models.RoleStudent}, draft.Slug)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = e.courses.Detail(&Actor{ID: mentor.ID, Role: models.RoleMentor}, draft.Slug)
	assert.NoError(t, err)
}

func TestMyCoursesAndAdminListing(t *testing.T) {
	e := newEnv(t)
	mentor := e.mentor(t)
	published, _ := e.publishedCourse(t, mentor, 0, 1)
	e.draftCourse(t, mentor, 0, 1)
	e.enrolled(t, published)
	e.enrolled(t, published)

	mine, err := e.courses.MyCourses(actorOf(mentor), "")
	require.NoError(t, err)
	require.Len(t, mine, 2)

	mine, err = e.courses.MyCourses(actorOf(mentor), "published")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(2), mine[0].EnrollmentCount)

	page, err := e.courses.ListForAdmin(string(models.CourseDraft), "", NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
}

func intPtr(v int) *int {
	return &v
}
