package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/anjiri1684/mentora/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CourseInput struct {
	Title        string  `json:"title" validate:"required,min=3,max=255"`
	Description  string  `json:"description" validate:"required,min=20"`
	Category     string  `json:"category" validate:"required,max=100"`
	Level        string  `json:"level" validate:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Price        float64 `json:"price" validate:"gte=0,lte=10000"`
	Currency     string  `json:"currency" validate:"omitempty,iso4217"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url"`
}

type SectionInput struct {
	Title    string `json:"title" validate:"required,min=2,max=255"`
	Position *int   `json:"position" validate:"omitempty,gte=0"`
}

type MaterialInput struct {
	Title           string  `json:"title" validate:"required,min=2,max=255"`
	Type            string  `json:"type" validate:"required,oneof=VIDEO ARTICLE FILE QUIZ"`
	ContentURL      *string `json:"content_url" validate:"omitempty,url"`
	Body            *string `json:"body"`
	DurationSeconds int     `json:"duration_seconds" validate:"gte=0"`
	Position        *int    `json:"position" validate:"omitempty,gte=0"`
	IsPreview       bool    `json:"is_preview"`
}

// CatalogFilter holds the public catalog query options.
type CatalogFilter struct {
	Search   string
	Category string
	Level    string
	MinPrice *float64
	MaxPrice *float64
	MentorID *uuid.UUID
	Sort     string
}

// CourseDetail is a course with its curriculum as seen by one viewer.
type CourseDetail struct {
	*models.Course
	StudentCount int64 `json:"student_count"`
	HasAccess    bool  `json:"has_access"`
	IsOwner      bool  `json:"is_owner"`
}

// MentorCourse is a row of a mentor's own course list.
type MentorCourse struct {
	models.Course
	EnrollmentCount int64 `json:"enrollment_count"`
}

var catalogSorts = map[string]string{
	"":           "courses.published_at desc",
	"newest":     "courses.published_at desc",
	"rating":     "courses.avg_rating desc, courses.review_count desc",
	"price_asc":  "courses.price asc",
	"price_desc": "courses.price desc",
	"popular":    "(SELECT COUNT(*) FROM enrollments WHERE enrollments.course_id = courses.id) desc",
}

type CourseService struct {
	db       *gorm.DB
	notifier *NotificationService
	mail     Emailer
	now      func() time.Time
}

func NewCourseService(db *gorm.DB, notifier *NotificationService, mail Emailer) *CourseService {
	return &CourseService{db: db, notifier: notifier, mail: mail, now: time.Now}
}

func (s *CourseService) Create(actor Actor, in CourseInput) (*models.Course, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.requireApprovedMentor(actor.ID); err != nil {
		return nil, err
	}

	var course models.Course
	err := s.db.Transaction(func(tx *gorm.DB) error {
		slug, err := utils.GenerateUniqueSlug(tx, in.Title, uuid.Nil)
		if err != nil {
			return err
		}
		course = models.Course{
			MentorID:     actor.ID,
			Title:        in.Title,
			Slug:         slug,
			Description:  in.Description,
			Category:     strings.TrimSpace(in.Category),
			Level:        defaultString(in.Level, models.LevelBeginner),
			Price:        in.Price,
			Currency:     strings.ToUpper(defaultString(in.Currency, "USD")),
			ThumbnailURL: in.ThumbnailURL,
			Status:       models.CourseDraft,
		}
		return errors.Wrap(tx.Create(&course).Error, "creating course")
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *CourseService) Update(actor Actor, courseID uuid.UUID, in CourseInput) (*models.Course, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var course *models.Course
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		course, err = loadOwnedCourse(tx, actor, courseID)
		if err != nil {
			return err
		}
		if err := requireDraft(course); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"description":   in.Description,
			"category":      strings.TrimSpace(in.Category),
			"level":         defaultString(in.Level, course.Level),
			"price":         in.Price,
			"currency":      strings.ToUpper(defaultString(in.Currency, course.Currency)),
			"thumbnail_url": in.ThumbnailURL,
		}
		if in.Title != course.Title {
			slug, err := utils.GenerateUniqueSlug(tx, in.Title, course.ID)
			if err != nil {
				return err
			}
			updates["title"] = in.Title
			updates["slug"] = slug
		}
		return errors.Wrap(tx.Model(course).Updates(updates).Error, "updating course")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(courseID)
}

// Delete removes a draft course and its curriculum. Courses with enrollments
// can only be archived.
func (s *CourseService) Delete(actor Actor, courseID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		course, err := loadOwnedCourse(tx, actor, courseID)
		if err != nil {
			return err
		}
		if err := requireDraft(course); err != nil {
			return err
		}

		var enrollments int64
		if err := tx.Model(&models.Enrollment{}).Where("course_id = ?", course.ID).Count(&enrollments).Error; err != nil {
			return errors.Wrap(err, "counting enrollments")
		}
		if enrollments > 0 {
			return apperrors.Conflict("Course has enrollments and cannot be deleted, archive it instead")
		}

		var materialIDs []uuid.UUID
		if err := tx.Model(&models.Material{}).Where("course_id = ?", course.ID).Pluck("id", &materialIDs).Error; err != nil {
			return errors.Wrap(err, "listing materials")
		}
		if err := deleteMaterials(tx, materialIDs); err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Section{}).Error; err != nil {
			return errors.Wrap(err, "deleting sections")
		}
		return errors.Wrap(tx.Delete(course).Error, "deleting course")
	})
}

func (s *CourseService) Get(courseID uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := first(s.db, &course, "Course", "id = ?", courseID); err != nil {
		return nil, err
	}
	return &course, nil
}

// AddSection appends a section to a draft course. Without a position it goes
// last.
func (s *CourseService) AddSection(actor Actor, courseID uuid.UUID, in SectionInput) (*models.Section, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var section models.Section
	err := s.db.Transaction(func(tx *gorm.DB) error {
		course, err := loadOwnedCourse(tx, actor, courseID)
		if err != nil {
			return err
		}
		if err := requireDraft(course); err != nil {
			return err
		}

		position, err := nextPosition(tx, &models.Section{}, "course_id = ?", course.ID)
		if err != nil {
			return err
		}
		if in.Position != nil {
			position = *in.Position
		}
		section = models.Section{CourseID: course.ID, Title: strings.TrimSpace(in.Title), Position: position}
		return errors.Wrap(tx.Create(&section).Error, "creating section")
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (s *CourseService) UpdateSection(actor Actor, sectionID uuid.UUID, in SectionInput) (*models.Section, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var section models.Section
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &section, "Section", "id = ?", sectionID); err != nil {
			return err
		}
		course, err := loadOwnedCourse(tx, actor, section.CourseID)
		if err != nil {
			return err
		}
		if err := requireDraft(course); err != nil {
			return err
		}

		updates := map[string]interface{}{"title": strings.TrimSpace(in.Title)}
		if in.Position != nil {
			updates["position"] = *in.Position
		}
		if err := tx.Model(&section).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "updating section")
		}
		return first(tx, &section, "Section", "id = ?", sectionID)
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (s *CourseService) DeleteSection(actor Actor, sectionID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var section models.Section
		if err := first(tx, &section, "Section", "id = ?", sectionID); err != nil {
			return err
		}
		course, err := loadOwnedCourse(tx, actor, section.CourseID)
		if err != nil {
			return err
		}
		if err := requireDraft(course); err != nil {
			return err
		}

		var materialIDs []uuid.UUID
		if err := tx.Model(&models.Material{}).Where("section_id = ?", section.ID).Pluck("id", &materialIDs).Error; err != nil {
			return errors.Wrap(err, "listing materials")
		}
		if err := deleteMaterials(tx, materialIDs); err != nil {
			return err
		}
		return errors.Wrap(tx.Delete(&section).Error, "deleting section")
	})
}

func (s *CourseService) AddMaterial(actor Actor, sectionID uuid.UUID, in MaterialInput) (*models.Material, error) {
	if err := validateMaterial(in); err != nil {
		return nil, err
	}

	var material models.Material
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var section models.Section
		if err := first(tx, &section, "Section", "id = ?", sectionID); err != nil {
			return err
		}
		course, err := loadOwnedCourse(tx, actor, section.CourseID)
		if err != nil {
			return err
		}
		if err := requireDraft(course); err != nil {
			return err
		}

		position, err := nextPosition(tx, &models.Material{}, "section_id = ?", section.ID)
		if err != nil {
			return err
		}
		if in.Position != nil {
			position = *in.Position
		}
		material = models.Material{
			SectionID:       section.ID,
			CourseID:        course.ID,
			Title:           strings.TrimSpace(in.Title),
			Type:            in.Type,
			ContentURL:      in.ContentURL,
			Body:            in.Body,
			DurationSeconds: in.DurationSeconds,
			Position:        position,
			IsPreview:       in.IsPreview,
		}
		return errors.Wrap(tx.Create(&material).Error, "creating material")
	})
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (s *CourseService) UpdateMaterial(actor Actor, materialID uuid.UUID, in MaterialInput) (*models.Material, error) {
	if err := validateMaterial(in); err != nil {
		return nil, err
	}

	var material models.Material
	err := s.db.Transaction(func(tx *gorm.DB) error {
		m, _, err := loadOwnedDraftMaterial(tx, actor, materialID)
		if err != nil {
			return err
		}
		material = *m

		updates := map[string]interface{}{
			"title":            strings.TrimSpace(in.Title),
			"type":             in.Type,
			"content_url":      in.ContentURL,
			"body":             in.Body,
			"duration_seconds": in.DurationSeconds,
			"is_preview":       in.IsPreview,
		}
		if in.Position != nil {
			updates["position"] = *in.Position
		}
		if err := tx.Model(&material).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "updating material")
		}
		if material.Type == models.MaterialQuiz && in.Type != models.MaterialQuiz {
			if err := tx.Where("material_id = ?", material.ID).Delete(&models.QuizQuestion{}).Error; err != nil {
				return errors.Wrap(err, "deleting quiz questions")
			}
		}
		return first(tx, &material, "Material", "id = ?", materialID)
	})
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (s *CourseService) DeleteMaterial(actor Actor, materialID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, _, err := loadOwnedDraftMaterial(tx, actor, materialID); err != nil {
			return err
		}
		return deleteMaterials(tx, []uuid.UUID{materialID})
	})
}

// Submit sends a draft for admin review. The course needs at least one
// section and one material, and every quiz needs a question.
func (s *CourseService) Submit(actor Actor, courseID uuid.UUID) (*models.Course, error) {
	var course *models.Course
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		course, err = loadOwnedCourse(tx, actor, courseID)
		if err != nil {
			return err
		}

		var sections, materials int64
		if err := tx.Model(&models.Section{}).Where("course_id = ?", course.ID).Count(&sections).Error; err != nil {
			return errors.Wrap(err, "counting sections")
		}
		if err := tx.Model(&models.Material{}).Where("course_id = ?", course.ID).Count(&materials).Error; err != nil {
			return errors.Wrap(err, "counting materials")
		}
		if sections == 0 || materials == 0 {
			return apperrors.BadRequest("A course needs at least one section with one material before it can be submitted")
		}

		var emptyQuizzes []string
		if err := tx.Model(&models.Material{}).
			Where("course_id = ? AND type = ?", course.ID, models.MaterialQuiz).
			Where("NOT EXISTS (SELECT 1 FROM quiz_questions WHERE quiz_questions.material_id = materials.id)").
			Order("position asc").
			Pluck("title", &emptyQuizzes).Error; err != nil {
			return errors.Wrap(err, "checking quizzes")
		}
		if len(emptyQuizzes) > 0 {
			return apperrors.BadRequest("Quiz %q has no questions", emptyQuizzes[0])
		}

		now := s.now()
		return transition(tx, course, models.CoursePendingReview, map[string]interface{}{
			"submitted_at":     now,
			"rejection_reason": nil,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyAdmins(models.NotifyCourseReview,
		"Course submitted for review",
		fmt.Sprintf("%q is waiting for review.", course.Title),
		"/admin/courses/"+course.ID.String()); err != nil {
		return nil, err
	}
	return s.Get(courseID)
}

func (s *CourseService) Approve(courseID uuid.UUID) (*models.Course, error) {
	course, err := s.loadWithMentor(courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CoursePendingReview {
		return nil, apperrors.Conflict("Only courses pending review can be approved")
	}

	now := s.now()
	if err := transition(s.db, course, models.CoursePublished, map[string]interface{}{
		"published_at":     now,
		"rejection_reason": nil,
	}); err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(course.MentorID, models.NotifyCourseDecision,
		"Course approved",
		fmt.Sprintf("%q is now published.", course.Title),
		"/courses/"+course.Slug); err != nil {
		return nil, err
	}
	if course.Mentor != nil {
		s.mail.Send(recipient(course.Mentor), notifications.TemplateCourseApproved, map[string]any{
			"CourseTitle": course.Title,
			"CourseSlug":  course.Slug,
		})
	}
	return s.Get(courseID)
}

// Reject returns a course under review to DRAFT with the reviewer's reason.
func (s *CourseService) Reject(courseID uuid.UUID, reason string) (*models.Course, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.BadRequest("A rejection reason is required")
	}
	course, err := s.loadWithMentor(courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CoursePendingReview {
		return nil, apperrors.Conflict("Only courses pending review can be rejected")
	}

	if err := transition(s.db, course, models.CourseDraft, map[string]interface{}{
		"rejection_reason": reason,
	}); err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(course.MentorID, models.NotifyCourseDecision,
		"Course needs changes",
		fmt.Sprintf("%q was returned to draft: %s", course.Title, reason),
		"/mentor/courses/"+course.ID.String()); err != nil {
		return nil, err
	}
	if course.Mentor != nil {
		s.mail.Send(recipient(course.Mentor), notifications.TemplateCourseRejected, map[string]any{
			"CourseTitle": course.Title,
			"Reason":      reason,
		})
	}
	return s.Get(courseID)
}

// Archive hides a course from the catalog. Owners and admins may archive.
func (s *CourseService) Archive(actor Actor, courseID uuid.UUID) (*models.Course, error) {
	course, err := s.Get(courseID)
	if err != nil {
		return nil, err
	}
	if course.MentorID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("You do not own this course")
	}
	wasPublished := course.Status == models.CoursePublished
	if err := transition(s.db, course, models.CourseArchived, nil); err != nil {
		return nil, err
	}

	if wasPublished {
		if err := s.notifier.NotifyCourseStudents(course.ID, models.NotifyCourseUpdate,
			"Course archived",
			fmt.Sprintf("%q is no longer listed in the catalog. You keep access to it.", course.Title),
			"/learn/"+course.Slug); err != nil {
			return nil, err
		}
	}
	if actor.IsAdmin() && course.MentorID != actor.ID {
		if _, err := s.notifier.Notify(course.MentorID, models.NotifyCourseDecision,
			"Course archived",
			fmt.Sprintf("%q was archived by an administrator.", course.Title),
			"/mentor/courses/"+course.ID.String()); err != nil {
			return nil, err
		}
	}
	return s.Get(courseID)
}

// Restore moves an archived course back to DRAFT so it can be edited and
// resubmitted.
func (s *CourseService) Restore(actor Actor, courseID uuid.UUID) (*models.Course, error) {
	course, err := loadOwnedCourse(s.db, actor, courseID)
	if err != nil {
		return nil, err
	}
	if err := transition(s.db, course, models.CourseDraft, map[string]interface{}{
		"published_at": nil,
	}); err != nil {
		return nil, err
	}
	return s.Get(courseID)
}

func (s *CourseService) Catalog(f CatalogFilter, p Pagination) (Page[models.Course], error) {
	order, ok := catalogSorts[strings.ToLower(f.Sort)]
	if !ok {
		return Page[models.Course]{}, apperrors.BadRequest("Unknown sort %q", f.Sort)
	}

	q := s.db.Model(&models.Course{}).Where("courses.status = ?", models.CoursePublished)
	if search := strings.TrimSpace(f.Search); search != "" {
		term := likePattern(search)
		q = q.Where("LOWER(courses.title) LIKE ? OR LOWER(courses.description) LIKE ?", term, term)
	}
	if f.Category != "" {
		q = q.Where("LOWER(courses.category) = ?", strings.ToLower(f.Category))
	}
	if f.Level != "" {
		q = q.Where("courses.level = ?", strings.ToUpper(f.Level))
	}
	if f.MinPrice != nil {
		q = q.Where("courses.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("courses.price <= ?", *f.MaxPrice)
	}
	if f.MentorID != nil {
		q = q.Where("courses.mentor_id = ?", *f.MentorID)
	}
	return paginate[models.Course](q, p, order, "Mentor")
}

// Categories lists the distinct categories of published courses.
func (s *CourseService) Categories() ([]string, error) {
	categories := make([]string, 0)
	err := s.db.Model(&models.Course{}).
		Where("status = ? AND category <> ''", models.CoursePublished).
		Distinct().Order("category asc").
		Pluck("category", &categories).Error
	return categories, errors.Wrap(err, "listing categories")
}

// Detail loads a course by id or slug with its curriculum. Content of
// non-preview materials is withheld from viewers without access. viewer is
// nil for anonymous requests.
func (s *CourseService) Detail(viewer *Actor, idOrSlug string) (*CourseDetail, error) {
	q := s.db.Preload("Mentor").
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, created_at asc") }).
		Preload("Sections.Materials", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, created_at asc") })

	var course models.Course
	var err error
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		err = first(q, &course, "Course", "id = ?", id)
	} else {
		err = first(q, &course, "Course", "slug = ?", idOrSlug)
	}
	if err != nil {
		return nil, err
	}

	detail := &CourseDetail{Course: &course}
	if viewer != nil {
		detail.IsOwner = course.MentorID == viewer.ID
		detail.HasAccess = detail.IsOwner || viewer.IsAdmin()
		if !detail.HasAccess {
			var enrollment models.Enrollment
			err := s.db.Where("user_id = ? AND course_id = ?", viewer.ID, course.ID).First(&enrollment).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.Wrap(err, "loading enrollment")
			}
			detail.HasAccess = err == nil && enrollment.HasAccess()
		}
	}

	switch course.Status {
	case models.CoursePublished:
	case models.CourseArchived:
		if !detail.HasAccess {
			return nil, apperrors.NotFound("Course")
		}
	default:
		if !detail.IsOwner && (viewer == nil || !viewer.IsAdmin()) {
			return nil, apperrors.NotFound("Course")
		}
	}

	if !detail.HasAccess {
		for i := range course.Sections {
			for j := range course.Sections[i].Materials {
				m := &course.Sections[i].Materials[j]
				if !m.IsPreview {
					m.ContentURL = nil
					m.Body = nil
				}
			}
		}
	}

	counts, err := enrollmentCounts(s.db, []uuid.UUID{course.ID})
	if err != nil {
		return nil, err
	}
	detail.StudentCount = counts[course.ID]
	return detail, nil
}

// MyCourses lists every course the mentor owns with its enrollment count.
func (s *CourseService) MyCourses(actor Actor, status string) ([]MentorCourse, error) {
	q := s.db.Where("mentor_id = ?", actor.ID)
	if status != "" {
		q = q.Where("status = ?", strings.ToUpper(status))
	}
	var courses []models.Course
	if err := q.Order("created_at desc").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "listing courses")
	}

	ids := make([]uuid.UUID, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	counts, err := enrollmentCounts(s.db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MentorCourse, len(courses))
	for i, c := range courses {
		out[i] = MentorCourse{Course: c, EnrollmentCount: counts[c.ID]}
	}
	return out, nil
}

// ListForAdmin lists courses in any status for moderation.
func (s *CourseService) ListForAdmin(status, search string, p Pagination) (Page[models.Course], error) {
	q := s.db.Model(&models.Course{})
	if status != "" {
		q = q.Where("status = ?", strings.ToUpper(status))
	}
	if strings.TrimSpace(search) != "" {
		q = q.Where("LOWER(title) LIKE ?", likePattern(search))
	}
	return paginate[models.Course](q, p, "updated_at desc", "Mentor")
}

func (s *CourseService) requireApprovedMentor(userID uuid.UUID) error {
	var profile models.MentorProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Forbidden("Only approved mentors can create courses")
	}
	if err != nil {
		return errors.Wrap(err, "loading mentor profile")
	}
	if profile.Status != models.MentorApproved {
		return apperrors.Forbidden("Only approved mentors can create courses")
	}
	return nil
}

func (s *CourseService) loadWithMentor(courseID uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := first(s.db.Preload("Mentor"), &course, "Course", "id = ?", courseID); err != nil {
		return nil, err
	}
	return &course, nil
}

// transition moves course to next if the transition table allows it. The
// update is conditional on the current status so concurrent moderators
// cannot both apply a transition.
func transition(tx *gorm.DB, course *models.Course, next models.CourseStatus, updates map[string]interface{}) error {
	if !course.Status.CanTransitionTo(next) {
		return apperrors.Conflict("Course cannot move from %s to %s", course.Status, next)
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = next

	res := tx.Model(&models.Course{}).
		Where("id = ? AND status = ?", course.ID, course.Status).
		Updates(updates)
	if res.Error != nil {
		return errors.Wrap(res.Error, "updating course status")
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("Course status changed, reload and try again")
	}
	course.Status = next
	return nil
}

func loadOwnedCourse(tx *gorm.DB, actor Actor, courseID uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := first(tx, &course, "Course", "id = ?", courseID); err != nil {
		return nil, err
	}
	if course.MentorID != actor.ID {
		return nil, apperrors.Forbidden("You do not own this course")
	}
	return &course, nil
}

func requireDraft(course *models.Course) error {
	if course.Status != models.CourseDraft {
		return apperrors.Conflict("Only draft courses can be edited, this course is %s", course.Status)
	}
	return nil
}

// loadOwnedDraftMaterial loads a material whose course actor owns and that is
// still a draft.
func loadOwnedDraftMaterial(tx *gorm.DB, actor Actor, materialID uuid.UUID) (*models.Material, *models.Course, error) {
	var material models.Material
	if err := first(tx, &material, "Material", "id = ?", materialID); err != nil {
		return nil, nil, err
	}
	course, err := loadOwnedCourse(tx, actor, material.CourseID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireDraft(course); err != nil {
		return nil, nil, err
	}
	return &material, course, nil
}

func deleteMaterials(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("material_id IN ?", ids).Delete(&models.QuizQuestion{}).Error; err != nil {
		return errors.Wrap(err, "deleting quiz questions")
	}
	if err := tx.Where("material_id IN ?", ids).Delete(&models.Progress{}).Error; err != nil {
		return errors.Wrap(err, "deleting progress")
	}
	return errors.Wrap(tx.Where("id IN ?", ids).Delete(&models.Material{}).Error, "deleting materials")
}

func nextPosition(tx *gorm.DB, model interface{}, query string, args ...interface{}) (int, error) {
	var count int64
	if err := tx.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "counting siblings")
	}
	return int(count), nil
}

func validateMaterial(in MaterialInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	switch in.Type {
	case models.MaterialVideo, models.MaterialFile:
		if in.ContentURL == nil || *in.ContentURL == "" {
			return apperrors.BadRequest("content_url is required for %s materials", strings.ToLower(in.Type))
		}
	case models.MaterialArticle:
		if in.Body == nil || strings.TrimSpace(*in.Body) == "" {
			return apperrors.BadRequest("body is required for article materials")
		}
	}
	return nil
}

type courseCount struct {
	CourseID uuid.UUID
	Count    int64
}

// enrollmentCounts returns the number of non-cancelled enrollments per course.
func enrollmentCounts(db *gorm.DB, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}
	var rows []courseCount
	if err := db.Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS count").
		Where("course_id IN ? AND status <> ?", courseIDs, models.EnrollmentCancelled).
		Group("course_id").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "counting enrollments")
	}
	for _, r := range rows {
		counts[r.CourseID] = r.Count
	}
	return counts, nil
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
