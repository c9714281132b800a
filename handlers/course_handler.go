package handlers

import (
	"strconv"
	"strings"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type rejectRequest struct {
	Reason string `json:"reason"`
}

func queryFloat(c *fiber.Ctx, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid %s", name)
	}
	return &v, nil
}

// ListCourses is the public catalog of published courses.
func (h *Handler) ListCourses(c *fiber.Ctx) error {
	f := services.CatalogFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Sort:     c.Query("sort"),
	}
	var err error
	if f.MinPrice, err = queryFloat(c, "min_price"); err != nil {
		return err
	}
	if f.MaxPrice, err = queryFloat(c, "max_price"); err != nil {
		return err
	}
	if f.MentorID, err = queryID(c, "mentor_id"); err != nil {
		return err
	}
	page, err := h.Courses.Catalog(f, pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.Courses.Categories()
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// GetCourse resolves :course as an id or a slug.
func (h *Handler) GetCourse(c *fiber.Ctx) error {
	detail, err := h.Courses.Detail(optionalActor(c), c.Params("course"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req services.CourseInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	course, err := h.Courses.Create(actor, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func (h *Handler) UpdateCourse(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	var req services.CourseInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	course, err := h.Courses.Update(actor, courseID, req)
	if err != nil {
		return err
	}
	return c.JSON(course)
}

func (h *Handler) DeleteCourse(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	if err := h.Courses.Delete(actor, courseID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetMyCourses(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courses, err := h.Courses.MyCourses(actor, c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(courses)
}

func (h *Handler) courseAction(c *fiber.Ctx, action func(services.Actor, uuid.UUID) (interface{}, error)) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	result, err := action(actor, courseID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) SubmitCourse(c *fiber.Ctx) error {
	return h.courseAction(c, func(actor services.Actor, id uuid.UUID) (interface{}, error) {
		return h.Courses.Submit(actor, id)
	})
}

func (h *Handler) ArchiveCourse(c *fiber.Ctx) error {
	return h.courseAction(c, func(actor services.Actor, id uuid.UUID) (interface{}, error) {
		return h.Courses.Archive(actor, id)
	})
}

func (h *Handler) RestoreCourse(c *fiber.Ctx) error {
	return h.courseAction(c, func(actor services.Actor, id uuid.UUID) (interface{}, error) {
		return h.Courses.Restore(actor, id)
	})
}

func (h *Handler) ListCourseStudents(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	page, err := h.Enrollments.ListStudents(actor, courseID, pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) AddSection(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	var req services.SectionInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	section, err := h.Courses.AddSection(actor, courseID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(section)
}

func (h *Handler) UpdateSection(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	sectionID, err := paramID(c, "sectionId")
	if err != nil {
		return err
	}
	var req services.SectionInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	section, err := h.Courses.UpdateSection(actor, sectionID, req)
	if err != nil {
		return err
	}
	return c.JSON(section)
}

func (h *Handler) DeleteSection(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	sectionID, err := paramID(c, "sectionId")
	if err != nil {
		return err
	}
	if err := h.Courses.DeleteSection(actor, sectionID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) AddMaterial(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	sectionID, err := paramID(c, "sectionId")
	if err != nil {
		return err
	}
	var req services.MaterialInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	material, err := h.Courses.AddMaterial(actor, sectionID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(material)
}

func (h *Handler) UpdateMaterial(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	materialID, err := paramID(c, "materialId")
	if err != nil {
		return err
	}
	var req services.MaterialInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	material, err := h.Courses.UpdateMaterial(actor, materialID, req)
	if err != nil {
		return err
	}
	return c.JSON(material)
}

func (h *Handler) DeleteMaterial(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	materialID, err := paramID(c, "materialId")
	if err != nil {
		return err
	}
	if err := h.Courses.DeleteMaterial(actor, materialID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
