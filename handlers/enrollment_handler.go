package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type positionRequest struct {
	Seconds int `json:"seconds"`
}

func (h *Handler) Enroll(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	enrollment, err := h.Enrollments.Enroll(actor, courseID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

func (h *Handler) GetMyEnrollments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	enrollments, err := h.Enrollments.ListMine(actor.ID, c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(enrollments)
}

func (h *Handler) GetEnrollment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	enrollment, err := h.Enrollments.Get(actor.ID, courseID)
	if err != nil {
		return err
	}
	return c.JSON(enrollment)
}

func (h *Handler) CancelEnrollment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	enrollment, err := h.Enrollments.Cancel(actor, courseID)
	if err != nil {
		return err
	}
	return c.JSON(enrollment)
}

func (h *Handler) CompleteMaterial(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	materialID, err := paramID(c, "materialId")
	if err != nil {
		return err
	}
	progress, err := h.Enrollments.MarkMaterialComplete(actor.ID, materialID)
	if err != nil {
		return err
	}
	return c.JSON(progress)
}

func (h *Handler) UpdateMaterialPosition(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	materialID, err := paramID(c, "materialId")
	if err != nil {
		return err
	}
	var req positionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	progress, err := h.Enrollments.UpdatePosition(actor.ID, materialID, req.Seconds)
	if err != nil {
		return err
	}
	return c.JSON(progress)
}

func (h *Handler) GetCourseProgress(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	progress, err := h.Enrollments.CourseProgress(actor.ID, courseID)
	if err != nil {
		return err
	}
	return c.JSON(progress)
}

func (h *Handler) GetMaterialProgress(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	rows, err := h.Enrollments.MaterialProgress(actor.ID, courseID)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}
