package handlers

import (
	"github.com/anjiri1684/mentora/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListCourseReviews(c *fiber.Ctx) error {
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	page, err := h.Reviews.ListForCourse(courseID, pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) CreateReview(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	var req services.ReviewInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	review, err := h.Reviews.Create(actor, courseID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *Handler) GetMyReview(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	review, err := h.Reviews.MyReview(actor.ID, courseID)
	if err != nil {
		return err
	}
	return c.JSON(review)
}

func (h *Handler) UpdateReview(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	reviewID, err := paramID(c, "reviewId")
	if err != nil {
		return err
	}
	var req services.ReviewInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	review, err := h.Reviews.Update(actor, reviewID, req)
	if err != nil {
		return err
	}
	return c.JSON(review)
}

// DeleteReview serves both authors and admins, the service decides.
func (h *Handler) DeleteReview(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	reviewID, err := paramID(c, "reviewId")
	if err != nil {
		return err
	}
	if err := h.Reviews.Delete(actor, reviewID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
