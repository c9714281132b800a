package handlers

import (
	"strings"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/services"
	"github.com/gofiber/fiber/v2"
)

// ApplyAsMentor submits, or after a rejection resubmits, a mentor application.
func (h *Handler) ApplyAsMentor(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req services.MentorApplicationInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profile, err := h.Mentors.Apply(actor.ID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (h *Handler) GetMyMentorProfile(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	profile, err := h.Mentors.GetProfile(actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *Handler) UpdateMyMentorProfile(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req services.MentorApplicationInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profile, err := h.Mentors.UpdateOwnProfile(actor.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *Handler) ListMentors(c *fiber.Ctx) error {
	page, err := h.Mentors.ListApproved(strings.TrimSpace(c.Query("search")), pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) GetMentorProfile(c *fiber.Ctx) error {
	mentorID, err := paramID(c, "mentorId")
	if err != nil {
		return err
	}
	profile, err := h.Mentors.GetProfile(mentorID)
	if err != nil {
		return err
	}
	if profile.Status != models.MentorApproved {
		return apperrors.NotFound("Mentor")
	}
	return c.JSON(profile)
}

func (h *Handler) GetMentorDashboard(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	dashboard, err := h.Analytics.MentorDashboard(actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(dashboard)
}

func (h *Handler) GetMentorEarnings(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	from, err := queryDate(c, "start_date", false)
	if err != nil {
		return err
	}
	to, err := queryDate(c, "end_date", true)
	if err != nil {
		return err
	}
	earnings, err := h.Transactions.MentorEarnings(actor.ID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(earnings)
}
