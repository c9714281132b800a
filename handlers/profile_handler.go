package handlers

import (
	"github.com/anjiri1684/mentora/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	user, err := h.Users.Get(actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req services.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.Users.UpdateProfile(actor.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req services.ChangePasswordInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.Users.ChangePassword(actor.ID, req); err != nil {
		return err
	}
	return message(c, "Password updated successfully.")
}

// GetMyCertificates lists the caller's course certificates.
func (h *Handler) GetMyCertificates(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	certs, err := h.Certificates.ListMine(actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(certs)
}

// VerifyCertificate is public: anyone holding a certificate number can check it.
func (h *Handler) VerifyCertificate(c *fiber.Ctx) error {
	cert, err := h.Certificates.Verify(c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(cert)
}
