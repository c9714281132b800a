package handlers

import (
	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/services"
	"github.com/gofiber/fiber/v2"
)

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.Users.Register(req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	token, user, err := h.Users.Login(req)
	if err != nil {
		return err
	}
	return c.JSON(LoginResponse{Token: token, User: user})
}

// RefreshToken reissues a token carrying the caller's current role, e.g.
// after a mentor application was approved.
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	user, err := h.Users.Get(actor.ID)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return apperrors.Unauthorized("Account is deactivated")
	}
	token, err := h.Users.IssueToken(user)
	if err != nil {
		return err
	}
	return c.JSON(LoginResponse{Token: token, User: user})
}

func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.Users.ForgotPassword(req.Email); err != nil {
		return err
	}
	return message(c, "If an account with that email exists, a password reset link has been sent.")
}

func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req services.ResetPasswordInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.Users.ResetPassword(req); err != nil {
		return err
	}
	return message(c, "Password has been reset successfully.")
}
