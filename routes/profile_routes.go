package routes

import (
	"github.com/anjiri1684/mentora/handlers"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(api fiber.Router, h *handlers.Handler, protected fiber.Handler) {
	profile := api.Group("/profile/me", protected)
	profile.Get("", h.GetProfile)
	profile.Put("", h.UpdateProfile)
	profile.Put("/password", h.ChangePassword)

	certificates := api.Group("/certificates")
	certificates.Get("/verify/:number", h.VerifyCertificate)
	certificates.Get("/me", protected, h.GetMyCertificates)
}
