package routes

import (
	"github.com/anjiri1684/mentora/handlers"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(api fiber.Router, h *handlers.Handler, protected fiber.Handler) {
	api.Post("/checkout/:courseId", protected, h.Checkout)

	transactions := api.Group("/transactions", protected)
	transactions.Get("", h.GetMyTransactions)
	transactions.Get("/:transactionId", h.GetTransaction)
	transactions.Post("/:transactionId/capture", h.CaptureTransaction)
}
