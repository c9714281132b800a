package routes

import (
	"github.com/anjiri1684/mentora/handlers"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func NotificationRoutes(api fiber.Router, h *handlers.Handler, protected fiber.Handler) {
	notifications := api.Group("/notifications", protected)
	notifications.Get("", h.ListNotifications)
	notifications.Get("/unread-count", h.UnreadNotificationCount)
	notifications.Put("/read-all", h.MarkAllNotificationsRead)
	notifications.Put("/:notificationId/read", h.MarkNotificationRead)
	notifications.Delete("/:notificationId", h.DeleteNotification)

	// Sockets authenticate with their first frame, browsers cannot set
	// headers on the upgrade request.
	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws/notifications", websocket.New(h.ServeNotifications))
}
