package handlers

import (
	"log"

	"github.com/anjiri1684/mentora/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type socketError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type socketReady struct {
	Type   string `json:"type"`
	Unread int64  `json:"unread"`
}

func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	page, err := h.Notifications.ListMine(actor.ID, c.QueryBool("unread", false), pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) UnreadNotificationCount(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	count, err := h.Notifications.UnreadCount(actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"unread": count})
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "notificationId")
	if err != nil {
		return err
	}
	n, err := h.Notifications.MarkRead(actor.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(n)
}

func (h *Handler) MarkAllNotificationsRead(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	updated, err := h.Notifications.MarkAllRead(actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"updated": updated})
}

func (h *Handler) DeleteNotification(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "notificationId")
	if err != nil {
		return err
	}
	if err := h.Notifications.Delete(actor.ID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ServeNotifications authenticates a socket with its first frame and then
// keeps it registered with the hub until the client goes away. Frames sent
// after authentication are ignored.
func (h *Handler) ServeNotifications(c *websocketcontrib.Conn) {
	var auth authMessage
	if err := c.ReadJSON(&auth); err != nil || auth.Type != "auth" {
		log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(socketError{Type: "error", Error: "Invalid or missing auth message"})
		c.Close()
		return
	}

	userID, _, err := h.Users.ParseToken(auth.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid token, error: %v", err)
		_ = c.WriteJSON(socketError{Type: "error", Error: "Invalid token"})
		c.Close()
		return
	}

	unread, err := h.Notifications.UnreadCount(userID)
	if err != nil {
		log.Printf("WebSocket unread count for %s: %v", userID, err)
	}
	if err := c.WriteJSON(socketReady{Type: "ready", Unread: unread}); err != nil {
		c.Close()
		return
	}

	client := &websocket.Client{UserID: userID, Conn: c}
	h.Hub.Register(client)
	defer func() {
		h.Hub.Unregister(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for client %s", userID)
			} else {
				log.Printf("WebSocket read error for client %s: %v", userID, err)
			}
			return
		}
	}
}
