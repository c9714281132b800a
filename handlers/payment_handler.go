package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Checkout opens a PayPal order for a paid course. The client sends the
// student to approve_url and then calls Capture.
func (h *Handler) Checkout(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	result, err := h.Transactions.Checkout(c.UserContext(), actor, courseID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *Handler) CaptureTransaction(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	transactionID, err := paramID(c, "transactionId")
	if err != nil {
		return err
	}
	result, err := h.Transactions.Capture(c.UserContext(), actor, transactionID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) GetMyTransactions(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	page, err := h.Transactions.ListMine(actor.ID, pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) GetTransaction(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	transactionID, err := paramID(c, "transactionId")
	if err != nil {
		return err
	}
	txn, err := h.Transactions.Get(actor, transactionID)
	if err != nil {
		return err
	}
	return c.JSON(txn)
}
