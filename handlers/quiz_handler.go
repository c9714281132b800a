package handlers

import (
	"github.com/anjiri1684/mentora/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) AddQuizQuestion(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	materialID, err := paramID(c, "materialId")
	if err != nil {
		return err
	}
	var req services.QuizQuestionInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	question, err := h.Quizzes.AddQuestion(actor, materialID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

func (h *Handler) ListQuizQuestions(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	materialID, err := paramID(c, "materialId")
	if err != nil {
		return err
	}
	questions, err := h.Quizzes.ListQuestions(actor, materialID)
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

func (h *Handler) UpdateQuizQuestion(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	questionID, err := paramID(c, "questionId")
	if err != nil {
		return err
	}
	var req services.QuizQuestionInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	question, err := h.Quizzes.UpdateQuestion(actor, questionID, req)
	if err != nil {
		return err
	}
	return c.JSON(question)
}

func (h *Handler) DeleteQuizQuestion(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	questionID, err := paramID(c, "questionId")
	if err != nil {
		return err
	}
	if err := h.Quizzes.DeleteQuestion(actor, questionID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetQuiz returns the questions of a quiz without their answers.
func (h *Handler) GetQuiz(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	materialID, err := paramID(c, "materialId")
	if err != nil {
		return err
	}
	quiz, err := h.Quizzes.GetQuiz(actor.ID, materialID)
	if err != nil {
		return err
	}
	return c.JSON(quiz)
}

func (h *Handler) SubmitQuiz(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	materialID, err := paramID(c, "materialId")
	if err != nil {
		return err
	}
	var req services.QuizSubmission
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.Quizzes.SubmitAttempt(actor.ID, materialID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *Handler) ListQuizAttempts(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	materialID, err := paramID(c, "materialId")
	if err != nil {
		return err
	}
	attempts, err := h.Quizzes.Attempts(actor.ID, materialID)
	if err != nil {
		return err
	}
	return c.JSON(attempts)
}
