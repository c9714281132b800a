package routes

import (
	"github.com/anjiri1684/mentora/handlers"
	"github.com/gofiber/fiber/v2"
)

func LearningRoutes(api fiber.Router, h *handlers.Handler, protected fiber.Handler) {
	enrollments := api.Group("/enrollments", protected)
	enrollments.Get("", h.GetMyEnrollments)
	enrollments.Post("/:courseId", h.Enroll)
	enrollments.Get("/:courseId", h.GetEnrollment)
	enrollments.Delete("/:courseId", h.CancelEnrollment)

	progress := api.Group("/progress", protected)
	progress.Post("/materials/:materialId/complete", h.CompleteMaterial)
	progress.Put("/materials/:materialId/position", h.UpdateMaterialPosition)
	progress.Get("/courses/:courseId", h.GetCourseProgress)
	progress.Get("/courses/:courseId/materials", h.GetMaterialProgress)

	quizzes := api.Group("/quizzes", protected)
	quizzes.Get("/:materialId", h.GetQuiz)
	quizzes.Get("/:materialId/attempts", h.ListQuizAttempts)
	quizzes.Post("/:materialId/attempts", h.SubmitQuiz)

	reviews := api.Group("/reviews", protected)
	reviews.Post("/courses/:courseId", h.CreateReview)
	reviews.Get("/courses/:courseId/me", h.GetMyReview)
	reviews.Put("/:reviewId", h.UpdateReview)
	reviews.Delete("/:reviewId", h.DeleteReview)
}
