package routes

import (
	"github.com/anjiri1684/mentora/handlers"
	"github.com/anjiri1684/mentora/middleware"
	"github.com/gofiber/fiber/v2"
)

// MentorRoutes covers the public mentor directory and the application flow,
// which students use before they hold the mentor role.
func MentorRoutes(api fiber.Router, h *handlers.Handler, protected fiber.Handler) {
	mentors := api.Group("/mentors")
	mentors.Get("", h.ListMentors)
	mentors.Post("/application", protected, h.ApplyAsMentor)
	mentors.Get("/application", protected, h.GetMyMentorProfile)
	mentors.Put("/application", protected, h.UpdateMyMentorProfile)
	mentors.Get("/:mentorId", h.GetMentorProfile)
}

// StudioRoutes is the mentor-only authoring area.
func StudioRoutes(api fiber.Router, h *handlers.Handler, protected fiber.Handler) {
	studio := api.Group("/mentor", protected, middleware.MentorRequired())
	studio.Get("/dashboard", h.GetMentorDashboard)
	studio.Get("/earnings", h.GetMentorEarnings)

	courses := studio.Group("/courses")
	courses.Get("", h.GetMyCourses)
	courses.Post("", h.CreateCourse)
	courses.Put("/:courseId", h.UpdateCourse)
	courses.Delete("/:courseId", h.DeleteCourse)
	courses.Post("/:courseId/submit", h.SubmitCourse)
	courses.Post("/:courseId/archive", h.ArchiveCourse)
	courses.Post("/:courseId/restore", h.RestoreCourse)
	courses.Get("/:courseId/students", h.ListCourseStudents)
	courses.Post("/:courseId/sections", h.AddSection)

	sections := studio.Group("/sections")
	sections.Put("/:sectionId", h.UpdateSection)
	sections.Delete("/:sectionId", h.DeleteSection)
	sections.Post("/:sectionId/materials", h.AddMaterial)

	materials := studio.Group("/materials")
	materials.Put("/:materialId", h.UpdateMaterial)
	materials.Delete("/:materialId", h.DeleteMaterial)
	materials.Get("/:materialId/questions", h.ListQuizQuestions)
	materials.Post("/:materialId/questions", h.AddQuizQuestion)

	questions := studio.Group("/questions")
	questions.Put("/:questionId", h.UpdateQuizQuestion)
	questions.Delete("/:questionId", h.DeleteQuizQuestion)
}
