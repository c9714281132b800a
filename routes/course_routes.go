package routes

import (
	"github.com/anjiri1684/mentora/handlers"
	"github.com/anjiri1684/mentora/middleware"
	"github.com/gofiber/fiber/v2"
)

// CourseRoutes mounts the public catalog. Course detail identifies the
// caller when a token is sent so owners and enrolled students see content.
func CourseRoutes(api fiber.Router, h *handlers.Handler, protected fiber.Handler) {
	courses := api.Group("/courses")
	courses.Get("", h.ListCourses)
	courses.Get("/categories", h.ListCategories)
	courses.Get("/:courseId/reviews", h.ListCourseReviews)
	courses.Get("/:course", middleware.OptionalAuth(h.Users), h.GetCourse)
}
