package routes

import (
	"github.com/anjiri1684/mentora/handlers"
	"github.com/anjiri1684/mentora/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(api fiber.Router, h *handlers.Handler, protected fiber.Handler) {
	admin := api.Group("/admin", protected, middleware.AdminRequired())

	admin.Get("/dashboard-analytics", h.GetDashboardAnalytics)

	users := admin.Group("/users")
	users.Get("", h.GetAllUsers)
	users.Put("/:userId/status", h.ToggleUserStatus)
	users.Delete("/:userId", h.AdminDeleteUser)

	mentors := admin.Group("/mentors")
	mentors.Get("/applications", h.ListMentorApplications)
	mentors.Post("/:userId/approve", h.ApproveMentor)
	mentors.Post("/:userId/reject", h.RejectMentor)

	courses := admin.Group("/courses")
	courses.Get("", h.AdminListCourses)
	courses.Post("/:courseId/approve", h.ApproveCourse)
	courses.Post("/:courseId/reject", h.RejectCourse)
	courses.Post("/:courseId/archive", h.ArchiveCourse)

	reviews := admin.Group("/reviews")
	reviews.Get("", h.AdminGetReviews)
	reviews.Delete("/:reviewId", h.DeleteReview)

	transactions := admin.Group("/transactions")
	transactions.Get("", h.AdminGetTransactions)
	transactions.Post("/:transactionId/refund", h.ProcessRefund)

	reports := admin.Group("/reports")
	reports.Get("/transactions", h.GenerateTransactionReport)
}
