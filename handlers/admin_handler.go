package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/mentora/services"
	"github.com/gofiber/fiber/v2"
)

type userStatusRequest struct {
	IsActive bool `json:"is_active"`
}

type refundRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	f := services.UserFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Role:   strings.ToUpper(c.Query("role")),
	}
	page, err := h.Users.List(f, pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) ToggleUserStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	var req userStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.Users.SetActive(actor, userID, req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Handler) AdminDeleteUser(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.Users.Delete(actor, userID); err != nil {
		return err
	}
	return message(c, "User deleted successfully.")
}

func (h *Handler) ListMentorApplications(c *fiber.Ctx) error {
	page, err := h.Mentors.ListApplications(strings.ToUpper(c.Query("status", "PENDING")), pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) ApproveMentor(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	profile, err := h.Mentors.Approve(userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *Handler) RejectMentor(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	var req rejectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profile, err := h.Mentors.Reject(userID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *Handler) AdminListCourses(c *fiber.Ctx) error {
	page, err := h.Courses.ListForAdmin(c.Query("status"), c.Query("search"), pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) ApproveCourse(c *fiber.Ctx) error {
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	course, err := h.Courses.Approve(courseID)
	if err != nil {
		return err
	}
	return c.JSON(course)
}

func (h *Handler) RejectCourse(c *fiber.Ctx) error {
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	var req rejectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	course, err := h.Courses.Reject(courseID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(course)
}

func (h *Handler) AdminGetReviews(c *fiber.Ctx) error {
	courseID, err := queryID(c, "course_id")
	if err != nil {
		return err
	}
	page, err := h.Reviews.ListAll(courseID, c.QueryInt("max_rating", 0), pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) transactionFilter(c *fiber.Ctx) (services.TransactionFilter, error) {
	f := services.TransactionFilter{
		Status:   strings.ToUpper(c.Query("status")),
		Provider: strings.ToLower(c.Query("provider")),
	}
	var err error
	if f.UserID, err = queryID(c, "user_id"); err != nil {
		return f, err
	}
	if f.CourseID, err = queryID(c, "course_id"); err != nil {
		return f, err
	}
	if f.From, err = queryDate(c, "start_date", false); err != nil {
		return f, err
	}
	if f.To, err = queryDate(c, "end_date", true); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) AdminGetTransactions(c *fiber.Ctx) error {
	f, err := h.transactionFilter(c)
	if err != nil {
		return err
	}
	page, err := h.Transactions.List(f, pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) ProcessRefund(c *fiber.Ctx) error {
	transactionID, err := paramID(c, "transactionId")
	if err != nil {
		return err
	}
	var req refundRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	txn, err := h.Transactions.Refund(transactionID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(txn)
}

// GenerateTransactionReport exports transactions between start_date and
// end_date (default: the last month) as csv or xlsx.
func (h *Handler) GenerateTransactionReport(c *fiber.Ctx) error {
	now := time.Now()
	from, err := queryDate(c, "start_date", false)
	if err != nil {
		return err
	}
	to, err := queryDate(c, "end_date", true)
	if err != nil {
		return err
	}
	if from == nil {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		from = &start
	}
	if to == nil {
		end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
		to = &end
	}

	report, err := h.Transactions.TransactionReport(*from, *to, strings.ToUpper(c.Query("status")), c.Query("format", "csv"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, report.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.Filename))
	return c.Send(report.Body)
}

func (h *Handler) GetDashboardAnalytics(c *fiber.Ctx) error {
	dashboard, err := h.Analytics.AdminDashboard()
	if err != nil {
		return err
	}
	return c.JSON(dashboard)
}
