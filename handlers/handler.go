package handlers

import (
	"strings"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/middleware"
	"github.com/anjiri1684/mentora/services"
	"github.com/anjiri1684/mentora/storage"
	"github.com/anjiri1684/mentora/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UploadSigner issues signatures for direct browser uploads.
type UploadSigner interface {
	SignUpload(folder string) (storage.SignedUpload, error)
}

// Handler holds the services the HTTP layer dispatches to.
type Handler struct {
	Users         *services.UserService
	Mentors       *services.MentorService
	Courses       *services.CourseService
	Enrollments   *services.EnrollmentService
	Quizzes       *services.QuizService
	Reviews       *services.ReviewService
	Transactions  *services.TransactionService
	Notifications *services.NotificationService
	Certificates  *services.CertificateService
	Analytics     *services.AnalyticsService
	Uploads       UploadSigner
	Hub           *websocket.Hub
}

type messageResponse struct {
	Message string `json:"message"`
}

func message(c *fiber.Ctx, text string) error {
	return c.JSON(messageResponse{Message: text})
}

func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.BadRequest("Cannot parse JSON")
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("Invalid %s", name)
	}
	return id, nil
}

func queryID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid %s", name)
	}
	return &id, nil
}

// queryDate parses a YYYY-MM-DD query value. endOfDay moves the result to the
// last second of that day.
func queryDate(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid %s format. Use YYYY-MM-DD.", name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}

func pagination(c *fiber.Ctx) services.Pagination {
	return services.NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", 10))
}

func currentActor(c *fiber.Ctx) (services.Actor, error) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return services.Actor{}, apperrors.Unauthorized("Authentication required")
	}
	return actor, nil
}

func optionalActor(c *fiber.Ctx) *services.Actor {
	if actor, ok := middleware.CurrentActor(c); ok {
		return &actor
	}
	return nil
}
