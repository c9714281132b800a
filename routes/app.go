package routes

import (
	"log"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/handlers"
	"github.com/anjiri1684/mentora/middleware"
	"github.com/anjiri1684/mentora/reporting"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Config struct {
	AppName      string
	JWTSecret    string
	AllowOrigins string
	TimeZone     string
	AccessLog    bool
	PrintRoutes  bool
}

// ErrorHandler renders every error returned by a handler. Server errors are
// reported and their details masked.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := apperrors.Status(err)
	if code >= fiber.StatusInternalServerError {
		reporting.Error(err, map[string]interface{}{
			"path":   c.Path(),
			"method": c.Method(),
		})
	} else {
		log.Printf("[WARN] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
	}

	body := fiber.Map{
		"status":  "error",
		"code":    code,
		"message": apperrors.Message(err),
	}
	if fields := apperrors.Fields(err); len(fields) > 0 {
		body["errors"] = fields
	}
	return c.Status(code).JSON(body)
}

// NewApp builds the HTTP application with every route group mounted.
func NewApp(h *handlers.Handler, cfg Config) *fiber.App {
	if cfg.AppName == "" {
		cfg.AppName = "Mentora"
	}
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = "*"
	}

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           cfg.AppName,
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: cfg.PrintRoutes,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler:      ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			TimeFormat: "2006-01-02 15:04:05",
			TimeZone:   cfg.TimeZone,
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to " + cfg.AppName + " API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	protected := middleware.Protected(cfg.JWTSecret, h.Users)
	api := app.Group("/api/v1")

	AuthRoutes(api, h, protected)
	ProfileRoutes(api, h, protected)
	CourseRoutes(api, h, protected)
	// Registered before the mentor studio group: group middleware matches
	// by path prefix and "/mentor" is a prefix of "/mentors".
	MentorRoutes(api, h, protected)
	StudioRoutes(api, h, protected)
	LearningRoutes(api, h, protected)
	PaymentRoutes(api, h, protected)
	NotificationRoutes(api, h, protected)
	UploadRoutes(api, h, protected)
	AdminRoutes(api, h, protected)

	return app
}
