package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/mentora/configs"
	"github.com/anjiri1684/mentora/database"
	"github.com/anjiri1684/mentora/handlers"
	"github.com/anjiri1684/mentora/jobs"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/anjiri1684/mentora/payments"
	"github.com/anjiri1684/mentora/reporting"
	"github.com/anjiri1684/mentora/routes"
	"github.com/anjiri1684/mentora/services"
	"github.com/anjiri1684/mentora/storage"
	"github.com/anjiri1684/mentora/websocket"
	"github.com/robfig/cron/v3"
)

func main() {
	appName := config.Default("APP_NAME", "Mentora")
	frontendURL := config.Default("FRONTEND_URL", "http://localhost:3000")
	jwtSecret := config.Config("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("🔥 JWT_SECRET must be set")
	}

	host, _ := os.Hostname()
	reporting.Init(config.Config("ROLLBAR_TOKEN"), config.Default("ENV", "development"), host)
	defer reporting.Flush()

	database.ConnectDB()
	db := database.DB
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	log.Println("✅ Database migrated successfully")
	if err := database.SeedAdmin(db,
		config.Default("ADMIN_FULL_NAME", "Administrator"),
		config.Config("ADMIN_EMAIL"),
		config.Config("ADMIN_PASSWORD")); err != nil {
		log.Fatalf("🔥 Failed to seed admin: %v", err)
	}

	mail := notifications.NewEmailService(notifications.NewMailerFromConfig(), appName, frontendURL)

	hub := websocket.NewHub()
	go hub.Run()

	var gateway services.PaymentGateway
	if id, secret := config.Config("PAYPAL_CLIENT_ID"), config.Config("PAYPAL_SECRET"); id != "" && secret != "" {
		gateway = payments.NewPayPalClient(config.Default("PAYPAL_API_BASE_URL", "https://api-m.sandbox.paypal.com"), id, secret)
		log.Println("✅ PayPal client initialized")
	} else {
		log.Println("⚠️ PayPal not configured, paid checkout is disabled.")
	}

	var (
		store    services.FileStore
		uploads  handlers.UploadSigner
		renderer services.PDFRenderer
	)
	if url := config.Config("CLOUDINARY_URL"); url != "" {
		cld, err := storage.NewCloudinaryStore(url)
		if err != nil {
			log.Fatalf("🔥 Failed to initialize Cloudinary: %v", err)
		}
		store, uploads = cld, cld
		renderer = services.ChromeRenderer{Timeout: time.Duration(config.Int("PDF_TIMEOUT_SECONDS", 60)) * time.Second}
		log.Println("✅ Cloudinary storage initialized")
	} else {
		log.Println("⚠️ CLOUDINARY_URL not set, uploads and certificate PDFs are disabled.")
	}

	notifier := services.NewNotificationService(db, hub)
	certificates := services.NewCertificateService(db, renderer, store, mail, appName, frontendURL)
	enrollments := services.NewEnrollmentService(db, notifier, mail, certificates)
	transactions := services.NewTransactionService(db, gateway, enrollments, notifier, mail, config.Float("PLATFORM_FEE_PERCENT", 20))
	users := services.NewUserService(db, mail, jwtSecret, time.Duration(config.Int("JWT_EXPIRY_HOURS", 72))*time.Hour)

	h := &handlers.Handler{
		Users:         users,
		Mentors:       services.NewMentorService(db, notifier, mail),
		Courses:       services.NewCourseService(db, notifier, mail),
		Enrollments:   enrollments,
		Quizzes:       services.NewQuizService(db, enrollments, config.Float("QUIZ_PASS_PERCENT", 70)),
		Reviews:       services.NewReviewService(db, notifier),
		Transactions:  transactions,
		Notifications: notifier,
		Certificates:  certificates,
		Analytics:     services.NewAnalyticsService(db, transactions),
		Uploads:       uploads,
		Hub:           hub,
	}

	c := cron.New()
	if _, err := c.AddFunc("*/15 * * * *", jobs.ExpireStaleTransactions(transactions, 24*time.Hour)); err != nil {
		log.Fatalf("🔥 Failed to schedule transaction expiry: %v", err)
	}
	if _, err := c.AddFunc("0 8 * * *", jobs.PendingReviewDigest(db, mail)); err != nil {
		log.Fatalf("🔥 Failed to schedule review digest: %v", err)
	}
	if _, err := c.AddFunc("@hourly", jobs.RetryCertificatePDFs(certificates, 20)); err != nil {
		log.Fatalf("🔥 Failed to schedule certificate retries: %v", err)
	}
	c.Start()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := routes.NewApp(h, routes.Config{
		AppName:      appName,
		JWTSecret:    jwtSecret,
		AllowOrigins: config.Default("CORS_ORIGINS", "*"),
		TimeZone:     config.Default("TIMEZONE", "Africa/Nairobi"),
		AccessLog:    true,
		PrintRoutes:  config.Bool("PRINT_ROUTES", false),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		<-c.Stop().Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("🔥 Shutdown error: %v", err)
		}
	}()

	port := config.Default("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}

	certificates.Wait()
	mail.Wait()
	hub.Stop()
}
