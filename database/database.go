package database

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	config "github.com/anjiri1684/mentora/configs"
	"github.com/anjiri1684/mentora/models"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func gormConfig() *gorm.Config {
	return &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   newLogger(os.Stdout),
	}
}

// newLogger reports slow queries and real failures. Missing rows are an
// expected outcome of lookups and stay quiet.
func newLogger(out io.Writer) logger.Interface {
	return logger.New(log.New(out, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Open connects using driver ("postgres" or "sqlite") and dsn.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", driver)
	}
	return gorm.Open(dialector, gormConfig())
}

func ConnectDB() {
	var err error
	DB, err = Open(config.Config("DB_DRIVER"), config.Config("DATABASE_URL"))
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("🔥 Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(config.Int("DB_MAX_OPEN_CONNS", 10))
	sqlDB.SetMaxIdleConns(config.Int("DB_MAX_IDLE_CONNS", 5))

	log.Println("✅ Database connected successfully")
}

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.MentorProfile{},
		&models.Course{},
		&models.Section{},
		&models.Material{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.Enrollment{},
		&models.Progress{},
		&models.Review{},
		&models.Transaction{},
		&models.Notification{},
		&models.Certificate{},
	)
}

// SeedAdmin creates the admin account from ADMIN_* settings when missing.
func SeedAdmin(db *gorm.DB, fullName, email, password string) error {
	if email == "" || password == "" {
		log.Println("⚠️ ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed.")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return errors.Wrap(err, "checking for admin user")
	}
	if count > 0 {
		log.Println("Admin user already exists.")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing admin password")
	}

	admin := models.User{
		FullName: fullName,
		Email:    strings.ToLower(email),
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return errors.Wrap(err, "creating admin user")
	}

	log.Println("✅ Admin user seeded successfully")
	return nil
}
