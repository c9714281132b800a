package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/anjiri1684/mentora/utils"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const resetTokenTTL = 15 * time.Minute

type RegisterInput struct {
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=2,max=255"`
	Bio       *string `json:"bio" validate:"omitempty,max=2000"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search string
	Role   string
}

type UserService struct {
	db        *gorm.DB
	mail      Emailer
	jwtSecret []byte
	jwtTTL    time.Duration
	now       func() time.Time
}

func NewUserService(db *gorm.DB, mail Emailer, jwtSecret string, jwtTTL time.Duration) *UserService {
	return &UserService{
		db:        db,
		mail:      mail,
		jwtSecret: []byte(jwtSecret),
		jwtTTL:    jwtTTL,
		now:       time.Now,
	}
}

func (s *UserService) Register(in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "checking email")
	}
	if count > 0 {
		return nil, apperrors.Conflict("Email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	user := models.User{
		FullName: in.FullName,
		Email:    in.Email,
		Password: string(hashedPassword),
		Role:     models.RoleStudent,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Email already exists")
		}
		return nil, errors.Wrap(err, "creating user")
	}

	s.mail.Send(recipient(&user), notifications.TemplateWelcome, nil)
	return &user, nil
}

// Login checks credentials and returns a signed token with the user.
func (s *UserService) Login(in LoginInput) (string, *models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return "", nil, err
	}

	var user models.User
	if err := s.db.Where("email = ?", in.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.Unauthorized("Invalid email or password")
		}
		return "", nil, errors.Wrap(err, "loading user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", nil, apperrors.Unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return "", nil, apperrors.Unauthorized("Account is deactivated")
	}

	token, err := s.IssueToken(&user)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// IssueToken signs an HS256 token carrying user_id and role.
func (s *UserService) IssueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"exp":     s.now().Add(s.jwtTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	t, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return t, nil
}

// ParseToken validates tokenString and returns its subject and role.
func (s *UserService) ParseToken(tokenString string) (uuid.UUID, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", apperrors.Unauthorized("Invalid or expired JWT")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", apperrors.Unauthorized("Invalid or expired JWT")
	}
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", apperrors.Unauthorized("Invalid user ID")
	}
	role, _ := claims["role"].(string)
	if err := s.CheckActive(userID); err != nil {
		return uuid.Nil, "", err
	}
	return userID, role, nil
}

// CheckActive rejects tokens of deleted or deactivated accounts.
func (s *UserService) CheckActive(userID uuid.UUID) error {
	var user models.User
	err := s.db.Select("id", "is_active").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Unauthorized("Account no longer exists")
	}
	if err != nil {
		return errors.Wrap(err, "loading account")
	}
	if !user.IsActive {
		return apperrors.Unauthorized("Account is deactivated")
	}
	return nil
}

// ForgotPassword emails a reset link when the account exists. It reports
// success either way so callers cannot discover registered emails.
func (s *UserService) ForgotPassword(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return errors.Wrap(err, "loading user")
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		return err
	}
	expiration := s.now().Add(resetTokenTTL)
	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"reset_password_token":            token,
		"reset_password_token_expires_at": expiration,
	}).Error; err != nil {
		return errors.Wrap(err, "saving reset token")
	}

	s.mail.Send(recipient(&user), notifications.TemplatePasswordReset, map[string]any{
		"ResetToken":   token,
		"ValidMinutes": int(resetTokenTTL.Minutes()),
	})
	return nil
}

func (s *UserService) ResetPassword(in ResetPasswordInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}

	var user models.User
	if err := s.db.Where("reset_password_token = ?", in.Token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.BadRequest("Invalid or expired reset token")
		}
		return errors.Wrap(err, "loading user")
	}

	if user.ResetPasswordTokenExpiresAt == nil || user.ResetPasswordTokenExpiresAt.Before(s.now()) {
		if err := s.db.Model(&user).Updates(map[string]interface{}{
			"reset_password_token":            nil,
			"reset_password_token_expires_at": nil,
		}).Error; err != nil {
			log.Printf("🔥 Error clearing expired reset token for %s: %v", user.ID, err)
		}
		return apperrors.BadRequest("Invalid or expired reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	err = s.db.Model(&user).Updates(map[string]interface{}{
		"password":                        string(hashedPassword),
		"reset_password_token":            nil,
		"reset_password_token_expires_at": nil,
	}).Error
	return errors.Wrap(err, "updating password")
}

func (s *UserService) Get(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := first(s.db, &user, "User", "id = ?", userID); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(userID uuid.UUID, in UpdateProfileInput) (*models.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Bio != nil {
		updates["bio"] = *in.Bio
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = *in.AvatarURL
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "updating profile")
	}
	return s.Get(userID)
}

func (s *UserService) ChangePassword(userID uuid.UUID, in ChangePasswordInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	user, err := s.Get(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
		return apperrors.BadRequest("Current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return errors.Wrap(s.db.Model(user).Update("password", string(hashedPassword)).Error, "updating password")
}

func (s *UserService) List(f UserFilter, p Pagination) (Page[models.User], error) {
	q := s.db.Model(&models.User{})
	if search := strings.TrimSpace(f.Search); search != "" {
		term := likePattern(search)
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}
	if f.Role != "" {
		q = q.Where("role = ?", strings.ToUpper(f.Role))
	}
	return paginate[models.User](q, p, "created_at desc")
}

func (s *UserService) SetActive(actor Actor, userID uuid.UUID, active bool) (*models.User, error) {
	if actor.ID == userID && !active {
		return nil, apperrors.BadRequest("You cannot deactivate your own account")
	}
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Update("is_active", active).Error; err != nil {
		return nil, errors.Wrap(err, "updating user status")
	}
	user.IsActive = active
	return user, nil
}

// Delete removes a user together with the rows that only make sense for them.
// Users who authored courses must have those courses removed first.
func (s *UserService) Delete(actor Actor, userID uuid.UUID) error {
	if actor.ID == userID {
		return apperrors.BadRequest("You cannot delete your own account")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := first(tx, &user, "User", "id = ?", userID); err != nil {
			return err
		}

		var courses int64
		if err := tx.Model(&models.Course{}).Where("mentor_id = ?", userID).Count(&courses).Error; err != nil {
			return errors.Wrap(err, "counting courses")
		}
		if courses > 0 {
			return apperrors.Conflict("User still owns %d course(s)", courses)
		}

		for _, model := range []interface{}{
			&models.Review{}, &models.Progress{}, &models.QuizAttempt{},
			&models.Enrollment{}, &models.Notification{}, &models.Certificate{},
			&models.MentorProfile{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return errors.Wrap(err, "deleting user data")
			}
		}
		return errors.Wrap(tx.Delete(&user).Error, "deleting user")
	})
}
