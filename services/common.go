package services

import (
	"math"
	"strings"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/notifications"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var validate = validator.New()

// Actor is the authenticated caller of a service method.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Emailer sends a templated email without blocking the caller.
type Emailer interface {
	Send(to notifications.Recipient, template string, data map[string]any)
}

func recipient(u *models.User) notifications.Recipient {
	return notifications.Recipient{Name: u.FullName, Email: u.Email}
}

// Pagination is a 1-based page request. Limits are clamped to [1, 100].
type Pagination struct {
	Page  int
	Limit int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	Limit    int   `json:"limit"`
	LastPage int   `json:"last_page"`
}

func (p Pagination) Meta(total int64) PageMeta {
	return PageMeta{
		Total:    total,
		Page:     p.Page,
		Limit:    p.Limit,
		LastPage: int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}

// Page is one page of results as returned to clients.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// paginate counts and fetches one page of q. Associations are preloaded only
// for the page query.
func paginate[T any](q *gorm.DB, p Pagination, order string, preloads ...string) (Page[T], error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, errors.Wrap(err, "counting rows")
	}
	find := q.Session(&gorm.Session{})
	for _, assoc := range preloads {
		find = find.Preload(assoc)
	}
	items := make([]T, 0)
	if err := find.Order(order).Offset(p.Offset()).Limit(p.Limit).Find(&items).Error; err != nil {
		return Page[T]{}, errors.Wrap(err, "listing rows")
	}
	return Page[T]{Data: items, Meta: p.Meta(total)}, nil
}

// first loads the first row matching query into dest, mapping a missing row
// to a NotFoundError for resource.
func first(db *gorm.DB, dest any, resource string, query string, args ...any) error {
	err := db.Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return errors.Wrapf(err, "loading %s", strings.ToLower(resource))
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return apperrors.Validation(err)
	}
	return nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
