// Package apperrors defines the typed errors returned by the service layer and
// their mapping onto HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AppError is an error with an HTTP status attached.
type AppError struct {
	Code    int
	Message string
	Fields  map[string]string
}

func (e *AppError) Error() string {
	return e.Message
}

// NotFoundError is returned when a referenced record does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError is returned when a write would break a uniqueness or state rule.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func New(code int, format string, args ...any) error {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) error {
	return New(fiber.StatusBadRequest, format, args...)
}

func Forbidden(format string, args ...any) error {
	return New(fiber.StatusForbidden, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return New(fiber.StatusUnauthorized, format, args...)
}

// Validation converts validator errors into a 400 with one message per field.
func Validation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return BadRequest("%s", err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonName(fe)] = describe(fe)
	}
	return &AppError{Code: fiber.StatusBadRequest, Message: "validation failed", Fields: fields}
}

func jsonName(fe validator.FieldError) string {
	name := fe.Field()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	}
	return "is invalid (" + fe.Tag() + ")"
}

// Status maps any error onto an HTTP status code. Unknown errors are 500.
func Status(err error) int {
	var (
		nf *NotFoundError
		cf *ConflictError
		ae *AppError
		fe *fiber.Error
	)
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &nf):
		return fiber.StatusNotFound
	case errors.As(err, &cf):
		return fiber.StatusConflict
	case errors.As(err, &ae):
		return ae.Code
	case errors.As(err, &fe):
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// Message returns the client-facing text for err. Errors not raised by this
// package or by fiber are masked.
func Message(err error) string {
	var (
		nf *NotFoundError
		cf *ConflictError
		ae *AppError
		fe *fiber.Error
	)
	switch {
	case errors.As(err, &nf):
		return nf.Error()
	case errors.As(err, &cf):
		return cf.Message
	case errors.As(err, &ae):
		return ae.Message
	case errors.As(err, &fe):
		return fe.Message
	}
	return "Internal server error"
}

// Fields returns per-field validation messages carried by err, if any.
func Fields(err error) map[string]string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var cf *ConflictError
	return errors.As(err, &cf)
}
