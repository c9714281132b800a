package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-secret"

func newTestApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.Status(err)).SendString(apperrors.Message(err))
		},
	})
	handlers = append(handlers, func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(actor.Role + ":" + actor.ID.String())
	})
	app.Get("/", handlers...)
	return app
}

// accounts rejects the listed user ids.
type accounts map[uuid.UUID]error

func (a accounts) CheckActive(userID uuid.UUID) error {
	return a[userID]
}

func sign(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func do(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestProtected(t *testing.T) {
	app := newTestApp(Protected(secret, accounts{}))
	id := uuid.New()

	status, body := do(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing or malformed JWT", body)

	foreign := sign(t, "another-secret", jwt.MapClaims{"user_id": id.String(), "role": models.RoleStudent})
	status, body = do(t, app, foreign)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired JWT", body)

	expired := sign(t, secret, jwt.MapClaims{
		"user_id": id.String(),
		"role":    models.RoleStudent,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	status, _ = do(t, app, expired)
	assert.Equal(t, http.StatusUnauthorized, status)

	badSubject := sign(t, secret, jwt.MapClaims{"user_id": "nope", "role": models.RoleStudent})
	status, body = do(t, app, badSubject)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token claims", body)

	valid := sign(t, secret, jwt.MapClaims{
		"user_id": id.String(),
		"role":    models.RoleMentor,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	status, body = do(t, app, valid)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RoleMentor+":"+id.String(), body)
}

func TestProtectedRejectsInactiveAccounts(t *testing.T) {
	active, inactive := uuid.New(), uuid.New()
	app := newTestApp(Protected(secret, accounts{
		inactive: apperrors.Unauthorized("Account is deactivated"),
	}))

	status, body := do(t, app, sign(t, secret, jwt.MapClaims{"user_id": inactive.String(), "role": models.RoleStudent}))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Account is deactivated", body)

	status, _ = do(t, app, sign(t, secret, jwt.MapClaims{"user_id": active.String(), "role": models.RoleStudent}))
	assert.Equal(t, http.StatusOK, status)
}

func TestRequireRole(t *testing.T) {
	id := uuid.New()
	student := sign(t, secret, jwt.MapClaims{"user_id": id.String(), "role": models.RoleStudent})
	admin := sign(t, secret, jwt.MapClaims{"user_id": id.String(), "role": models.RoleAdmin})

	app := newTestApp(Protected(secret, accounts{}), AdminRequired())
	status, body := do(t, app, student)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden: admin access required", body)

	status, _ = do(t, app, admin)
	assert.Equal(t, http.StatusOK, status)

	either := newTestApp(Protected(secret, accounts{}), RequireRole(models.RoleMentor, models.RoleAdmin))
	status, _ = do(t, either, admin)
	assert.Equal(t, http.StatusOK, status)
	status, body = do(t, either, student)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden: mentor or admin access required", body)

	anonymous := newTestApp(MentorRequired())
	status, _ = do(t, anonymous, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

type staticParser struct {
	actor services.Actor
	err   error
}

func (p staticParser) ParseToken(string) (uuid.UUID, string, error) {
	return p.actor.ID, p.actor.Role, p.err
}

func TestOptionalAuth(t *testing.T) {
	actor := services.Actor{ID: uuid.New(), Role: models.RoleStudent}

	app := newTestApp(OptionalAuth(staticParser{actor: actor}))
	status, body := do(t, app, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	_, body = do(t, app, "anything")
	assert.Equal(t, models.RoleStudent+":"+actor.ID.String(), body)

	rejecting := newTestApp(OptionalAuth(staticParser{err: apperrors.Unauthorized("Invalid or expired JWT")}))
	status, body = do(t, rejecting, "garbage")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)
}
