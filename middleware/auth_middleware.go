package middleware

import (
	"strings"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/services"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const actorKey = "actor"

// TokenParser validates a bearer token and returns its subject and role.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, string, error)
}

// AccountChecker reports whether the subject of a valid token may still use
// the API.
type AccountChecker interface {
	CheckActive(userID uuid.UUID) error
}

// Protected rejects requests without a valid HS256 bearer token or whose
// account was deleted or deactivated, and stores the caller as the request
// actor.
func Protected(secret string, accounts AccountChecker) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		SigningMethod:  "HS256",
		SuccessHandler: storeActor(accounts),
		ErrorHandler:   jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "Missing or malformed JWT") {
		return apperrors.Unauthorized("Missing or malformed JWT")
	}
	return apperrors.Unauthorized("Invalid or expired JWT")
}

func storeActor(accounts AccountChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := tokenActor(c)
		if err != nil {
			return err
		}
		if err := accounts.CheckActive(actor.ID); err != nil {
			return err
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}

func tokenActor(c *fiber.Ctx) (services.Actor, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return services.Actor{}, apperrors.Unauthorized("Invalid or expired JWT")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return services.Actor{}, apperrors.Unauthorized("Invalid token claims")
	}
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return services.Actor{}, apperrors.Unauthorized("Invalid token claims")
	}
	role, _ := claims["role"].(string)
	return services.Actor{ID: userID, Role: role}, nil
}

// OptionalAuth identifies the caller when a valid bearer token is sent and
// lets anonymous or badly authenticated requests through as anonymous.
func OptionalAuth(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			if userID, role, err := parser.ParseToken(strings.TrimSpace(header[7:])); err == nil {
				c.Locals(actorKey, services.Actor{ID: userID, Role: role})
			}
		}
		return c.Next()
	}
}

// CurrentActor returns the authenticated caller, if any.
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(actorKey).(services.Actor)
	return actor, ok
}

// RequireRole allows the request when the caller holds one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return apperrors.Unauthorized("Authentication required")
		}
		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}
		return apperrors.Forbidden("Forbidden: %s access required", strings.ToLower(strings.Join(roles, " or ")))
	}
}

func AdminRequired() fiber.Handler {
	return RequireRole(models.RoleAdmin)
}

func MentorRequired() fiber.Handler {
	return RequireRole(models.RoleMentor)
}
