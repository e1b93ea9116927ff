package middleware

import (
	"context"
	"errors"
	"strings"

	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// SessionResolver turns a bearer token into a session, rejecting rotated tokens.
type SessionResolver interface {
	Authenticate(ctx context.Context, token string) (*model.Session, error)
}

// RequireAuth validates the token from the Authorization header, or the "token"
// query parameter for websocket upgrades, and stores the session in Locals.
func RequireAuth(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		sess, err := resolver.Authenticate(c.UserContext(), token)
		if err != nil {
			msg := "Invalid or expired token"
			if !errors.Is(err, jwt.ErrInvalidToken) {
				msg = err.Error()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
		}

		c.Locals(sessionKey, *sess)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
		return "", jwt.ErrMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization format, use: Bearer <token>")
	}
	return parts[1], nil
}

// RequirePharmacy only lets pharmacy sessions through.
func RequirePharmacy() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Session(c).IsPharmacy() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: a pharmacy account is required"})
		}
		return c.Next()
	}
}

// RequireAdmin only lets moderation sessions through.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Session(c).IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: unauthorized admin access"})
		}
		return c.Next()
	}
}

// Session returns the session stored by RequireAuth, or a zero session.
func Session(c *fiber.Ctx) model.Session {
	sess, _ := c.Locals(sessionKey).(model.Session)
	return sess
}
