package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/essay-marker/internal/models"
)

const (
	HeaderUserID = "X-User-ID"
	userIDKey    = "userID"
)

var errUnauthorized = errors.New("unauthorized")

// RequireUser identifies the caller. With a JWT secret configured it expects
// an HS256 bearer token whose subject is the user ID; otherwise it trusts the
// X-User-ID header set by the upstream auth proxy.
func RequireUser(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := identify(c, jwtSecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error: "Unauthorized",
			})
		}
		c.Locals(userIDKey, id)
		return c.Next()
	}
}

func identify(c *fiber.Ctx, jwtSecret string) (uuid.UUID, error) {
	if jwtSecret == "" {
		return uuid.Parse(c.Get(HeaderUserID))
	}

	raw := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
	if raw == "" {
		return uuid.Nil, errUnauthorized
	}

	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errUnauthorized
	}
	return uuid.Parse(claims.Subject)
}

func currentUser(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(userIDKey).(uuid.UUID)
	return id
}
