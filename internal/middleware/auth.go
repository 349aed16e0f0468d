package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/converse-chat/converse/internal/auth"
)

const (
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
)

// JWTAuth validates the bearer token and stores the caller identity in
// locals for downstream handlers.
func JWTAuth(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization"})
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization"})
		}
		userID, email, err := tokens.Verify(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserEmail, email)
		return c.Next()
	}
}

// UserID returns the authenticated caller's id, empty when unauthenticated.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

// UserEmail returns the authenticated caller's email.
func UserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(LocalUserEmail).(string)
	return email
}
