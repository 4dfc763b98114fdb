package middleware

import (
	"bricknest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", user)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// Actor returns the caller's (userID, role) pair from the session. The ledger
// trusts this pair verbatim; it came from the identity provider at login.
func Actor(c *fiber.Ctx) (uuid.UUID, string, error) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return uuid.Nil, "", fiber.ErrUnauthorized
	}
	idStr, _ := m["user_id"].(string)
	role, _ := m["role"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, "", fiber.ErrUnauthorized
	}
	return id, role, nil
}
