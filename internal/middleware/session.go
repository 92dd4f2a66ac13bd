package middleware

import (
	"github.com/gofiber/fiber/v3"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/service"
)

// RequireSession creates a Fiber middleware that rejects requests while
// no user is logged in and injects the current user into request
// locals. The bridge listens on loopback for the shell only, so the
// session service is the authority; token validation belongs to
// Supabase and the backend.
func RequireSession(session *service.SessionService) fiber.Handler {
	return func(c fiber.Ctx) error {
		snapshot := session.Current()
		if snapshot.User == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "not logged in",
			})
		}

		c.Locals("user", snapshot.User)
		return c.Next()
	}
}

// GetUser extracts the current user from Fiber locals.
func GetUser(c fiber.Ctx) *domain.User {
	u, ok := c.Locals("user").(*domain.User)
	if !ok {
		return nil
	}
	return u
}
