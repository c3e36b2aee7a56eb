package middleware

import (
	"blogapi/internal/models"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Keys under which the authenticated user is stored in fiber.Ctx locals.
const (
	LocalUser     = "user"
	LocalUsername = "username"
	LocalRoles    = "roles"
)

// Authenticate resolves the bearer token of every request. Anonymous callers
// pass through untouched and rejected tokens get a 401.
func Authenticate(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision, err := authService.Decide(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		switch decision.Outcome {
		case services.Rejected:
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		case services.Authenticated:
			c.Locals(LocalUser, decision.User)
			c.Locals(LocalUsername, decision.User.Username)
			c.Locals(LocalRoles, decision.User.Authorities())
		}
		return c.Next()
	}
}

// RequireUser rejects requests that Authenticate left anonymous.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}
