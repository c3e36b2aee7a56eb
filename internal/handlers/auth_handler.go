package handlers

import (
	"blogapi/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler exposes the identity resolved by the authorization middleware.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// RegisterRoutes registers the identity routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	router.Get("/me", protect, h.HandleMe)
}

// HandleMe returns the authenticated user and their authorities.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"user":        user,
		"authorities": user.Authorities(),
	})
}
