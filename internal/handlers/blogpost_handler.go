package handlers

import (
	"fmt"

	"blogapi/internal/models"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// BlogpostHandler handles HTTP requests for blogposts.
type BlogpostHandler struct {
	service *services.BlogpostService
}

// NewBlogpostHandler creates a new BlogpostHandler.
func NewBlogpostHandler(service *services.BlogpostService) *BlogpostHandler {
	return &BlogpostHandler{
		service: service,
	}
}

// RegisterRoutes registers the blogpost routes. Writes go through protect.
func (h *BlogpostHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	blogpostRoutes := router.Group("/blogposts")
	blogpostRoutes.Get("/", h.HandleGetBlogposts)
	blogpostRoutes.Get("/:id", h.HandleGetBlogpostByID)
	blogpostRoutes.Post("/", protect, h.HandleCreateBlogpost)
	blogpostRoutes.Put("/:id", protect, h.HandleUpdateBlogpost)
	blogpostRoutes.Delete("/:id", protect, h.HandleDeleteBlogpost)
}

// HandleGetBlogposts lists blogposts, filtered by the optional search query.
func (h *BlogpostHandler) HandleGetBlogposts(c *fiber.Ctx) error {
	posts, err := h.service.FindAll(c.UserContext(), c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(posts)
}

// HandleGetBlogpostByID retrieves a single blogpost by its ID.
func (h *BlogpostHandler) HandleGetBlogpostByID(c *fiber.Ctx) error {
	id := c.Params("id")
	post, err := h.service.FindOne(c.UserContext(), id)
	if err != nil {
		return err
	}
	if post == nil {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("blogpost %s not found", id))
	}
	return c.JSON(post)
}

// HandleCreateBlogpost creates a new blogpost.
func (h *BlogpostHandler) HandleCreateBlogpost(c *fiber.Ctx) error {
	var post models.Blogpost
	if err := c.BodyParser(&post); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.service.Save(c.UserContext(), post)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleUpdateBlogpost updates the blogpost named by the path. Any id in the
// body is ignored.
func (h *BlogpostHandler) HandleUpdateBlogpost(c *fiber.Ctx) error {
	var post models.Blogpost
	if err := c.BodyParser(&post); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := h.service.Update(c.UserContext(), c.Params("id"), post)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// HandleDeleteBlogpost deletes a blogpost by its ID.
func (h *BlogpostHandler) HandleDeleteBlogpost(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
