package handlers

import (
	"pharmacy/internal/models"
	"pharmacy/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	service *services.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// RegisterRoutes registers the category routes with the Fiber app.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Post("/", h.HandleCreateCategory)
}

// HandleGetCategories lists categories by name.
func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories()
	if err != nil {
		return respondError(c, err, "Could not retrieve categories")
	}
	return c.JSON(categories)
}

// HandleCreateCategory creates a category.
func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.service.CreateCategory(&category); err != nil {
		return respondError(c, err, "Could not create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}
