package handlers

import (
	"pharmacy/internal/models"
	"pharmacy/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service *services.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers the review routes with the Fiber app.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router) {
	reviewRoutes := router.Group("/reviews")
	reviewRoutes.Get("/", h.HandleGetReviews)
	reviewRoutes.Post("/", h.HandleCreateReview)
}

// HandleGetReviews lists reviews, optionally for the productId parameter.
func (h *ReviewHandler) HandleGetReviews(c *fiber.Ctx) error {
	reviews, err := h.service.ListReviews(c.Query("productId"))
	if err != nil {
		return respondError(c, err, "Could not retrieve reviews")
	}
	return c.JSON(reviews)
}

// HandleCreateReview stores a review and updates the product rating.
func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	var review models.Review
	if err := c.BodyParser(&review); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.service.CreateReview(&review); err != nil {
		return respondError(c, err, "Could not create review")
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
