package repositories

import "pharmacy/internal/models"

// ReviewRepository defines the interface for review data access.
// An empty productID passed to GetAll selects every review.
type ReviewRepository interface {
	GetAll(productID string) ([]models.Review, error)
	Create(review *models.Review) error
}
