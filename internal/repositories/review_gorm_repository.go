package repositories

import (
	"fmt"

	"pharmacy/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

// GetAll retrieves reviews, newest first, optionally for one product.
func (r *GORMReviewRepository) GetAll(productID string) ([]models.Review, error) {
	var reviews []models.Review
	q := r.db.Order("created_at DESC").Order("id ASC")
	if productID != "" {
		q = q.Where("product_id = ?", productID)
	}
	if err := q.Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	return reviews, nil
}

// Create stores a new review.
func (r *GORMReviewRepository) Create(review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}
