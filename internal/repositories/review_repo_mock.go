package repositories

import (
	"sync"
	"time"

	"pharmacy/internal/models"

	"github.com/google/uuid"
)

// MockReviewRepository is an in-memory implementation of ReviewRepository.
type MockReviewRepository struct {
	reviews []models.Review
	mu      sync.RWMutex
}

// NewMockReviewRepository creates a new instance of MockReviewRepository.
func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{}
}

// GetAll returns reviews, newest first, optionally for one product.
func (r *MockReviewRepository) GetAll(productID string) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := []models.Review{}
	for i := len(r.reviews) - 1; i >= 0; i-- {
		if productID == "" || r.reviews[i].ProductID == productID {
			list = append(list, r.reviews[i])
		}
	}
	return list, nil
}

// Create adds a new review.
func (r *MockReviewRepository) Create(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = time.Now()
	r.reviews = append(r.reviews, *review)
	return nil
}
