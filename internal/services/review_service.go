package services

import (
	"fmt"
	"math"
	"strings"

	"pharmacy/internal/models"
	"pharmacy/internal/repositories"
)

// ReviewService stores product reviews and keeps the product's rating
// summary in step with them.
type ReviewService struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
	refresher   Refresher
}

// NewReviewService creates a new ReviewService. refresher may be nil.
func NewReviewService(reviewRepo repositories.ReviewRepository, productRepo repositories.ProductRepository, refresher Refresher) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, productRepo: productRepo, refresher: refresher}
}

// ListReviews returns reviews, newest first. An empty productID lists all.
func (s *ReviewService) ListReviews(productID string) ([]models.Review, error) {
	return s.reviewRepo.GetAll(strings.TrimSpace(productID))
}

// CreateReview stores a review and recomputes the product's rating as the
// mean of its reviews, to one decimal.
func (s *ReviewService) CreateReview(review *models.Review) error {
	review.Author = strings.TrimSpace(review.Author)
	if err := validateStruct(review); err != nil {
		return err
	}
	product, err := s.productRepo.GetByID(review.ProductID)
	if err != nil {
		return fmt.Errorf("product %s: %w", review.ProductID, err)
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return err
	}

	reviews, err := s.reviewRepo.GetAll(review.ProductID)
	if err != nil {
		return fmt.Errorf("failed to load reviews of %s: %w", review.ProductID, err)
	}
	product.Rating, product.ReviewCount = AverageRating(reviews)
	if err := s.productRepo.Update(product); err != nil {
		return fmt.Errorf("failed to update rating of %s: %w", product.ID, err)
	}
	refreshAfterWrite(s.refresher, "review created")
	return nil
}

// AverageRating returns the mean rating rounded to one decimal and the
// number of reviews.
func AverageRating(reviews []models.Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return math.Round(mean*10) / 10, len(reviews)
}
