package repositories

import (
	"errors"
	"fmt"

	"pharmacy/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

// GetAll retrieves all categories ordered by name.
func (r *GORMCategoryRepository) GetAll() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get all categories: %w", err)
	}
	return categories, nil
}

// GetByName retrieves a category by its exact name.
func (r *GORMCategoryRepository) GetByName(name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category %q: %w", name, err)
	}
	return &category, nil
}

// Create stores a new category. Names are unique.
func (r *GORMCategoryRepository) Create(category *models.Category) error {
	if _, err := r.GetByName(category.Name); err == nil {
		return fmt.Errorf("category %q: %w", category.Name, ErrDuplicate)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := r.db.Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}
