package services

import (
	"errors"
	"strings"

	"pharmacy/internal/models"
	"pharmacy/internal/repositories"
)

// CategoryService manages product categories.
type CategoryService struct {
	repo      repositories.CategoryRepository
	refresher Refresher
}

// NewCategoryService creates a new CategoryService. refresher may be nil.
func NewCategoryService(repo repositories.CategoryRepository, refresher Refresher) *CategoryService {
	return &CategoryService{repo: repo, refresher: refresher}
}

// ListCategories returns all categories ordered by name.
func (s *CategoryService) ListCategories() ([]models.Category, error) {
	return s.repo.GetAll()
}

// CreateCategory validates and stores a category. Names are trimmed and must
// be unique.
func (s *CategoryService) CreateCategory(category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if err := validateStruct(category); err != nil {
		return err
	}
	if err := s.repo.Create(category); err != nil {
		return err
	}
	refreshAfterWrite(s.refresher, "category created")
	return nil
}

// EnsureCategories creates a category for every name that does not exist
// yet. Blank names are skipped.
func (s *CategoryService) EnsureCategories(names []string) (int, error) {
	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		_, err := s.repo.GetByName(name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return created, err
		}
		if err := s.repo.Create(&models.Category{Name: name}); err != nil && !errors.Is(err, repositories.ErrDuplicate) {
			return created, err
		}
		created++
	}
	if created > 0 {
		refreshAfterWrite(s.refresher, "categories created")
	}
	return created, nil
}
