package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"pharmacy/internal/models"

	"github.com/google/uuid"
)

// MockCategoryRepository is an in-memory implementation of CategoryRepository.
type MockCategoryRepository struct {
	categories map[string]models.Category // keyed by name
	mu         sync.RWMutex
}

// NewMockCategoryRepository creates a new instance of MockCategoryRepository.
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[string]models.Category),
	}
}

// GetAll returns all categories ordered by name.
func (r *MockCategoryRepository) GetAll() ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// GetByName returns a category by its exact name.
func (r *MockCategoryRepository) GetByName(name string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[name]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
	}
	return &c, nil
}

// Create adds a new category.
func (r *MockCategoryRepository) Create(category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[category.Name]; exists {
		return fmt.Errorf("category %q: %w", category.Name, ErrDuplicate)
	}
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	r.categories[category.Name] = *category
	return nil
}
