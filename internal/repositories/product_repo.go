package repositories

import (
	"pharmacy/internal/models"
)

// ProductRepository defines the interface for product data access.
// GetAll returns products in a stable order: the order they were created in.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
