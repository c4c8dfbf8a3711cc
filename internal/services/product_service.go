package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"pharmacy/internal/catalog"
	"pharmacy/internal/models"
	"pharmacy/internal/repositories"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

// Refresher reloads the catalog snapshot after the underlying data changed.
type Refresher interface {
	Refresh(ctx context.Context) (*catalog.Snapshot, bool, error)
}

const refreshTimeout = 10 * time.Second

// refreshAfterWrite reloads the catalog so storefront reads see a write. A
// failure leaves the previous snapshot in place until the next scheduled
// refresh.
func refreshAfterWrite(r Refresher, reason string) {
	if r == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if _, _, err := r.Refresh(ctx); err != nil {
		zap.L().Warn("catalog refresh after write failed", zap.String("reason", reason), zap.Error(err))
	}
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	refresher Refresher
}

// NewProductService creates a new ProductService. refresher may be nil.
func NewProductService(repo repositories.ProductRepository, refresher Refresher) *ProductService {
	return &ProductService{
		repo:      repo,
		refresher: refresher,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := s.repo.Create(product); err != nil {
		return err
	}
	refreshAfterWrite(s.refresher, "product created")
	return nil
}

// UpdateProduct validates and replaces an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := s.repo.Update(product); err != nil {
		return err
	}
	refreshAfterWrite(s.refresher, "product updated")
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	refreshAfterWrite(s.refresher, "product deleted")
	return nil
}

// validateProduct checks a product written through the admin API. Unlike
// Import, a field that could not be decoded is rejected rather than stored
// as its zero value.
func validateProduct(p *models.Product) error {
	fields := make(map[string]string)
	if err := validateStruct(p); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		for field, msg := range verr.Fields {
			fields[field] = msg
		}
	}
	for _, field := range p.Defaulted {
		// timestamps are set by the repositories
		if field == "createdAt" || field == "updatedAt" {
			continue
		}
		fields[field] = "could not be decoded"
	}
	if p.OfferStart != nil && p.OfferEnd != nil && !p.OfferEnd.After(*p.OfferStart) {
		fields["offerEnd"] = "must be after offerStart"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// productRow is the CSV layout of the product export.
type productRow struct {
	ID          string  `csv:"id"`
	Name        string  `csv:"name"`
	Category    string  `csv:"category"`
	Price       float64 `csv:"price"`
	Discount    int     `csv:"discount"`
	FinalPrice  float64 `csv:"final_price"`
	ActiveOffer bool    `csv:"active_offer"`
	OfferEnd    string  `csv:"offer_end"`
	Stock       int     `csv:"stock"`
	Rating      float64 `csv:"rating"`
	ReviewCount int     `csv:"review_count"`
}

// ExportCSV writes every product as CSV, pricing evaluated at now.
func (s *ProductService) ExportCSV(w io.Writer, now time.Time) error {
	products, err := s.repo.GetAll()
	if err != nil {
		return err
	}
	rows := make([]*productRow, 0, len(products))
	for _, p := range products {
		pr := catalog.ResolvePrice(p, now)
		row := &productRow{
			ID:          p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Price:       pr.ListPrice,
			Discount:    pr.DiscountPercent,
			FinalPrice:  pr.FinalPrice,
			ActiveOffer: pr.IsActiveOffer,
			Stock:       p.Stock,
			Rating:      p.Rating,
			ReviewCount: p.ReviewCount,
		}
		if p.OfferEnd != nil {
			row.OfferEnd = p.OfferEnd.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write product csv: %w", err)
	}
	return nil
}

// Import reads a JSON array of products and stores every record whose ID is
// not taken yet. Fields that could not be decoded are logged and reset to
// their neutral value; records without a name are skipped. It returns the
// number of products created.
func (s *ProductService) Import(r io.Reader) (int, error) {
	var products []models.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return 0, fmt.Errorf("failed to decode products: %w", err)
	}

	created := 0
	for i := range products {
		p := &products[i]
		if len(p.Defaulted) > 0 {
			zap.L().Debug("product fields defaulted",
				zap.String("id", p.ID),
				zap.Strings("fields", p.Defaulted))
		}
		if strings.TrimSpace(p.Name) == "" {
			zap.L().Warn("product skipped, name is required", zap.Int("index", i), zap.String("id", p.ID))
			continue
		}
		if p.ID != "" {
			if _, err := s.repo.GetByID(p.ID); err == nil {
				continue
			} else if !errors.Is(err, repositories.ErrNotFound) {
				return created, err
			}
		}
		if err := s.repo.Create(p); err != nil {
			return created, fmt.Errorf("failed to import product %q: %w", p.Name, err)
		}
		created++
	}
	if created > 0 {
		refreshAfterWrite(s.refresher, "products imported")
	}
	return created, nil
}
