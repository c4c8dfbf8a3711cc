package services

import (
	"context"
	"errors"

	"pharmacy/internal/catalog"
	"pharmacy/internal/models"
	"pharmacy/internal/repositories"

	"go.uber.org/zap"
)

// RepositorySource feeds the catalog store from the repositories. Every
// failure is reported as a catalog.TransientIOError.
type RepositorySource struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
}

// NewRepositorySource creates a RepositorySource.
func NewRepositorySource(products repositories.ProductRepository, categories repositories.CategoryRepository) *RepositorySource {
	return &RepositorySource{products: products, categories: categories}
}

// FetchAllProducts returns every product.
func (s *RepositorySource) FetchAllProducts(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, &catalog.TransientIOError{Op: "fetch products", Err: err}
	}
	products, err := s.products.GetAll()
	if err != nil {
		return nil, &catalog.TransientIOError{Op: "fetch products", Err: err}
	}
	return products, nil
}

// FetchAllCategories returns every category.
func (s *RepositorySource) FetchAllCategories(ctx context.Context) ([]models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, &catalog.TransientIOError{Op: "fetch categories", Err: err}
	}
	categories, err := s.categories.GetAll()
	if err != nil {
		return nil, &catalog.TransientIOError{Op: "fetch categories", Err: err}
	}
	return categories, nil
}

// SnapshotCache stores JSON-encodable values by key.
type SnapshotCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

const (
	productsCacheKey   = "catalog:products"
	categoriesCacheKey = "catalog:categories"
)

// FallbackSource keeps a copy of every successful fetch in a cache and
// serves that copy when the wrapped source fails.
type FallbackSource struct {
	source catalog.Source
	cache  SnapshotCache
}

// NewFallbackSource wraps source with cache.
func NewFallbackSource(source catalog.Source, cache SnapshotCache) *FallbackSource {
	return &FallbackSource{source: source, cache: cache}
}

// FetchAllProducts fetches from the source, falling back to the cached copy.
func (s *FallbackSource) FetchAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.source.FetchAllProducts(ctx)
	if err == nil {
		s.store(ctx, productsCacheKey, products)
		return products, nil
	}
	var cached []models.Product
	if s.load(ctx, productsCacheKey, &cached, err) {
		return cached, nil
	}
	return nil, err
}

// FetchAllCategories fetches from the source, falling back to the cached copy.
func (s *FallbackSource) FetchAllCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.source.FetchAllCategories(ctx)
	if err == nil {
		s.store(ctx, categoriesCacheKey, categories)
		return categories, nil
	}
	var cached []models.Category
	if s.load(ctx, categoriesCacheKey, &cached, err) {
		return cached, nil
	}
	return nil, err
}

func (s *FallbackSource) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		zap.L().Warn("caching catalog copy failed", zap.String("key", key), zap.Error(err))
	}
}

// load reads the cached copy after the source failed with cause.
func (s *FallbackSource) load(ctx context.Context, key string, dest any, cause error) bool {
	if !errors.Is(cause, catalog.ErrTransientIO) {
		return false
	}
	found, err := s.cache.Get(context.WithoutCancel(ctx), key, dest)
	if err != nil {
		zap.L().Warn("reading catalog copy failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	zap.L().Warn("serving cached catalog copy", zap.String("key", key), zap.Error(cause))
	return true
}

var _ catalog.Source = (*FallbackSource)(nil)
var _ catalog.Source = (*RepositorySource)(nil)
