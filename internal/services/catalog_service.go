package services

import (
	"context"
	"fmt"
	"time"

	"pharmacy/internal/catalog"
	"pharmacy/internal/models"
	"pharmacy/internal/repositories"

	"go.uber.org/zap"
)

// CatalogService serves storefront reads from the current catalog snapshot.
// Every read evaluates prices and offers at the service clock.
type CatalogService struct {
	store    *catalog.Store
	pageSize int
	now      func() time.Time
	events   EventPublisher
}

// NewCatalogService creates a CatalogService. A pageSize of zero or less
// means catalog.DefaultPageSize; events may be nil.
func NewCatalogService(store *catalog.Store, pageSize int, events EventPublisher) *CatalogService {
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}
	return &CatalogService{store: store, pageSize: pageSize, now: time.Now, events: events}
}

// SetClock replaces the clock used to evaluate offers.
func (s *CatalogService) SetClock(now func() time.Time) {
	s.now = now
}

// CatalogPage is one page of the shop listing.
type CatalogPage struct {
	Items []catalog.ProductView `json:"items"`
	// Rows lays the page out as the shop grid, by product ID.
	Rows  [][]string         `json:"rows"`
	Meta  catalog.PageMeta   `json:"meta"`
	Links []catalog.PageLink `json:"links"`
}

// Query runs a shop query. On catalog.ErrOutOfRange the returned page still
// carries the meta of the filtered result.
func (s *CatalogService) Query(state catalog.QueryState) (CatalogPage, error) {
	now := s.now()
	res, err := catalog.QueryCatalog(s.store.Snapshot().Products, state, now, s.pageSize)
	if err != nil {
		return CatalogPage{Items: []catalog.ProductView{}, Rows: [][]string{}, Meta: res.Meta}, err
	}

	views := catalog.Views(res.Items, now)
	rows := make([][]string, 0)
	for _, row := range catalog.Rows(views, catalog.RowSize) {
		ids := make([]string, len(row))
		for i, v := range row {
			ids[i] = v.ID
		}
		rows = append(rows, ids)
	}
	links := catalog.PageLinks(res.Meta.CurrentPage, res.Meta.TotalPages)
	if links == nil {
		links = []catalog.PageLink{}
	}
	return CatalogPage{Items: views, Rows: rows, Meta: res.Meta, Links: links}, nil
}

// Offers returns every product that is an active offer now.
func (s *CatalogService) Offers() []catalog.ProductView {
	now := s.now()
	return catalog.Views(catalog.ListActiveOffers(s.store.Snapshot().Products, now), now)
}

// Product returns the view of one product.
func (s *CatalogService) Product(id string) (catalog.ProductView, error) {
	p, err := s.find(id)
	if err != nil {
		return catalog.ProductView{}, err
	}
	now := s.now()
	return catalog.NewView(p, catalog.ResolvePrice(p, now)), nil
}

// Price returns the pricing state of one product.
func (s *CatalogService) Price(id string) (catalog.PricingResult, error) {
	p, err := s.find(id)
	if err != nil {
		return catalog.PricingResult{}, err
	}
	return catalog.ResolvePrice(p, s.now()), nil
}

// Recent resolves a recently viewed list, most recent first, keeping at most
// limit products. A limit of zero or less means catalog.MaxRecent.
func (s *CatalogService) Recent(ids []string, limit int) []catalog.ProductView {
	products := catalog.ResolveRecent(ids, s.store.Snapshot().Products)
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	return catalog.Views(products, s.now())
}

// Facets summarises the whole catalog for filter controls.
func (s *CatalogService) Facets() catalog.Facets {
	return catalog.BuildFacets(s.store.Snapshot().Products)
}

// Categories returns the categories of the current snapshot.
func (s *CatalogService) Categories() []models.Category {
	return s.store.Snapshot().Categories
}

// Status describes the current snapshot.
type Status struct {
	Seq        uint64    `json:"seq"`
	Products   int       `json:"products"`
	Categories int       `json:"categories"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// Status reports which snapshot is being served.
func (s *CatalogService) Status() Status {
	snap := s.store.Snapshot()
	return Status{
		Seq:        snap.Seq,
		Products:   len(snap.Products),
		Categories: len(snap.Categories),
		FetchedAt:  snap.FetchedAt,
	}
}

// Refresh reloads the snapshot from the source. A fetch overtaken by a later
// one is discarded and the newer snapshot is returned.
func (s *CatalogService) Refresh(ctx context.Context) (*catalog.Snapshot, bool, error) {
	snap, applied, err := s.store.Refresh(ctx)
	if err != nil {
		return snap, false, fmt.Errorf("catalog refresh: %w", err)
	}
	if !applied {
		zap.L().Debug("stale catalog refresh discarded", zap.Uint64("current_seq", snap.Seq))
		return snap, false, nil
	}
	zap.L().Info("catalog refreshed",
		zap.Uint64("seq", snap.Seq),
		zap.Int("products", len(snap.Products)),
		zap.Int("categories", len(snap.Categories)))
	publish(s.events, EventCatalogRefreshed, CatalogEvent{
		Seq:        snap.Seq,
		Products:   len(snap.Products),
		Categories: len(snap.Categories),
		FetchedAt:  snap.FetchedAt,
	})
	return snap, true, nil
}

func (s *CatalogService) find(id string) (models.Product, error) {
	for _, p := range s.store.Snapshot().Products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, fmt.Errorf("product with ID %s: %w", id, repositories.ErrNotFound)
}
