package catalog

import (
	"sort"
	"strings"
	"time"

	"pharmacy/internal/models"
)

// SortOrder selects how a listing is ordered.
type SortOrder string

const (
	SortNone      SortOrder = "none"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

// ParseSortOrder maps a query value to a SortOrder. The storefront's select
// box sends "low-to-high" and "high-to-low"; anything unknown is SortNone.
func ParseSortOrder(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(SortPriceAsc), "low-to-high", "asc":
		return SortPriceAsc
	case string(SortPriceDesc), "high-to-low", "desc":
		return SortPriceDesc
	}
	return SortNone
}

// QueryState holds the user's selections for one listing view.
type QueryState struct {
	SearchTerm  string    `json:"searchTerm"`
	Category    string    `json:"category"`
	Sort        SortOrder `json:"sort"`
	Page        int       `json:"page"`
	InStockOnly bool      `json:"inStockOnly"`
	OffersOnly  bool      `json:"offersOnly"`
}

// Apply filters and sorts products according to state. Filters run in a fixed
// order (search, category, stock, offers) followed by the sort. The input is
// never modified; the result is a new slice.
//
// Price sorting uses the base price, not the discounted one.
func Apply(products []models.Product, state QueryState, now time.Time) []models.Product {
	term := strings.ToLower(strings.TrimSpace(state.SearchTerm))
	category := strings.TrimSpace(state.Category)

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if term != "" && !matchesSearch(p, term) {
			continue
		}
		if category != "" && strings.TrimSpace(p.Category) != category {
			continue
		}
		if state.InStockOnly && p.Stock <= 0 {
			continue
		}
		if state.OffersOnly && !IsActiveOffer(p, now) {
			continue
		}
		out = append(out, p)
	}

	switch state.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return sanitizePrice(out[i].Price) < sanitizePrice(out[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return sanitizePrice(out[i].Price) > sanitizePrice(out[j].Price)
		})
	}
	return out
}

func matchesSearch(p models.Product, term string) bool {
	for _, field := range [...]string{p.Name, p.Tagline, p.Description} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Result is one page of a catalog query.
type Result struct {
	Items []models.Product `json:"items"`
	Meta  PageMeta         `json:"meta"`
}

// QueryCatalog runs the pipeline over products and returns the page selected
// by state.Page. A pageSize of zero or less means DefaultPageSize.
func QueryCatalog(products []models.Product, state QueryState, now time.Time, pageSize int) (Result, error) {
	page, err := Paginate(Apply(products, state, now), state.Page, pageSize)
	if err != nil {
		return Result{Meta: page.Meta}, err
	}
	return Result{Items: page.Items, Meta: page.Meta}, nil
}

// ListActiveOffers keeps the products that are active offers at now, in
// their original order.
func ListActiveOffers(products []models.Product, now time.Time) []models.Product {
	out := make([]models.Product, 0)
	for _, p := range products {
		if IsActiveOffer(p, now) {
			out = append(out, p)
		}
	}
	return out
}
