package catalog

import (
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"pharmacy/internal/models"
)

// Facets summarises a product collection for the filter sidebar.
type Facets struct {
	Availability Availability    `json:"availability"`
	Categories   []CategoryCount `json:"categories"`
	PriceRange   PriceRange      `json:"priceRange"`
}

// Availability counts products with and without stock.
type Availability struct {
	InStock    int `json:"inStock"`
	OutOfStock int `json:"outOfStock"`
}

// CategoryCount is the number of products in one category.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PriceRange spans the base prices of a collection.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// BuildFacets computes facets over products. Products without a category are
// not counted in Categories; categories are sorted by name.
func BuildFacets(products []models.Product) Facets {
	var f Facets
	counts := make(map[string]int)
	prices := make(stats.Float64Data, 0, len(products))

	for _, p := range products {
		if p.Stock > 0 {
			f.Availability.InStock++
		} else {
			f.Availability.OutOfStock++
		}
		if c := strings.TrimSpace(p.Category); c != "" {
			counts[c]++
		}
		prices = append(prices, sanitizePrice(p.Price))
	}

	f.Categories = make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		f.Categories = append(f.Categories, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(f.Categories, func(i, j int) bool { return f.Categories[i].Name < f.Categories[j].Name })

	if len(prices) > 0 {
		// both only fail on empty input
		f.PriceRange.Min, _ = prices.Min()
		f.PriceRange.Max, _ = prices.Max()
	}
	return f
}
