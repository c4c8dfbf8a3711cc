package catalog

import (
	"errors"
	"fmt"
)

const (
	// DefaultPageSize is the number of products per listing page.
	DefaultPageSize = 12
	// RowSize is how many cards the shop grid renders per row.
	RowSize = 5
)

// ErrOutOfRange is returned when a page outside 1..TotalPages is requested.
var ErrOutOfRange = errors.New("page out of range")

// PageMeta describes a page within a paginated sequence.
type PageMeta struct {
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	HasPrev     bool `json:"hasPrev"`
	HasNext     bool `json:"hasNext"`
}

// Page is a slice of items together with its position.
type Page[T any] struct {
	Items []T
	Meta  PageMeta
}

// Paginate returns the 1-indexed page of items. Pages are never clamped: a
// page below 1 or above the last page fails with ErrOutOfRange. An empty
// input has zero pages and yields an empty page for any request.
func Paginate[T any](items []T, page, pageSize int) (Page[T], error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	meta := PageMeta{
		TotalItems:  total,
		TotalPages:  (total + pageSize - 1) / pageSize,
		CurrentPage: page,
		PageSize:    pageSize,
	}
	if total == 0 {
		meta.CurrentPage = 0
		return Page[T]{Items: []T{}, Meta: meta}, nil
	}
	if page < 1 || page > meta.TotalPages {
		return Page[T]{Items: []T{}, Meta: meta}, fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page, meta.TotalPages)
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	out := make([]T, end-start)
	copy(out, items[start:end])

	meta.HasPrev = page > 1
	meta.HasNext = page < meta.TotalPages
	return Page[T]{Items: out, Meta: meta}, nil
}

// Rows groups items into rows of size, the last row possibly shorter.
func Rows[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = RowSize
	}
	rows := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		rows = append(rows, items[i:min(i+size, len(items))])
	}
	return rows
}

// PageLink is one entry of a pagination strip.
type PageLink struct {
	Label    string `json:"label"`
	Page     int    `json:"page,omitempty"`
	Active   bool   `json:"active,omitempty"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
}

// PageLinks builds the pagination strip for the current page: previous and
// next links, every page number when there are at most seven, otherwise the
// first, the last and the neighbours of current separated by ellipses.
// Nothing is shown for a single page.
func PageLinks(current, total int) []PageLink {
	if total <= 1 {
		return nil
	}
	var links []PageLink
	if current > 1 {
		links = append(links, PageLink{Label: "prev", Page: current - 1})
	}
	for i := 1; i <= total; i++ {
		switch {
		case total <= 7, i == 1, i == total, i >= current-1 && i <= current+1:
			links = append(links, PageLink{Label: fmt.Sprint(i), Page: i, Active: i == current})
		case i == 2, i == total-1:
			links = append(links, PageLink{Label: "...", Ellipsis: true})
		}
	}
	if current < total {
		links = append(links, PageLink{Label: "next", Page: current + 1})
	}
	return links
}
