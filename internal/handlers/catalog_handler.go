package handlers

import (
	"errors"
	"strings"

	"pharmacy/internal/catalog"
	"pharmacy/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the storefront listing endpoints.
type CatalogHandler struct {
	service *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	catalogRoutes := router.Group("/catalog")
	catalogRoutes.Get("/", h.HandleQuery)
	catalogRoutes.Get("/offers", h.HandleOffers)
	catalogRoutes.Get("/facets", h.HandleFacets)
	catalogRoutes.Get("/recent", h.HandleRecent)
	catalogRoutes.Get("/products/:id", h.HandleProduct)
	catalogRoutes.Get("/products/:id/price", h.HandlePrice)
	catalogRoutes.Post("/refresh", h.HandleRefresh)
}

// HandleQuery runs a shop query built from q, category, sort, page,
// inStock and offers.
func (h *CatalogHandler) HandleQuery(c *fiber.Ctx) error {
	state := catalog.QueryState{
		SearchTerm:  c.Query("q"),
		Category:    c.Query("category"),
		Sort:        catalog.ParseSortOrder(c.Query("sort")),
		Page:        c.QueryInt("page", 1),
		InStockOnly: c.QueryBool("inStock", false),
		OffersOnly:  c.QueryBool("offers", false),
	}

	page, err := h.service.Query(state)
	if errors.Is(err, catalog.ErrOutOfRange) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Page out of range",
			"error":   err.Error(),
			"meta":    page.Meta,
		})
	}
	if err != nil {
		return respondError(c, err, "Could not query catalog")
	}
	return c.JSON(page)
}

// HandleOffers lists the active offers.
func (h *CatalogHandler) HandleOffers(c *fiber.Ctx) error {
	return c.JSON(h.service.Offers())
}

// HandleFacets returns the filter facets of the whole catalog.
func (h *CatalogHandler) HandleFacets(c *fiber.Ctx) error {
	return c.JSON(h.service.Facets())
}

// HandleRecent resolves the comma separated ids parameter, most recent first.
// The optional limit parameter caps the result; the product page shows 4.
func (h *CatalogHandler) HandleRecent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return badRequest(c, "limit must not be negative", nil)
	}
	var ids []string
	for _, id := range strings.Split(c.Query("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return c.JSON(h.service.Recent(ids, limit))
}

// HandleProduct returns the card of one product.
func (h *CatalogHandler) HandleProduct(c *fiber.Ctx) error {
	view, err := h.service.Product(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(view)
}

// HandlePrice returns the pricing state of one product.
func (h *CatalogHandler) HandlePrice(c *fiber.Ctx) error {
	price, err := h.service.Price(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not price product")
	}
	return c.JSON(price)
}

// HandleRefresh reloads the catalog snapshot.
func (h *CatalogHandler) HandleRefresh(c *fiber.Ctx) error {
	_, applied, err := h.service.Refresh(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not refresh catalog")
	}
	return c.JSON(fiber.Map{
		"message": "Catalog refreshed",
		"applied": applied,
		"status":  h.service.Status(),
	})
}
