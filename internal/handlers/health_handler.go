package handlers

import (
	"context"
	"time"

	"pharmacy/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports service health and the catalog snapshot in use.
type HealthHandler struct {
	catalog *services.CatalogService
	checks  map[string]HealthCheck
}

// NewHealthHandler creates a new HealthHandler. checks may be nil.
func NewHealthHandler(catalog *services.CatalogService, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{catalog: catalog, checks: checks}
}

// RegisterRoutes registers the health route on router.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth runs every check. Any failure turns the status to degraded
// and the response code to 503.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}

	code := fiber.StatusOK
	if status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"time":    time.Now().Format(time.RFC3339),
		"checks":  results,
		"catalog": h.catalog.Status(),
	})
}
