package handlers

import (
	"bytes"
	"time"

	"pharmacy/internal/models"
	"pharmacy/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles the product administration endpoints.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/export", h.HandleExportProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts lists the stored products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetProductByID returns one stored product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product from the request body.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.service.CreateProduct(&product); err != nil {
		return respondError(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the product named in the path.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	product.ID = c.Params("id")
	if err := h.service.UpdateProduct(&product); err != nil {
		return respondError(c, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleExportProducts streams every product as CSV.
func (h *ProductHandler) HandleExportProducts(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.ExportCSV(&buf, time.Now()); err != nil {
		return respondError(c, err, "Could not export products")
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="products.csv"`)
	return c.Send(buf.Bytes())
}
