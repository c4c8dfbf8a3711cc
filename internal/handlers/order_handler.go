package handlers

import (
	"fmt"

	"pharmacy/internal/models"
	"pharmacy/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order. Line prices are set by the service.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var orderRequest models.Order
	if err := c.BodyParser(&orderRequest); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	createdOrder, err := h.service.CreateOrder(orderRequest)
	if err != nil {
		return respondError(c, err, "Could not create order")
	}
	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return badRequest(c, "Invalid request body for status update", err)
	}
	if updateData.Status == "" {
		return badRequest(c, "Status is required for order status update.", nil)
	}

	if err := h.service.UpdateOrderStatus(orderID, updateData.Status); err != nil {
		return respondError(c, err, "Could not update order status")
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, updateData.Status),
	})
}
