package handlers

import (
	"errors"

	"pharmacy/internal/catalog"
	"pharmacy/internal/repositories"
	"pharmacy/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP responses. message describes
// the operation that failed.
func respondError(c *fiber.Ctx, err error, message string) error {
	var verr *services.ValidationError
	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, repositories.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInsufficientStock), errors.Is(err, services.ErrInvalidStatus):
		status = fiber.StatusBadRequest
	case errors.Is(err, catalog.ErrTransientIO):
		status = fiber.StatusServiceUnavailable
	}
	if status >= fiber.StatusInternalServerError {
		zap.L().Error(message, zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
