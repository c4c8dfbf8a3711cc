package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request with its outcome and latency.
// Server errors are logged at error level, client errors at warn.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			// let the app's error handler set the status before logging it
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// fiber reuses the request buffers once the handler returns, and a
		// core may keep the entry longer than that
		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", utils.CopyString(c.Method())),
			zap.String("path", utils.CopyString(c.Path())),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", utils.CopyString(c.GetRespHeader(fiber.HeaderXRequestID))),
		}
		if chainErr != nil {
			fields = append(fields, zap.Error(chainErr))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			zap.L().Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			zap.L().Warn("request", fields...)
		default:
			zap.L().Info("request", fields...)
		}
		return nil
	}
}
