package handlers

import (
	"errors"

	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler translates errors returned by handlers into responses. The
// body is always a one-element JSON list holding the error message.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			logger.Debug("validation failed",
				zap.String("path", c.Path()),
				zap.String("message", ve.Message))
			return c.Status(fiber.StatusBadRequest).JSON([]string{ve.Message})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON([]string{fe.Message})
		}

		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON([]string{err.Error()})
	}
}
