package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/service/trip"
)

// StatusFor maps a service error onto an HTTP status code
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case domain.IsValidation(err):
		return fiber.StatusBadRequest
	case domain.IsNotFound(err):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, trip.ErrStorageDisabled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
			return c.Status(code).JSON(fiber.Map{"error": "Internal server error"})
		}

		body := fiber.Map{"error": err.Error()}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			body["field"] = ve.Field
		}
		return c.Status(code).JSON(body)
	}
}
