package handler

import (
	"errors"

	"go-pos-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// writeError renders a service failure. Business outcomes get a specific
// status and code; anything unclassified is logged and hidden behind a 500.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var (
		stockErr *service.InsufficientStockError
		valErr   *service.ValidationError
	)

	switch {
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      err.Error(),
			"code":       "insufficient_stock",
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		})
	case errors.As(err, &valErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "invalid_input",
			"field": valErr.Field,
		})
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": "invalid_input"})
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "invalid_transition"})
	case errors.Is(err, service.ErrProductInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "product_in_use"})
	case errors.Is(err, service.ErrUsernameExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "username_exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error(), "code": "invalid_credentials"})
	case errors.Is(err, service.ErrUserInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error(), "code": "user_inactive"})
	case errors.Is(err, service.ErrTransientStore):
		log.Warn("transient store failure", zap.String("path", c.Path()), zap.Error(err))
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Service temporarily unavailable, retry the request",
			"code":  "transient",
		})
	default:
		log.Error("unexpected failure", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": "invalid_input"})
}

// Helper untuk parse UUID dari path parameter
func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
