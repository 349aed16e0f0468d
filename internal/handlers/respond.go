package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/service"
)

// fail maps service errors onto the HTTP taxonomy. Unknown errors are logged
// and collapsed to a bare 500 so internals never leak.
func fail(c *fiber.Ctx, log *zap.SugaredLogger, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrEmailTaken):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	default:
		log.Errorw("internal error", "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
