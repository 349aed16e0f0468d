package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs method, path, status and latency for every request.
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		log.Infow("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		)
		return err
	}
}
