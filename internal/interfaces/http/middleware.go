package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Locals keys.
const (
	LocalRequestStart = "request_start"
)

// RequestLogger registra cada petición con método, ruta, estado y duración.
// Las rutas de API se registran en Debug salvo que respondan con error.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		c.Locals(LocalRequestStart, start)
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		ev := log.Debug()
		if status >= fiber.StatusBadRequest {
			ev = log.Warn().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("petición")
		return err
	}
}
