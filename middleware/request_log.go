package middleware

import (
	"time"

	"github.com/fatihyuksel3109/mathlearn/logging"
	"github.com/fatihyuksel3109/mathlearn/metrics"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs each request and records it in the HTTP metrics.
// Routes are labelled by their registered pattern to keep cardinality low.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		metrics.RecordHTTPRequest(c.Method(), route, status, elapsed)

		ev := logging.Debug()
		if status >= 500 {
			ev = logging.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("[HTTP]")
		return err
	}
}
