package middleware

import (
	"strconv"
	"time"

	"go-pos-inventory/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request count and latency per route pattern.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.RecordHTTPRequest(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
