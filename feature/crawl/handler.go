package crawl

import (
	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports daemon liveness.
func HealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// StatusHandler exposes the pool's counters.
func (p *Pool) StatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(p.Stats())
	}
}
