package handlers

import (
	"github.com/cbadabili/Real-Estate-App-sub000/internal/cache"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/models"
	"github.com/gofiber/fiber/v2"
)

// CacheStats exposes a diagnostic snapshot of the property query cache.
// Mounted behind the internal-only middleware.
func CacheStats(store *cache.Store[[]models.Property]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(store.Stats())
	}
}
