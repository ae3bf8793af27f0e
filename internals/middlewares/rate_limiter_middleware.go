package middlewares

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "schoolfee_backend/internals/helpers"
)

// path yang punya limiter sendiri (dipanggil server gateway, bukan browser)
var gatewayCallbackPaths = []string{
	"/api/razorpay/webhook",
	"/api/midtrans/notification",
}

func isGatewayCallback(path string) bool {
	for _, p := range gatewayCallbackPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Global limiter: untuk semua endpoint biasa
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return isGatewayCallback(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "❌ Terlalu banyak permintaan. Silakan coba lagi nanti.",
			})
		},
	})
}

// Limiter webhook: longgar, gateway bisa retry beruntun saat backlog
func WebhookRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               600,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"ok": false})
		},
	})
}

// Limiter create-order: setiap order memanggil API gateway
func CreateOrderRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if uid, ok := c.Locals(helper.LocalUserID).(string); ok && uid != "" {
				return "u:" + uid
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "❌ Terlalu banyak pembuatan order. Coba beberapa saat lagi.",
			})
		},
	})
}
