package routes

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"schoolfee_backend/internals/metrics"
)

// HealthChecks: nama dependency → ping. Nil map = hanya status server.
type HealthChecks map[string]func(ctx context.Context) error

func BaseRoutes(app *fiber.App, checks HealthChecks) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("School fee payment service 🚀")
	})

	app.Get("/metrics", metrics.Handler())

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		serverStatus := "OK"
		httpStatus := fiber.StatusOK
		deps := fiber.Map{}
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				deps[name] = "DOWN: " + err.Error()
				serverStatus = "DEGRADED"
				httpStatus = fiber.StatusServiceUnavailable
				continue
			}
			deps[name] = "Connected"
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"dependencies":   deps,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    os.Getenv("RAILWAY_ENVIRONMENT"),
		})
	})
}
