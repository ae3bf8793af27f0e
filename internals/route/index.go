// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	feeController "schoolfee_backend/internals/features/finance/fees/controller"
	feeRoute "schoolfee_backend/internals/features/finance/fees/route"
	realtimeController "schoolfee_backend/internals/features/realtime/controller"
	realtimeRoute "schoolfee_backend/internals/features/realtime/route"
	middlewares "schoolfee_backend/internals/middlewares"
	authMiddleware "schoolfee_backend/internals/middlewares/auth"
)

var startTime time.Time

type Deps struct {
	Auth   authMiddleware.Options
	Fees   *feeController.FeePaymentController
	Stream *realtimeController.FeeEventStreamController // nil = websocket tidak dipasang
	Health HealthChecks
	Log    *zap.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	BaseRoutes(app, d.Health)

	auth := authMiddleware.AuthJWT(d.Auth)

	// ===================== GATEWAY (checkout + callback) =====================
	log.Info("Setting up GATEWAY group...")
	feeRoute.FeeGatewayRoutes(app.Group("/api"), d.Fees, feeRoute.GatewayMiddlewares{
		Auth:        auth,
		Webhook:     middlewares.WebhookRateLimiter(),
		CreateOrder: middlewares.CreateOrderRateLimiter(),
	})

	// ===================== PRIVATE (USER) =====================
	log.Info("Setting up PRIVATE group...")
	private := app.Group("/api/u", auth)
	feeRoute.FeeUserRoutes(private, d.Fees)
	if d.Stream != nil {
		realtimeRoute.RealtimeUserRoutes(private, d.Stream)
	}

	// ===================== ADMIN =====================
	log.Info("Setting up ADMIN group...")
	admin := app.Group("/api/a", auth)
	feeRoute.FeeAdminRoutes(admin, d.Fees)
}
