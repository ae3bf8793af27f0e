package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolfee_backend/internals/constants"
	feeController "schoolfee_backend/internals/features/finance/fees/controller"
	authMiddleware "schoolfee_backend/internals/middlewares/auth"
)

// FeeAdminRoutes: daftar fee + log webhook untuk admin. Mount di /api/a (sudah AuthJWT).
func FeeAdminRoutes(r fiber.Router, ctl *feeController.FeePaymentController) {
	fees := r.Group("/fees",
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("daftar fee"), constants.AdminOnly...),
	)
	fees.Get("/", ctl.ListFees)

	events := r.Group("/fee-gateway-events",
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("log gateway"), constants.AdminOnly...),
	)
	events.Get("/", ctl.ListGatewayEvents)
}
