package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolfee_backend/internals/constants"
	realtimeController "schoolfee_backend/internals/features/realtime/controller"
	authMiddleware "schoolfee_backend/internals/middlewares/auth"
)

// RealtimeUserRoutes: GET /api/u/ws/fee-events (websocket, token via Authorization atau cookie)
func RealtimeUserRoutes(r fiber.Router, ctl *realtimeController.FeeEventStreamController) {
	guard := authMiddleware.OnlyRoles(constants.RoleErrorStudentOrAdmin("notifikasi fee"), constants.StudentAndAdmin...)
	ws := r.Group("/ws", guard)
	ws.Get("/fee-events", ctl.Upgrade, ctl.Stream())
}
