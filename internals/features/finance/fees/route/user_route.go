package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolfee_backend/internals/constants"
	feeController "schoolfee_backend/internals/features/finance/fees/controller"
	authMiddleware "schoolfee_backend/internals/middlewares/auth"
)

/*
User routes (student / admin). Mount: FeeUserRoutes(app.Group("/api/u", AuthJWT(...)), ctl)
- GET  /api/u/fees/:id
- GET  /api/u/fees/student/:student_id
*/
func FeeUserRoutes(r fiber.Router, ctl *feeController.FeePaymentController) {
	guard := authMiddleware.OnlyRoles(constants.RoleErrorStudentOrAdmin("pembayaran fee"), constants.StudentAndAdmin...)

	fees := r.Group("/fees", guard)
	fees.Get("/student/:student_id", ctl.ListStudentFees)
	fees.Get("/:id", ctl.GetFee)
}
