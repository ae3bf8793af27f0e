package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolfee_backend/internals/constants"
	feeController "schoolfee_backend/internals/features/finance/fees/controller"
	authMiddleware "schoolfee_backend/internals/middlewares/auth"
)

// GatewayMiddlewares: handler opsional, nil = tidak dipasang.
type GatewayMiddlewares struct {
	Auth        fiber.Handler // AuthJWT
	Webhook     fiber.Handler // limiter callback gateway
	CreateOrder fiber.Handler // limiter create-order per user
}

/*
Gateway routes. Mount: FeeGatewayRoutes(app.Group("/api"), ctl, mw)
- POST /api/razorpay/create-order      (JWT, student/admin)
- POST /api/razorpay/verify-payment    (JWT, student/admin)
- POST /api/razorpay/webhook           (publik, signature gateway)
- POST /api/midtrans/create-order      (JWT, student/admin)
- POST /api/midtrans/notification      (publik, signature gateway)
*/
func FeeGatewayRoutes(r fiber.Router, ctl *feeController.FeePaymentController, mw GatewayMiddlewares) {
	guard := authMiddleware.OnlyRoles(constants.RoleErrorStudentOrAdmin("pembayaran fee"), constants.StudentAndAdmin...)

	authed := func(hs ...fiber.Handler) []fiber.Handler {
		return chain(append([]fiber.Handler{mw.Auth, guard}, hs...)...)
	}
	public := func(h fiber.Handler) []fiber.Handler {
		return chain(mw.Webhook, h)
	}

	rzp := r.Group("/razorpay")
	rzp.Post("/create-order", authed(mw.CreateOrder, ctl.CreateRazorpayOrder)...)
	rzp.Post("/verify-payment", authed(ctl.VerifyPayment)...)
	rzp.Post("/webhook", public(ctl.RazorpayWebhook)...)

	if ctl.Midtrans != nil {
		mid := r.Group("/midtrans")
		mid.Post("/create-order", authed(mw.CreateOrder, ctl.CreateMidtransOrder)...)
		mid.Post("/notification", public(ctl.MidtransNotification)...)
	}
}

func chain(hs ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
