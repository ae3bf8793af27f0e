// file: internals/features/finance/fees/controller/fee_payment_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"schoolfee_backend/internals/features/finance/fees/dto"
	"schoolfee_backend/internals/features/finance/fees/repository"
	"schoolfee_backend/internals/features/finance/fees/service"
	helper "schoolfee_backend/internals/helpers"
)

/* =======================================================================
   Controller
======================================================================= */

type Deps struct {
	Issuer     *service.OrderIssuer
	Reconciler *service.Reconciler
	Store      repository.Store

	Razorpay service.Gateway
	Midtrans service.Gateway // nil = midtrans tidak aktif

	RazorpayKeyID     string // dikirim ke checkout widget
	WebhookSecret     string
	MidtransServerKey string

	Log *zap.Logger
}

type FeePaymentController struct {
	Deps
	Validate *validator.Validate
}

func NewFeePaymentController(d Deps) *FeePaymentController {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &FeePaymentController{Deps: d, Validate: validator.New()}
}

/* =======================================================================
   POST /api/razorpay/create-order
   POST /api/midtrans/create-order
======================================================================= */

func (h *FeePaymentController) CreateRazorpayOrder(c *fiber.Ctx) error {
	return h.createOrder(c, h.Razorpay, h.RazorpayKeyID)
}

func (h *FeePaymentController) CreateMidtransOrder(c *fiber.Ctx) error {
	if h.Midtrans == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Midtrans belum dikonfigurasi")
	}
	return h.createOrder(c, h.Midtrans, "")
}

func (h *FeePaymentController) createOrder(c *fiber.Ctx, gw service.Gateway, key string) error {
	caller, err := callerFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.CreateOrderRequest
	if err := dto.DecodeStrict(c.Body(), &req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid payload: "+err.Error())
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	handle, err := h.Issuer.CreateOrder(c.UserContext(), gw, service.CreateOrderInput{
		FeeID:  req.FeeUUID(),
		Amount: req.Amount,
		Caller: caller,
		Email:  strings.TrimSpace(req.Email),
		Phone:  strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.CreateOrderResponse{Order: handle, Key: key})
}

/* =======================================================================
   POST /api/razorpay/verify-payment
======================================================================= */

func (h *FeePaymentController) VerifyPayment(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.VerifyPaymentRequest
	if err := dto.DecodeStrict(c.Body(), &req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid payload: "+err.Error())
	}
	if err := h.Validate.Struct(req); err != nil {
		h.Log.Info("verify-payment validation failed", zap.Error(err))
		return helper.ValidationError(c, err)
	}

	res, err := h.Reconciler.ReconcileClient(c.UserContext(), service.ClientConfirmation{
		FeeID:         req.FeeUUID(),
		OrderID:       strings.TrimSpace(req.RazorpayOrderID),
		PaymentID:     strings.TrimSpace(req.RazorpayPaymentID),
		Signature:     strings.TrimSpace(req.RazorpaySignature),
		Amount:        req.Amount,
		Method:        req.Method,
		TransactionID: req.TransactionID,
		Caller:        caller,
	})
	if err != nil {
		return h.fail(c, err)
	}

	msg := "Payment verified and recorded"
	if res.AlreadyRecorded {
		msg = "Payment already recorded"
	}
	return c.Status(fiber.StatusOK).JSON(dto.VerifyPaymentResponse{
		Success:         true,
		Message:         msg,
		AlreadyRecorded: res.AlreadyRecorded,
		Fee:             dto.FromModel(res.Account),
	})
}

/* =======================================================================
   Helpers
======================================================================= */

func callerFrom(c *fiber.Ctx) (service.Caller, error) {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return service.Caller{}, err
	}
	return service.Caller{
		UserID:    uid,
		Role:      helper.GetRoleFromToken(c),
		StudentID: helper.GetStudentIDFromToken(c),
	}, nil
}

// statusFor memetakan error domain → HTTP status.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrFeeNotFound):
		return fiber.StatusNotFound, "Fee account not found"
	case errors.Is(err, service.ErrInvalidAmount):
		return fiber.StatusBadRequest, "Invalid amount"
	case errors.Is(err, service.ErrInvalidSignature):
		return fiber.StatusBadRequest, "Payment verification failed"
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, "Tidak boleh mengakses fee account ini"
	case errors.Is(err, service.ErrConcurrentUpdate):
		return fiber.StatusConflict, "Fee account sedang diproses, coba lagi"
	case errors.Is(err, service.ErrGateway):
		return fiber.StatusBadGateway, "Payment gateway error"
	default:
		return fiber.StatusInternalServerError, "Server error"
	}
}

func (h *FeePaymentController) fail(c *fiber.Ctx, err error) error {
	status, msg := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.Log.Error("fee request failed",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
	}
	return helper.JsonError(c, status, msg)
}
