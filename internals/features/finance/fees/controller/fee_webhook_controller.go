// file: internals/features/finance/fees/controller/fee_webhook_controller.go
package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"schoolfee_backend/internals/features/finance/fees/dto"
	"schoolfee_backend/internals/features/finance/fees/model"
	"schoolfee_backend/internals/features/finance/fees/money"
	"schoolfee_backend/internals/features/finance/fees/service"
	"schoolfee_backend/internals/metrics"
)

const razorpaySignatureHeader = "X-Razorpay-Signature"

/* =======================================================================
   POST /api/razorpay/webhook
   - HMAC-SHA256 atas raw body (bukan JSON hasil re-serialize)
   - Selalu balas {ok}; 400 signature salah, 500 gagal sementara (biar gateway retry),
     200 untuk sisanya (order tidak dikenal, event lain).
======================================================================= */

func (h *FeePaymentController) RazorpayWebhook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	signature := strings.TrimSpace(c.Get(razorpaySignatureHeader))

	var hook dto.RazorpayWebhook
	decodeErr := dto.DecodeLenient(body, &hook)
	entity := hook.Entity()

	if !service.VerifyPayload(body, signature, h.WebhookSecret) {
		metrics.SignatureFailures.WithLabelValues("webhook").Inc()
		h.Log.Warn("webhook signature rejected",
			zap.String("reason", "signature_mismatch"),
			zap.String("event", hook.Event),
			zap.String("order_id", entity.OrderID),
			zap.String("ip", c.IP()))
		h.logRejected(c, model.ProviderRazorpay, hook.Event, entity.OrderID, body)
		return c.Status(fiber.StatusBadRequest).JSON(dto.WebhookAck{OK: false})
	}

	ev := h.logEvent(c, model.ProviderRazorpay, hook.Event, entity.OrderID, entity.ID, signature, body)

	if decodeErr != nil {
		h.Log.Warn("webhook payload unreadable", zap.Error(decodeErr))
		h.markEvent(ev, model.GatewayEventIgnored, nil, "malformed payload")
		return c.JSON(dto.WebhookAck{OK: true, Status: "ignored"})
	}
	if !hook.Recognized() {
		h.markEvent(ev, model.GatewayEventIgnored, nil, "")
		return c.JSON(dto.WebhookAck{OK: true, Status: "ignored"})
	}

	var occurred time.Time
	if entity.CreatedAt > 0 {
		occurred = time.Unix(entity.CreatedAt, 0)
	}
	res, err := h.Reconciler.ReconcileGateway(c.UserContext(), service.GatewayPayment{
		OrderID:     entity.OrderID,
		PaymentID:   entity.ID,
		AmountMinor: entity.Amount,
		Exponent:    h.Razorpay.Exponent(),
		Method:      entity.Method,
		Provider:    model.ProviderRazorpay,
		Source:      model.EntrySourceWebhook,
		OccurredAt:  occurred,
	})
	return h.ackGateway(c, ev, entity.OrderID, res, err)
}

/* =======================================================================
   POST /api/midtrans/notification
   SHA512(order_id + status_code + gross_amount + ServerKey)
======================================================================= */

func (h *FeePaymentController) MidtransNotification(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)

	var n dto.MidtransNotification
	if err := dto.DecodeLenient(body, &n); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.WebhookAck{OK: false})
	}

	if !service.VerifyMidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, h.MidtransServerKey, n.SignatureKey) {
		metrics.SignatureFailures.WithLabelValues("midtrans-notification").Inc()
		h.Log.Warn("midtrans signature rejected",
			zap.String("reason", "signature_mismatch"),
			zap.String("order_id", n.OrderID))
		h.logRejected(c, model.ProviderMidtrans, n.TransactionStatus, n.OrderID, body)
		return c.Status(fiber.StatusUnauthorized).JSON(dto.WebhookAck{OK: false})
	}

	ev := h.logEvent(c, model.ProviderMidtrans, n.TransactionStatus, n.OrderID, n.TransactionID, n.SignatureKey, body)

	if !n.Settled() {
		h.markEvent(ev, model.GatewayEventIgnored, nil, "")
		return c.JSON(dto.WebhookAck{OK: true, Status: "ignored"})
	}

	gross, err := money.ParseMajor(n.GrossAmount)
	if err != nil {
		h.markEvent(ev, model.GatewayEventIgnored, nil, "invalid gross_amount")
		return c.JSON(dto.WebhookAck{OK: true, Status: "ignored"})
	}
	exp := int32(0)
	if h.Midtrans != nil {
		exp = h.Midtrans.Exponent()
	}
	minor, err := money.ToMinor(gross, exp)
	if err != nil {
		h.markEvent(ev, model.GatewayEventIgnored, nil, "gross_amount out of range")
		return c.JSON(dto.WebhookAck{OK: true, Status: "ignored"})
	}

	var occurred time.Time
	if t, perr := time.Parse("2006-01-02 15:04:05", n.SettlementTime); perr == nil {
		occurred = t
	}
	res, err := h.Reconciler.ReconcileGateway(c.UserContext(), service.GatewayPayment{
		OrderID:       n.OrderID,
		PaymentID:     n.TransactionID,
		TransactionID: n.TransactionID,
		AmountMinor:   minor,
		Exponent:      exp,
		Method:        n.PaymentType,
		Provider:      model.ProviderMidtrans,
		Source:        model.EntrySourceNotification,
		OccurredAt:    occurred,
	})
	return h.ackGateway(c, ev, n.OrderID, res, err)
}

/* =======================================================================
   Helpers: webhook
======================================================================= */

func (h *FeePaymentController) ackGateway(c *fiber.Ctx, ev *model.GatewayEvent, orderID string, res *service.ReconcileResult, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, service.ErrFeeNotFound):
		// order tidak dikenal: balas 200 agar gateway tidak retry terus
		h.Log.Info("gateway payment for unknown order", zap.String("order_id", orderID))
		h.markEvent(ev, model.GatewayEventIgnored, nil, "fee account not found for order")
		return c.JSON(dto.WebhookAck{OK: true, Status: "ignored"})
	case errors.Is(err, service.ErrInvalidAmount):
		h.markEvent(ev, model.GatewayEventIgnored, nil, err.Error())
		return c.JSON(dto.WebhookAck{OK: true, Status: "ignored"})
	default:
		h.Log.Error("gateway payment reconciliation failed", zap.String("order_id", orderID), zap.Error(err))
		h.markEvent(ev, model.GatewayEventFailed, nil, err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.WebhookAck{OK: false})
	}

	var feeID *uuid.UUID
	if res.Account != nil {
		id := res.Account.FeeAccountID
		feeID = &id
	}
	h.markEvent(ev, model.GatewayEventProcessed, feeID, "")
	status := "recorded"
	if res.AlreadyRecorded {
		status = "duplicate"
	}
	return c.JSON(dto.WebhookAck{OK: true, Status: status})
}

// rejectedPayloadLimit: delivery tanpa signature valid hanya disimpan potongannya.
const rejectedPayloadLimit = 512

// logRejected mencatat delivery yang gagal verifikasi tanpa headers dan
// tanpa body lengkap, supaya pengirim anonim tidak bisa mengisi tabel log.
func (h *FeePaymentController) logRejected(c *fiber.Ctx, provider, eventType, orderID string, body []byte) {
	snippet := body
	if len(snippet) > rejectedPayloadLimit {
		snippet = snippet[:rejectedPayloadLimit]
	}
	payload, _ := sonic.Marshal(string(snippet))

	ev := &model.GatewayEvent{
		GatewayEventProvider: provider,
		GatewayEventType:     strPtr(truncate(eventType, 64)),
		GatewayEventOrderID:  strPtr(truncate(orderID, 64)),
		GatewayEventPayload:  datatypes.JSON(payload),
		GatewayEventStatus:   model.GatewayEventRejected,
		GatewayEventError:    strPtr("signature mismatch"),
	}
	if err := h.Store.LogGatewayEvent(c.UserContext(), ev); err != nil {
		h.Log.Warn("gateway event log failed", zap.String("provider", provider), zap.Error(err))
	}
}

// logEvent menyimpan delivery yang sudah terverifikasi; gagal simpan tidak menggagalkan webhook.
func (h *FeePaymentController) logEvent(c *fiber.Ctx, provider, eventType, orderID, paymentID, signature string, body []byte) *model.GatewayEvent {
	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() {
		headers[k] = strings.Join(v, ",")
	}
	headersJSON, _ := sonic.Marshal(headers)

	payload := body
	if !sonic.Valid(body) {
		payload, _ = sonic.Marshal(string(body))
	}

	ev := &model.GatewayEvent{
		GatewayEventProvider:  provider,
		GatewayEventType:      strPtr(eventType),
		GatewayEventOrderID:   strPtr(orderID),
		GatewayEventPaymentID: strPtr(paymentID),
		GatewayEventHeaders:   datatypes.JSON(headersJSON),
		GatewayEventPayload:   datatypes.JSON(payload),
		GatewayEventSignature: strPtr(signature),
		GatewayEventStatus:    model.GatewayEventReceived,
	}
	if err := h.Store.LogGatewayEvent(c.UserContext(), ev); err != nil {
		h.Log.Warn("gateway event log failed", zap.String("provider", provider), zap.Error(err))
		return nil
	}
	return ev
}

func (h *FeePaymentController) markEvent(ev *model.GatewayEvent, status model.GatewayEventStatus, feeID *uuid.UUID, errMsg string) {
	if ev == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.Store.MarkGatewayEvent(ctx, ev.GatewayEventID, status, feeID, errMsg); err != nil {
		h.Log.Warn("gateway event update failed", zap.String("event_id", ev.GatewayEventID.String()), zap.Error(err))
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
