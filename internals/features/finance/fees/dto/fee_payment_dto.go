// file: internals/features/finance/fees/dto/fee_payment_dto.go
package dto

import (
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// strict: field asing di body = 400
var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// lenient: payload gateway boleh punya field tambahan
var lenientJSON = sonic.ConfigStd

var ErrEmptyBody = errors.New("request body is empty")

func DecodeStrict(body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return ErrEmptyBody
	}
	return strictJSON.Unmarshal(body, v)
}

func DecodeLenient(body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return ErrEmptyBody
	}
	return lenientJSON.Unmarshal(body, v)
}

/* =========================================================
   REQUEST: create order
========================================================= */

type CreateOrderRequest struct {
	FeeID  string           `json:"feeId" validate:"required,uuid"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Email  string           `json:"email,omitempty" validate:"omitempty,email"`
	Phone  string           `json:"phone,omitempty" validate:"omitempty,max=20"`
}

func (r CreateOrderRequest) FeeUUID() uuid.UUID {
	id, _ := uuid.Parse(strings.TrimSpace(r.FeeID))
	return id
}

type CreateOrderResponse struct {
	Order any    `json:"order"`
	Key   string `json:"key,omitempty"` // public key id untuk checkout widget
}

/* =========================================================
   REQUEST: verify payment (client checkout callback)
========================================================= */

type VerifyPaymentRequest struct {
	RazorpayOrderID   string          `json:"razorpay_order_id" validate:"required,max=64"`
	RazorpayPaymentID string          `json:"razorpay_payment_id" validate:"required,max=64"`
	RazorpaySignature string          `json:"razorpay_signature" validate:"required,hexadecimal"`
	FeeID             string          `json:"feeId" validate:"required,uuid"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method,omitempty" validate:"omitempty,max=32"`
	TransactionID     string          `json:"transactionId,omitempty" validate:"omitempty,max=128"`
}

func (r VerifyPaymentRequest) FeeUUID() uuid.UUID {
	id, _ := uuid.Parse(strings.TrimSpace(r.FeeID))
	return id
}

type VerifyPaymentResponse struct {
	Success         bool                `json:"success"`
	Message         string              `json:"message"`
	AlreadyRecorded bool                `json:"already_recorded,omitempty"`
	Fee             *FeeAccountResponse `json:"fee,omitempty"`
}

/* =========================================================
   WEBHOOK: razorpay envelope
========================================================= */

const (
	EventPaymentCaptured   = "payment.captured"
	EventPaymentAuthorized = "payment.authorized"
)

type RazorpayWebhook struct {
	Event     string                 `json:"event"`
	AccountID string                 `json:"account_id,omitempty"`
	CreatedAt int64                  `json:"created_at,omitempty"`
	Payload   RazorpayWebhookPayload `json:"payload"`
}

type RazorpayWebhookPayload struct {
	Payment *struct {
		Entity RazorpayPaymentEntity `json:"entity"`
	} `json:"payment,omitempty"`
}

type RazorpayPaymentEntity struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"` // minor units
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	Email     string `json:"email,omitempty"`
	Contact   string `json:"contact,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Recognized: hanya payment.captured & payment.authorized yang dibukukan.
func (w RazorpayWebhook) Recognized() bool {
	switch w.Event {
	case EventPaymentCaptured, EventPaymentAuthorized:
		return w.Payload.Payment != nil
	default:
		return false
	}
}

func (w RazorpayWebhook) Entity() RazorpayPaymentEntity {
	if w.Payload.Payment == nil {
		return RazorpayPaymentEntity{}
	}
	return w.Payload.Payment.Entity
}

type WebhookAck struct {
	OK     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
}

/* =========================================================
   NOTIFICATION: midtrans (HTTP notification)
========================================================= */

type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund, failure
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"` // string dari Midtrans, "150000.00"
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
	TransactionID     string `json:"transaction_id"`
	SettlementTime    string `json:"settlement_time"`
}

// Settled: settlement, atau capture dengan fraud accept.
func (n MidtransNotification) Settled() bool {
	switch strings.ToLower(n.TransactionStatus) {
	case "settlement":
		return true
	case "capture":
		fs := strings.ToLower(n.FraudStatus)
		return fs == "" || fs == "accept"
	default:
		return false
	}
}
