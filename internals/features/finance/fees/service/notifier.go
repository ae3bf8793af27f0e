// file: internals/features/finance/fees/service/notifier.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"schoolfee_backend/internals/metrics"
)

// EventFeePaid is the realtime event name pushed to subscribers.
const EventFeePaid = "fee-paid"

type FeePaidEvent struct {
	FeeID           uuid.UUID       `json:"feeId"`
	StudentID       uuid.UUID       `json:"studentId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	OrderID         string          `json:"orderId,omitempty"`
	PaymentID       string          `json:"paymentId,omitempty"`
	Provider        string          `json:"provider,omitempty"`
	StudentName     string          `json:"studentName,omitempty"`
	AdmissionNumber string          `json:"admissionNumber,omitempty"`
	PaidAt          time.Time       `json:"paidAt"`
}

// MarshalJSON: amount dikirim sebagai angka JSON (bukan string) untuk listener fee-paid.
func (e FeePaidEvent) MarshalJSON() ([]byte, error) {
	type plain FeePaidEvent
	return sonic.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain(e), json.Number(e.Amount.String())})
}

// AudienceStudentID scopes realtime delivery: admins see every event, a student only their own.
func (e FeePaidEvent) AudienceStudentID() uuid.UUID { return e.StudentID }

// EventSink receives reconciliation events; the Reconciler never waits on it.
type EventSink interface {
	Dispatch(ev FeePaidEvent)
}

type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

type Broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any) error
}

/* =========================================================
   Notifier
========================================================= */

type Notifier struct {
	Mailer      Mailer      // nil = email dimatikan
	Broadcaster Broadcaster // nil = realtime dimatikan
	Log         *zap.Logger
	Timeout     time.Duration

	wg sync.WaitGroup
}

func NewNotifier(m Mailer, b Broadcaster, log *zap.Logger, timeout time.Duration) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{Mailer: m, Broadcaster: b, Log: log, Timeout: timeout}
}

// Dispatch fires Notify in the background with its own deadline.
func (n *Notifier) Dispatch(ev FeePaidEvent) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.Timeout)
		defer cancel()
		n.Notify(ctx, ev)
	}()
}

// Wait blocks until every dispatched notification finished (shutdown).
func (n *Notifier) Wait() { n.wg.Wait() }

// Notify runs both channels. Failures are logged and counted, never returned.
func (n *Notifier) Notify(ctx context.Context, ev FeePaidEvent) {
	if n.Mailer != nil {
		subject, body := FeePaidEmail(ev)
		if err := n.Mailer.Send(ctx, subject, body); err != nil {
			metrics.NotificationFailures.WithLabelValues("email").Inc()
			n.Log.Warn("fee-paid email failed",
				zap.String("fee_id", ev.FeeID.String()),
				zap.String("payment_id", ev.PaymentID),
				zap.Error(err))
		}
	}
	if n.Broadcaster != nil {
		if err := n.Broadcaster.Broadcast(ctx, EventFeePaid, ev); err != nil {
			metrics.NotificationFailures.WithLabelValues("realtime").Inc()
			n.Log.Warn("fee-paid broadcast failed",
				zap.String("fee_id", ev.FeeID.String()),
				zap.Error(err))
		}
	}
}

// FeePaidEmail renders the operator email.
func FeePaidEmail(ev FeePaidEvent) (subject, body string) {
	who := ev.StudentName
	if who == "" {
		who = ev.AdmissionNumber
	}
	if who == "" {
		who = ev.StudentID.String()
	}
	subject = "Fee paid by " + who
	body = fmt.Sprintf("Payment of %s%s received. Payment ID: %s",
		currencySymbol(ev.Currency), ev.Amount.StringFixed(2), ev.PaymentID)
	return subject, body
}

func currencySymbol(code string) string {
	switch code {
	case "", "INR":
		return "₹"
	case "IDR":
		return "Rp"
	default:
		return code + " "
	}
}
