// file: internals/features/finance/fees/service/reconciler.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"schoolfee_backend/internals/features/finance/fees/model"
	"schoolfee_backend/internals/features/finance/fees/money"
	"schoolfee_backend/internals/features/finance/fees/repository"
	"schoolfee_backend/internals/metrics"
)

const defaultMutateAttempts = 3

/* =========================================================
   Inputs / outputs
========================================================= */

// ClientConfirmation is the signed checkout callback forwarded by the browser.
type ClientConfirmation struct {
	FeeID         uuid.UUID
	OrderID       string
	PaymentID     string
	Signature     string
	Amount        decimal.Decimal // major units, as claimed by the client
	Method        string
	TransactionID string
	Caller        Caller
}

// GatewayPayment is a payment reported server-to-server (webhook / notification).
type GatewayPayment struct {
	OrderID       string
	PaymentID     string
	TransactionID string
	AmountMinor   int64
	Exponent      int32
	Method        string
	Provider      string
	Source        model.EntrySource
	OccurredAt    time.Time
}

type ReconcileResult struct {
	Account         *model.FeeAccount   `json:"fee_account"`
	Entry           *model.PaymentEntry `json:"payment_entry,omitempty"`
	AlreadyRecorded bool                `json:"already_recorded"`
}

/* =========================================================
   Reconciler
========================================================= */

type ReconcilerOptions struct {
	KeySecret         string // razorpay key secret (order_id|payment_id)
	TrustClientAmount bool
	Exponent          int32 // client path minor-unit exponent
	Currency          string
	FetchTimeout      time.Duration
	MaxAttempts       int
}

type Reconciler struct {
	Store   repository.Store
	Fetcher OrderFetcher // boleh nil
	Events  EventSink    // boleh nil
	Log     *zap.Logger
	Opts    ReconcilerOptions
}

func NewReconciler(store repository.Store, fetcher OrderFetcher, events EventSink, log *zap.Logger, opts ReconcilerOptions) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMutateAttempts
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	return &Reconciler{Store: store, Fetcher: fetcher, Events: events, Log: log, Opts: opts}
}

// ReconcileClient handles Entry A: signature over order_id|payment_id, account by fee id.
func (r *Reconciler) ReconcileClient(ctx context.Context, in ClientConfirmation) (*ReconcileResult, error) {
	if !VerifySignature([]string{in.OrderID, in.PaymentID}, in.Signature, r.Opts.KeySecret) {
		metrics.SignatureFailures.WithLabelValues("verify-payment").Inc()
		r.Log.Warn("payment signature rejected",
			zap.String("reason", "signature_mismatch"),
			zap.String("fee_id", in.FeeID.String()),
			zap.String("order_id", in.OrderID),
			zap.String("payment_id", in.PaymentID))
		return nil, ErrInvalidSignature
	}

	acc, err := r.Store.FindByID(ctx, in.FeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Reconciliations.WithLabelValues(string(model.EntrySourceClient), "not_found").Inc()
			return nil, ErrFeeNotFound
		}
		return nil, err
	}
	if !in.Caller.CanAccess(acc) {
		return nil, ErrForbidden
	}

	amount, err := r.clientAmount(ctx, acc, in)
	if err != nil {
		metrics.Reconciliations.WithLabelValues(string(model.EntrySourceClient), "invalid_amount").Inc()
		return nil, err
	}

	ev := model.PaymentEvent{
		OrderID:       in.OrderID,
		PaymentID:     in.PaymentID,
		Signature:     in.Signature,
		TransactionID: in.TransactionID,
		Amount:        amount,
		Method:        model.NormalizePaymentMethod(in.Method),
		Provider:      model.ProviderRazorpay,
		Source:        model.EntrySourceClient,
		OccurredAt:    time.Now(),
	}
	return r.apply(ctx, repository.ByID(in.FeeID), ev, r.Opts.Currency)
}

// ReconcileGateway handles Entry B: account found through activeOrder.orderId,
// amount taken from the gateway payload.
func (r *Reconciler) ReconcileGateway(ctx context.Context, in GatewayPayment) (*ReconcileResult, error) {
	source := in.Source
	if source == "" {
		source = model.EntrySourceWebhook
	}
	if strings.TrimSpace(in.OrderID) == "" {
		metrics.Reconciliations.WithLabelValues(string(source), "not_found").Inc()
		return nil, ErrFeeNotFound
	}
	if in.AmountMinor <= 0 {
		metrics.Reconciliations.WithLabelValues(string(source), "invalid_amount").Inc()
		return nil, fmt.Errorf("%w: gateway amount %d", ErrInvalidAmount, in.AmountMinor)
	}

	paymentID := in.PaymentID
	if paymentID == "" {
		paymentID = in.TransactionID
	}
	ev := model.PaymentEvent{
		OrderID:       in.OrderID,
		PaymentID:     paymentID,
		TransactionID: in.TransactionID,
		Amount:        money.FromMinor(in.AmountMinor, in.Exponent),
		Method:        model.NormalizePaymentMethod(in.Method),
		Provider:      in.Provider,
		Source:        source,
		OccurredAt:    in.OccurredAt,
	}
	currency := r.Opts.Currency
	if in.Provider == model.ProviderMidtrans {
		currency = "IDR"
	}
	return r.apply(ctx, repository.ByOrderID(in.OrderID), ev, currency)
}

/* =========================================================
   Shared transition
========================================================= */

func (r *Reconciler) apply(ctx context.Context, lk repository.Lookup, ev model.PaymentEvent, currency string) (*ReconcileResult, error) {
	source := string(ev.Source)

	for attempt := 1; ; attempt++ {
		var (
			entry   model.PaymentEntry
			applied bool
		)
		acc, err := r.Store.Mutate(ctx, lk, func(acc *model.FeeAccount) (bool, error) {
			entry, applied = acc.ApplyPayment(ev)
			return applied, nil
		})

		switch {
		case err == nil:
		case errors.Is(err, repository.ErrNotFound):
			metrics.Reconciliations.WithLabelValues(source, "not_found").Inc()
			return nil, ErrFeeNotFound
		case errors.Is(err, repository.ErrDuplicateEntry):
			// unique index menang balapan dengan request lain
			metrics.Reconciliations.WithLabelValues(source, "duplicate").Inc()
			return &ReconcileResult{Account: r.reload(ctx, lk), AlreadyRecorded: true}, nil
		case errors.Is(err, repository.ErrConcurrentUpdate):
			if attempt < r.Opts.MaxAttempts {
				r.Log.Debug("fee account changed underneath, retrying",
					zap.Int("attempt", attempt), zap.String("order_id", ev.OrderID))
				continue
			}
			metrics.Reconciliations.WithLabelValues(source, "conflict").Inc()
			return nil, ErrConcurrentUpdate
		default:
			metrics.Reconciliations.WithLabelValues(source, "error").Inc()
			return nil, err
		}

		if !applied {
			metrics.Reconciliations.WithLabelValues(source, "duplicate").Inc()
			r.Log.Info("payment already recorded",
				zap.String("source", source),
				zap.String("order_id", ev.OrderID),
				zap.String("payment_id", ev.PaymentID))
			return &ReconcileResult{Account: acc, AlreadyRecorded: true}, nil
		}

		metrics.Reconciliations.WithLabelValues(source, "recorded").Inc()
		r.Log.Info("payment recorded",
			zap.String("source", source),
			zap.String("fee_id", acc.FeeAccountID.String()),
			zap.String("order_id", ev.OrderID),
			zap.String("payment_id", ev.PaymentID),
			zap.String("amount", ev.Amount.String()),
			zap.String("status", string(acc.FeeAccountStatus)))

		if r.Events != nil {
			r.Events.Dispatch(FeePaidEvent{
				FeeID:           acc.FeeAccountID,
				StudentID:       acc.FeeAccountStudentID,
				Amount:          entry.PaymentEntryAmount,
				Currency:        currency,
				OrderID:         entry.PaymentEntryOrderID,
				PaymentID:       entry.PaymentEntryPaymentID,
				Provider:        entry.PaymentEntryProvider,
				StudentName:     derefOr(acc.FeeAccountStudentName, ""),
				AdmissionNumber: derefOr(acc.FeeAccountAdmissionNumber, ""),
				PaidAt:          entry.PaymentEntryPaidAt,
			})
		}
		return &ReconcileResult{Account: acc, Entry: &entry}, nil
	}
}

// clientAmount decides which amount the client path books.
func (r *Reconciler) clientAmount(ctx context.Context, acc *model.FeeAccount, in ClientConfirmation) (decimal.Decimal, error) {
	if r.Opts.TrustClientAmount {
		if !in.Amount.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: client amount must be positive", ErrInvalidAmount)
		}
		return in.Amount, nil
	}

	var (
		amount decimal.Decimal
		origin string
	)
	ao := acc.FeeAccountActiveOrder
	switch {
	case ao.Matches(in.OrderID) && ao.AmountMinor != nil:
		amount = money.FromMinor(*ao.AmountMinor, r.Opts.Exponent)
		origin = "active_order"
	case r.Fetcher != nil:
		fctx := ctx
		if r.Opts.FetchTimeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, r.Opts.FetchTimeout)
			defer cancel()
		}
		h, err := r.Fetcher.FetchOrder(fctx, in.OrderID)
		if err != nil {
			return decimal.Zero, err
		}
		amount = money.FromMinor(h.Amount, r.Opts.Exponent)
		origin = "gateway_order"
	default:
		return decimal.Zero, fmt.Errorf("%w: order %s cannot be verified", ErrInvalidAmount, in.OrderID)
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: order amount is zero", ErrInvalidAmount)
	}
	if !in.Amount.IsZero() && !in.Amount.Equal(amount) {
		r.Log.Warn("client amount differs from order amount, booking order amount",
			zap.String("fee_id", acc.FeeAccountID.String()),
			zap.String("order_id", in.OrderID),
			zap.String("client_amount", in.Amount.String()),
			zap.String("order_amount", amount.String()),
			zap.String("origin", origin))
	}
	return amount, nil
}

func (r *Reconciler) reload(ctx context.Context, lk repository.Lookup) *model.FeeAccount {
	var (
		acc *model.FeeAccount
		err error
	)
	if lk.FeeID != uuid.Nil {
		acc, err = r.Store.FindByID(ctx, lk.FeeID)
	} else {
		acc, err = r.Store.FindByOrderID(ctx, lk.OrderID)
	}
	if err != nil {
		r.Log.Warn("reload after duplicate entry failed", zap.Error(err))
		return nil
	}
	return acc
}
