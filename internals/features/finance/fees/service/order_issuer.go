// file: internals/features/finance/fees/service/order_issuer.go
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

const receiptMaxLen = 40

type CreateOrderInput struct {
	FeeID  uuid.UUID
	Amount *decimal.Decimal // nil / 0 → pakai pending amount
	Caller Caller
	Email  string
	Phone  string
}

type OrderIssuer struct {
	Store   repository.Store
	Log     *zap.Logger
	Timeout time.Duration

	now func() time.Time
}

func NewOrderIssuer(store repository.Store, log *zap.Logger, timeout time.Duration) *OrderIssuer {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderIssuer{Store: store, Log: log, Timeout: timeout, now: time.Now}
}

// CreateOrder mints a gateway order for the account and records it as the active order.
// Not idempotent: a second call replaces the first order reference.
func (s *OrderIssuer) CreateOrder(ctx context.Context, gw Gateway, in CreateOrderInput) (*OrderHandle, error) {
	provider := gw.Provider()

	acc, err := s.Store.FindByID(ctx, in.FeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.OrdersCreated.WithLabelValues(provider, "not_found").Inc()
			return nil, ErrFeeNotFound
		}
		return nil, err
	}
	if !in.Caller.CanAccess(acc) {
		metrics.OrdersCreated.WithLabelValues(provider, "forbidden").Inc()
		return nil, ErrForbidden
	}

	amount, err := ResolveChargeAmount(acc, in.Amount)
	if err != nil {
		metrics.OrdersCreated.WithLabelValues(provider, "invalid_amount").Inc()
		return nil, err
	}
	minor, err := money.ToMinor(amount, gw.Exponent())
	if err != nil {
		metrics.OrdersCreated.WithLabelValues(provider, "invalid_amount").Inc()
		return nil, fmt.Errorf("%w: %s too large", ErrInvalidAmount, amount)
	}
	if minor <= 0 {
		metrics.OrdersCreated.WithLabelValues(provider, "invalid_amount").Inc()
		return nil, fmt.Errorf("%w: %s rounds to zero", ErrInvalidAmount, amount)
	}

	now := s.now()
	req := OrderRequest{
		FeeID:       acc.FeeAccountID,
		AmountMinor: minor,
		Receipt:     Receipt(acc.FeeAccountID, now),
		Description: feeDescription(acc),
		Customer: CustomerInput{
			FirstName: derefOr(acc.FeeAccountStudentName, derefOr(acc.FeeAccountAdmissionNumber, "Student")),
			Email:     in.Email,
			Phone:     in.Phone,
		},
		Notes: map[string]string{
			"fee_id":     acc.FeeAccountID.String(),
			"student_id": acc.FeeAccountStudentID.String(),
		},
	}

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	handle, err := gw.CreateOrder(callCtx, req)
	if err != nil {
		metrics.OrdersCreated.WithLabelValues(provider, "gateway_error").Inc()
		s.Log.Error("gateway order creation failed",
			zap.String("provider", provider),
			zap.String("fee_id", acc.FeeAccountID.String()),
			zap.Error(err))
		if errors.Is(err, ErrGateway) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	orderID := handle.ID
	currency := gw.Currency()
	created := now
	active := model.ActiveOrder{
		OrderID:     &orderID,
		Provider:    &provider,
		Currency:    &currency,
		AmountMinor: &minor,
		Captured:    false,
		CreatedAt:   &created,
	}
	if err := s.Store.SetActiveOrder(ctx, acc.FeeAccountID, active); err != nil {
		metrics.OrdersCreated.WithLabelValues(provider, "store_error").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFeeNotFound
		}
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues(provider, "ok").Inc()
	s.Log.Info("gateway order created",
		zap.String("provider", provider),
		zap.String("fee_id", acc.FeeAccountID.String()),
		zap.String("order_id", orderID),
		zap.Int64("amount_minor", minor))
	return handle, nil
}

// ResolveChargeAmount: explicit amount if positive, otherwise the pending amount.
// A negative explicit amount or a settled account is ErrInvalidAmount.
func ResolveChargeAmount(acc *model.FeeAccount, requested *decimal.Decimal) (decimal.Decimal, error) {
	if requested != nil {
		if requested.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: negative amount", ErrInvalidAmount)
		}
		if requested.IsPositive() {
			return *requested, nil
		}
	}
	if acc.FeeAccountPendingAmount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: nothing pending", ErrInvalidAmount)
	}
	return acc.FeeAccountPendingAmount, nil
}

// Receipt: fee_rcpt_<16 hex fee id>_<unix millis>, max 40 chars (batas receipt Razorpay).
func Receipt(feeID uuid.UUID, now time.Time) string {
	compact := strings.ReplaceAll(feeID.String(), "-", "")
	return truncate(fmt.Sprintf("fee_rcpt_%s_%d", compact[:16], now.UnixMilli()), receiptMaxLen)
}

func feeDescription(acc *model.FeeAccount) string {
	parts := []string{"School Fee"}
	if acc.FeeAccountAcademicYear != nil && *acc.FeeAccountAcademicYear != "" {
		parts = append(parts, *acc.FeeAccountAcademicYear)
	}
	if acc.FeeAccountSemester != nil {
		parts = append(parts, fmt.Sprintf("Sem %d", *acc.FeeAccountSemester))
	}
	return strings.Join(parts, " ")
}

func derefOr(p *string, def string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return def
	}
	return *p
}
