package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schoolfee_backend/internals/features/finance/fees/model"
	"schoolfee_backend/internals/features/finance/fees/repository"
)

func newIssuer(t *testing.T, store repository.Store) *OrderIssuer {
	return NewOrderIssuer(store, zaptest.NewLogger(t), time.Second)
}

func TestCreateOrder_UsesPendingAmountWhenOmitted(t *testing.T) {
	store := repository.NewMemoryStore()
	acc := seedAccount(t, store, "5000")
	gw := newFakeRazorpay()

	h, err := newIssuer(t, store).CreateOrder(context.Background(), gw, CreateOrderInput{FeeID: acc.FeeAccountID, Caller: adminCaller()})
	require.NoError(t, err)
	assert.Equal(t, int64(500000), gw.lastRequest().AmountMinor)
	assert.Equal(t, int64(500000), h.Amount)

	got, err := store.FindByID(context.Background(), acc.FeeAccountID)
	require.NoError(t, err)
	ao := got.FeeAccountActiveOrder
	require.NotNil(t, ao.OrderID)
	assert.Equal(t, h.ID, *ao.OrderID)
	require.NotNil(t, ao.AmountMinor)
	assert.Equal(t, int64(500000), *ao.AmountMinor)
	assert.Equal(t, "INR", *ao.Currency)
	assert.False(t, ao.Captured)
}

func TestCreateOrder_ExplicitAmountRoundsToMinorUnits(t *testing.T) {
	store := repository.NewMemoryStore()
	acc := seedAccount(t, store, "5000")
	gw := newFakeRazorpay()

	_, err := newIssuer(t, store).CreateOrder(context.Background(), gw, CreateOrderInput{
		FeeID: acc.FeeAccountID, Amount: dec("1234.565"), Caller: adminCaller(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(123457), gw.lastRequest().AmountMinor)
}

func TestCreateOrder_ZeroExplicitFallsBackToPending(t *testing.T) {
	store := repository.NewMemoryStore()
	acc := seedAccount(t, store, "10")
	gw := newFakeRazorpay()

	_, err := newIssuer(t, store).CreateOrder(context.Background(), gw, CreateOrderInput{
		FeeID: acc.FeeAccountID, Amount: dec("0"), Caller: adminCaller(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), gw.lastRequest().AmountMinor)
}

func TestCreateOrder_InvalidAmounts(t *testing.T) {
	store := repository.NewMemoryStore()
	settled := seedAccount(t, store, "100")
	_, err := store.Mutate(context.Background(), repository.ByID(settled.FeeAccountID), func(a *model.FeeAccount) (bool, error) {
		_, ok := a.ApplyPayment(model.PaymentEvent{OrderID: "o", PaymentID: "p", Amount: a.FeeAccountTotalOwed})
		return ok, nil
	})
	require.NoError(t, err)
	open := seedAccount(t, store, "100")

	issuer := newIssuer(t, store)
	cases := []struct {
		name  string
		input CreateOrderInput
	}{
		{"settled account without amount", CreateOrderInput{FeeID: settled.FeeAccountID, Caller: adminCaller()}},
		{"negative amount", CreateOrderInput{FeeID: open.FeeAccountID, Amount: dec("-5"), Caller: adminCaller()}},
		{"rounds to zero", CreateOrderInput{FeeID: open.FeeAccountID, Amount: dec("0.001"), Caller: adminCaller()}},
		{"exceeds minor-unit range", CreateOrderInput{FeeID: open.FeeAccountID, Amount: dec("190000000000000000"), Caller: adminCaller()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := newFakeRazorpay()
			_, err := issuer.CreateOrder(context.Background(), gw, tc.input)
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.Empty(t, gw.reqs, "gateway must not be called")
		})
	}
}

func TestCreateOrder_NotFoundAndForbidden(t *testing.T) {
	store := repository.NewMemoryStore()
	acc := seedAccount(t, store, "100")
	issuer := newIssuer(t, store)

	_, err := issuer.CreateOrder(context.Background(), newFakeRazorpay(), CreateOrderInput{FeeID: uuid.New(), Caller: adminCaller()})
	assert.ErrorIs(t, err, ErrFeeNotFound)

	_, err = issuer.CreateOrder(context.Background(), newFakeRazorpay(), CreateOrderInput{FeeID: acc.FeeAccountID, Caller: studentCaller(uuid.New())})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = issuer.CreateOrder(context.Background(), newFakeRazorpay(), CreateOrderInput{FeeID: acc.FeeAccountID, Caller: studentCaller(acc.FeeAccountStudentID)})
	assert.NoError(t, err)
}

func TestCreateOrder_GatewayFailureLeavesAccountUntouched(t *testing.T) {
	store := repository.NewMemoryStore()
	acc := seedAccount(t, store, "100")
	gw := newFakeRazorpay()
	gw.err = errors.New("connection refused")

	_, err := newIssuer(t, store).CreateOrder(context.Background(), gw, CreateOrderInput{FeeID: acc.FeeAccountID, Caller: adminCaller()})
	assert.ErrorIs(t, err, ErrGateway)

	got, _ := store.FindByID(context.Background(), acc.FeeAccountID)
	assert.Nil(t, got.FeeAccountActiveOrder.OrderID)
}

func TestCreateOrder_GatewayTimeout(t *testing.T) {
	store := repository.NewMemoryStore()
	acc := seedAccount(t, store, "100")
	gw := newFakeRazorpay()
	gw.block = make(chan struct{})
	defer close(gw.block)

	issuer := NewOrderIssuer(store, zaptest.NewLogger(t), 20*time.Millisecond)
	_, err := issuer.CreateOrder(context.Background(), gw, CreateOrderInput{FeeID: acc.FeeAccountID, Caller: adminCaller()})
	assert.ErrorIs(t, err, ErrGateway)
}

func TestCreateOrder_SecondCallOverwritesActiveOrder(t *testing.T) {
	store := repository.NewMemoryStore()
	acc := seedAccount(t, store, "100")
	issuer := newIssuer(t, store)

	gw := newFakeRazorpay()
	gw.handle = &OrderHandle{ID: "order_A"}
	_, err := issuer.CreateOrder(context.Background(), gw, CreateOrderInput{FeeID: acc.FeeAccountID, Caller: adminCaller()})
	require.NoError(t, err)

	gw.handle = &OrderHandle{ID: "order_B"}
	_, err = issuer.CreateOrder(context.Background(), gw, CreateOrderInput{FeeID: acc.FeeAccountID, Caller: adminCaller()})
	require.NoError(t, err)

	got, _ := store.FindByID(context.Background(), acc.FeeAccountID)
	assert.Equal(t, "order_B", *got.FeeAccountActiveOrder.OrderID)
	_, err = store.FindByOrderID(context.Background(), "order_A")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReceipt(t *testing.T) {
	id := uuid.MustParse("3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b")
	r := Receipt(id, time.UnixMilli(1767225600000))
	assert.Equal(t, "fee_rcpt_3f2b8c1e9a4d4e6f_1767225600000", r)
	assert.LessOrEqual(t, len(r), 40)
	assert.True(t, strings.HasPrefix(r, "fee_rcpt_"))
}
