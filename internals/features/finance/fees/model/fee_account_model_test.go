package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(total string) *FeeAccount {
	a := &FeeAccount{
		FeeAccountID:        uuid.New(),
		FeeAccountStudentID: uuid.New(),
		FeeAccountTotalOwed: decimal.RequireFromString(total),
		FeeAccountIsActive:  true,
	}
	a.RecomputeAggregates()
	return a
}

func event(orderID, paymentID, amount string) PaymentEvent {
	return PaymentEvent{
		OrderID:    orderID,
		PaymentID:  paymentID,
		Amount:     decimal.RequireFromString(amount),
		Method:     PaymentMethodUPI,
		Provider:   ProviderRazorpay,
		Source:     EntrySourceWebhook,
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func assertConsistent(t *testing.T, a *FeeAccount) {
	t.Helper()
	assert.True(t, a.FeeAccountPaidAmount.Equal(a.CompletedTotal()), "paid %s != entries %s", a.FeeAccountPaidAmount, a.CompletedTotal())
	want := a.FeeAccountTotalOwed.Sub(a.FeeAccountPaidAmount)
	if want.IsNegative() {
		want = decimal.Zero
	}
	assert.True(t, a.FeeAccountPendingAmount.Equal(want))
	assert.Equal(t, DeriveStatus(a.FeeAccountPaidAmount, a.FeeAccountPendingAmount), a.FeeAccountStatus)
}

func TestDeriveStatus(t *testing.T) {
	total := decimal.NewFromInt(5000)
	cases := []struct {
		name string
		paid decimal.Decimal
		want FeeStatus
	}{
		{"nothing paid", decimal.Zero, FeeStatusPending},
		{"one short", total.Sub(decimal.NewFromInt(1)), FeeStatusPartial},
		{"fully paid", total, FeeStatusPaid},
		{"overpaid", total.Add(decimal.NewFromInt(10)), FeeStatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newAccount("5000")
			a.FeeAccountPaidAmount = tc.paid
			a.RecomputeAggregates()
			assert.Equal(t, tc.want, a.FeeAccountStatus)
			assert.False(t, a.FeeAccountPendingAmount.IsNegative())
		})
	}
}

func TestApplyPayment_Scenario(t *testing.T) {
	a := newAccount("5000")
	require.Equal(t, FeeStatusPending, a.FeeAccountStatus)

	entry, applied := a.ApplyPayment(event("order_1", "pay_1", "2000"))
	require.True(t, applied)
	assert.Equal(t, EntryStatusCompleted, entry.PaymentEntryStatus)
	assert.Equal(t, "pay_1", entry.PaymentEntryTransactionID)
	assert.True(t, a.FeeAccountPaidAmount.Equal(decimal.NewFromInt(2000)))
	assert.True(t, a.FeeAccountPendingAmount.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, FeeStatusPartial, a.FeeAccountStatus)
	assertConsistent(t, a)

	_, applied = a.ApplyPayment(event("order_1", "pay_1", "2000"))
	assert.False(t, applied)
	assert.Len(t, a.Entries, 1)
	assert.True(t, a.FeeAccountPaidAmount.Equal(decimal.NewFromInt(2000)))

	_, applied = a.ApplyPayment(event("order_2", "pay_2", "3000"))
	require.True(t, applied)
	assert.True(t, a.FeeAccountPaidAmount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, a.FeeAccountPendingAmount.IsZero())
	assert.Equal(t, FeeStatusPaid, a.FeeAccountStatus)
	assertConsistent(t, a)
}

func TestApplyPayment_SamePaymentIDDifferentOrder(t *testing.T) {
	a := newAccount("1000")
	_, ok := a.ApplyPayment(event("order_1", "pay_1", "100"))
	require.True(t, ok)
	_, ok = a.ApplyPayment(event("order_2", "pay_1", "100"))
	assert.True(t, ok, "idempotency key is the pair, not the payment id alone")
	assertConsistent(t, a)
}

func TestApplyPayment_UpdatesActiveOrder(t *testing.T) {
	a := newAccount("1000")
	orderID := "order_1"
	minor := int64(50000)
	a.FeeAccountActiveOrder = ActiveOrder{OrderID: &orderID, AmountMinor: &minor}

	ev := event("order_1", "pay_9", "500")
	ev.Signature = "abc"
	_, ok := a.ApplyPayment(ev)
	require.True(t, ok)

	ao := a.FeeAccountActiveOrder
	assert.True(t, ao.Captured)
	require.NotNil(t, ao.PaymentID)
	assert.Equal(t, "pay_9", *ao.PaymentID)
	require.NotNil(t, ao.Method)
	assert.Equal(t, "upi", *ao.Method)
	require.NotNil(t, ao.AmountMinor, "same order keeps its recorded amount")
	assert.Equal(t, int64(50000), *ao.AmountMinor)

	_, ok = a.ApplyPayment(event("order_old", "pay_10", "100"))
	require.True(t, ok)
	assert.Equal(t, "order_old", *a.FeeAccountActiveOrder.OrderID)
	assert.Nil(t, a.FeeAccountActiveOrder.AmountMinor)
}

func TestApplyPayment_AggregatesHoldForSequences(t *testing.T) {
	a := newAccount("1234.50")
	amounts := []string{"0.50", "100", "34", "1000", "250.75"}
	for i, amt := range amounts {
		_, ok := a.ApplyPayment(event("order", uuid.NewString(), amt))
		require.True(t, ok, "step %d", i)
		assertConsistent(t, a)
	}
	assert.Equal(t, FeeStatusPaid, a.FeeAccountStatus)
	assert.True(t, a.FeeAccountPendingAmount.IsZero())
}

func TestNormalizePaymentMethod(t *testing.T) {
	assert.Equal(t, PaymentMethodOnline, NormalizePaymentMethod(""))
	assert.Equal(t, PaymentMethodUPI, NormalizePaymentMethod("UPI"))
	assert.Equal(t, PaymentMethodNetbanking, NormalizePaymentMethod("netbanking"))
	assert.Equal(t, PaymentMethodOnline, NormalizePaymentMethod("wallet"))
	assert.Equal(t, PaymentMethodCard, NormalizePaymentMethod("credit_card"))
	assert.Equal(t, PaymentMethodTransfer, NormalizePaymentMethod("bank_transfer"))
}

func TestClone_IsDeep(t *testing.T) {
	a := newAccount("100")
	orderID := "order_1"
	a.FeeAccountActiveOrder.OrderID = &orderID
	a.ApplyPayment(event("order_1", "pay_1", "10"))

	cp := a.Clone()
	cp.Entries[0].PaymentEntryAmount = decimal.NewFromInt(99)
	*cp.FeeAccountActiveOrder.OrderID = "changed"

	assert.True(t, a.Entries[0].PaymentEntryAmount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "order_1", *a.FeeAccountActiveOrder.OrderID)
}
