package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolfee_backend/internals/features/finance/fees/model"
)

func seed(t *testing.T, s *MemoryStore, total int64) uuid.UUID {
	t.Helper()
	acc := &model.FeeAccount{
		FeeAccountID:        uuid.New(),
		FeeAccountStudentID: uuid.New(),
		FeeAccountTotalOwed: decimal.NewFromInt(total),
		FeeAccountIsActive:  true,
	}
	acc.RecomputeAggregates()
	s.Put(acc)
	return acc.FeeAccountID
}

func TestMemoryStore_MutateConcurrentPaymentsAreNotLost(t *testing.T) {
	s := NewMemoryStore()
	id := seed(t, s, 10000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Mutate(ctx, ByID(id), func(acc *model.FeeAccount) (bool, error) {
				_, ok := acc.ApplyPayment(model.PaymentEvent{
					OrderID:   "order",
					PaymentID: fmt.Sprintf("pay_%d", i),
					Amount:    decimal.NewFromInt(100),
				})
				return ok, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	acc, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, acc.Entries, 50)
	assert.True(t, acc.FeeAccountPaidAmount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, acc.FeeAccountPendingAmount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, int64(50), acc.FeeAccountVersion)
}

func TestMemoryStore_MutateWithoutChangeKeepsVersion(t *testing.T) {
	s := NewMemoryStore()
	id := seed(t, s, 100)

	_, err := s.Mutate(context.Background(), ByID(id), func(acc *model.FeeAccount) (bool, error) {
		acc.FeeAccountPaidAmount = decimal.NewFromInt(99) // dibuang karena changed=false
		return false, nil
	})
	require.NoError(t, err)

	acc, err := s.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acc.FeeAccountVersion)
	assert.True(t, acc.FeeAccountPaidAmount.IsZero())
}

func TestMemoryStore_MutateErrorLeavesAccountUntouched(t *testing.T) {
	s := NewMemoryStore()
	id := seed(t, s, 100)
	boom := fmt.Errorf("boom")

	_, err := s.Mutate(context.Background(), ByID(id), func(acc *model.FeeAccount) (bool, error) {
		acc.ApplyPayment(model.PaymentEvent{OrderID: "o", PaymentID: "p", Amount: decimal.NewFromInt(10)})
		return true, boom
	})
	assert.ErrorIs(t, err, boom)

	acc, _ := s.FindByID(context.Background(), id)
	assert.Empty(t, acc.Entries)
}

func TestMemoryStore_LookupByOrder(t *testing.T) {
	s := NewMemoryStore()
	id := seed(t, s, 100)
	ctx := context.Background()

	_, err := s.FindByOrderID(ctx, "order_x")
	assert.ErrorIs(t, err, ErrNotFound)

	orderID := "order_x"
	require.NoError(t, s.SetActiveOrder(ctx, id, model.ActiveOrder{OrderID: &orderID}))

	acc, err := s.FindByOrderID(ctx, "order_x")
	require.NoError(t, err)
	assert.Equal(t, id, acc.FeeAccountID)

	_, err = s.Mutate(ctx, ByOrderID("unknown"), func(*model.FeeAccount) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.SetActiveOrder(ctx, uuid.New(), model.ActiveOrder{}), ErrNotFound)
}

func TestMemoryStore_InactiveAccountIsHidden(t *testing.T) {
	s := NewMemoryStore()
	acc := &model.FeeAccount{FeeAccountID: uuid.New(), FeeAccountTotalOwed: decimal.NewFromInt(5)}
	s.Put(acc)

	_, err := s.FindByID(context.Background(), acc.FeeAccountID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GatewayEvents(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		oid := fmt.Sprintf("order_%d", i)
		require.NoError(t, s.LogGatewayEvent(ctx, &model.GatewayEvent{
			GatewayEventProvider: model.ProviderRazorpay,
			GatewayEventOrderID:  &oid,
			GatewayEventStatus:   model.GatewayEventReceived,
		}))
	}
	rows, total, err := s.ListGatewayEvents(ctx, model.GatewayEventFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "order_4", *rows[0].GatewayEventOrderID)

	feeID := uuid.New()
	require.NoError(t, s.MarkGatewayEvent(ctx, rows[0].GatewayEventID, model.GatewayEventProcessed, &feeID, ""))

	rows, total, err = s.ListGatewayEvents(ctx, model.GatewayEventFilter{Status: "processed"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, feeID, *rows[0].GatewayEventFeeAccountID)
	assert.NotNil(t, rows[0].GatewayEventProcessedAt)
}

func TestMemoryStore_ListAccounts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seed(t, s, 500)
	seed(t, s, 300)
	settled := seed(t, s, 100)
	_, err := s.Mutate(ctx, ByID(settled), func(acc *model.FeeAccount) (bool, error) {
		_, ok := acc.ApplyPayment(model.PaymentEvent{OrderID: "o", PaymentID: "p", Amount: decimal.NewFromInt(100)})
		return ok, nil
	})
	require.NoError(t, err)

	rows, total, err := s.ListAccounts(ctx, model.FeeAccountFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 2)

	rows, total, err = s.ListAccounts(ctx, model.FeeAccountFilter{Outstanding: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, r := range rows {
		assert.NotEqual(t, settled, r.FeeAccountID)
	}

	rows, _, err = s.ListAccounts(ctx, model.FeeAccountFilter{Status: model.FeeStatusPaid})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, settled, rows[0].FeeAccountID)

	rows, total, err = s.ListAccounts(ctx, model.FeeAccountFilter{Offset: 5, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, rows)
}
