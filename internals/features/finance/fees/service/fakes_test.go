package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"schoolfee_backend/internals/constants"
	"schoolfee_backend/internals/features/finance/fees/model"
	"schoolfee_backend/internals/features/finance/fees/repository"
)

type fakeGateway struct {
	provider string
	currency string
	exp      int32
	handle   *OrderHandle
	err      error
	block    chan struct{}

	mu   sync.Mutex
	reqs []OrderRequest
}

func newFakeRazorpay() *fakeGateway {
	return &fakeGateway{provider: model.ProviderRazorpay, currency: "INR", exp: 2}
}

func (g *fakeGateway) Provider() string { return g.provider }
func (g *fakeGateway) Currency() string { return g.currency }
func (g *fakeGateway) Exponent() int32  { return g.exp }

func (g *fakeGateway) CreateOrder(ctx context.Context, req OrderRequest) (*OrderHandle, error) {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	g.mu.Unlock()
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	if g.handle != nil {
		return g.handle, nil
	}
	return &OrderHandle{ID: "order_" + req.Receipt, Amount: req.AmountMinor, Currency: g.currency, Provider: g.provider}, nil
}

func (g *fakeGateway) lastRequest() OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reqs[len(g.reqs)-1]
}

type fakeFetcher struct {
	orders map[string]int64
	err    error
	calls  int
}

func (f *fakeFetcher) FetchOrder(_ context.Context, id string) (*OrderHandle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &OrderHandle{ID: id, Amount: f.orders[id]}, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []FeePaidEvent
}

func (s *captureSink) Dispatch(ev FeePaidEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *captureSink) all() []FeePaidEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FeePaidEvent(nil), s.events...)
}

// flakyStore fails the first n Mutate calls with err, then delegates.
type flakyStore struct {
	repository.Store
	mu    sync.Mutex
	n     int
	err   error
	calls int
}

func (s *flakyStore) Mutate(ctx context.Context, lk repository.Lookup, fn repository.MutateFunc) (*model.FeeAccount, error) {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.n
	s.mu.Unlock()
	if fail {
		return nil, s.err
	}
	return s.Store.Mutate(ctx, lk, fn)
}

func seedAccount(t *testing.T, store *repository.MemoryStore, total string) *model.FeeAccount {
	t.Helper()
	name := "Asha Rao"
	adm := "ADM-042"
	acc := &model.FeeAccount{
		FeeAccountID:              uuid.New(),
		FeeAccountStudentID:       uuid.New(),
		FeeAccountStudentName:     &name,
		FeeAccountAdmissionNumber: &adm,
		FeeAccountTotalOwed:       decimal.RequireFromString(total),
		FeeAccountIsActive:        true,
	}
	acc.RecomputeAggregates()
	store.Put(acc)
	return acc
}

func adminCaller() Caller { return Caller{UserID: uuid.New(), Role: constants.RoleAdmin} }

func studentCaller(studentID uuid.UUID) Caller {
	sid := studentID
	return Caller{UserID: uuid.New(), Role: constants.RoleStudent, StudentID: &sid}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
