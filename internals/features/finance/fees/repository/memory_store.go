// file: internals/features/finance/fees/repository/memory_store.go
package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"schoolfee_backend/internals/features/finance/fees/model"
)

// MemoryStore keeps accounts in process memory. One mutex serialises every mutation,
// which gives the same per-account atomicity as the row lock in GormStore.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.FeeAccount
	events   []model.GatewayEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[uuid.UUID]*model.FeeAccount)}
}

// Put inserts or replaces an account (billing setup lives outside this service).
func (s *MemoryStore) Put(acc *model.FeeAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.FeeAccountID == uuid.Nil {
		acc.FeeAccountID = uuid.New()
	}
	s.accounts[acc.FeeAccountID] = acc.Clone()
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*model.FeeAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok || !acc.FeeAccountIsActive {
		return nil, ErrNotFound
	}
	return acc.Clone(), nil
}

func (s *MemoryStore) FindByOrderID(_ context.Context, orderID string) (*model.FeeAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.byOrderLocked(orderID)
	if acc == nil {
		return nil, ErrNotFound
	}
	return acc.Clone(), nil
}

func (s *MemoryStore) ListByStudent(_ context.Context, studentID uuid.UUID) ([]model.FeeAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.FeeAccount, 0)
	for _, acc := range s.accounts {
		if acc.FeeAccountStudentID == studentID && acc.FeeAccountIsActive {
			out = append(out, *acc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FeeAccountCreatedAt.After(out[j].FeeAccountCreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) ListAccounts(_ context.Context, f model.FeeAccountFilter) ([]model.FeeAccount, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]model.FeeAccount, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if !acc.FeeAccountIsActive {
			continue
		}
		if f.Status != "" && acc.FeeAccountStatus != f.Status {
			continue
		}
		if f.Outstanding && !acc.FeeAccountPendingAmount.IsPositive() {
			continue
		}
		matched = append(matched, *acc.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.FeeAccountCreatedAt.Equal(b.FeeAccountCreatedAt) {
			return a.FeeAccountCreatedAt.After(b.FeeAccountCreatedAt)
		}
		return a.FeeAccountID.String() < b.FeeAccountID.String()
	})

	total := int64(len(matched))
	start := f.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) SetActiveOrder(_ context.Context, id uuid.UUID, o model.ActiveOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok || !acc.FeeAccountIsActive {
		return ErrNotFound
	}
	tmp := model.FeeAccount{FeeAccountActiveOrder: o}
	acc.FeeAccountActiveOrder = tmp.Clone().FeeAccountActiveOrder
	acc.FeeAccountUpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Mutate(_ context.Context, lk Lookup, fn MutateFunc) (*model.FeeAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur *model.FeeAccount
	switch {
	case lk.FeeID != uuid.Nil:
		if acc, ok := s.accounts[lk.FeeID]; ok && acc.FeeAccountIsActive {
			cur = acc
		}
	case strings.TrimSpace(lk.OrderID) != "":
		cur = s.byOrderLocked(lk.OrderID)
	}
	if cur == nil {
		return nil, ErrNotFound
	}

	work := cur.Clone()
	changed, err := fn(work)
	if err != nil {
		return nil, err
	}
	if !changed {
		return work, nil
	}
	work.FeeAccountVersion = cur.FeeAccountVersion + 1
	work.FeeAccountUpdatedAt = time.Now()
	s.accounts[work.FeeAccountID] = work.Clone()
	return work, nil
}

func (s *MemoryStore) LogGatewayEvent(_ context.Context, ev *model.GatewayEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.GatewayEventID == uuid.Nil {
		ev.GatewayEventID = uuid.New()
	}
	if ev.GatewayEventReceivedAt.IsZero() {
		ev.GatewayEventReceivedAt = time.Now()
	}
	s.events = append(s.events, *ev)
	return nil
}

func (s *MemoryStore) MarkGatewayEvent(_ context.Context, id uuid.UUID, status model.GatewayEventStatus, feeID *uuid.UUID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		ev := &s.events[i]
		if ev.GatewayEventID != id {
			continue
		}
		now := time.Now()
		ev.GatewayEventStatus = status
		ev.GatewayEventProcessedAt = &now
		if feeID != nil {
			fid := *feeID
			ev.GatewayEventFeeAccountID = &fid
		}
		if errMsg != "" {
			msg := errMsg
			ev.GatewayEventError = &msg
		}
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) ListGatewayEvents(_ context.Context, f model.GatewayEventFilter) ([]model.GatewayEvent, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]model.GatewayEvent, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- { // terbaru dulu
		ev := s.events[i]
		if f.Provider != "" && !strings.EqualFold(ev.GatewayEventProvider, f.Provider) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(string(ev.GatewayEventStatus), f.Status) {
			continue
		}
		if f.OrderID != "" && (ev.GatewayEventOrderID == nil || *ev.GatewayEventOrderID != f.OrderID) {
			continue
		}
		matched = append(matched, ev)
	}

	total := int64(len(matched))
	start := f.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) PurgeGatewayEvents(_ context.Context, before time.Time, statuses []model.GatewayEventStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purge := make(map[model.GatewayEventStatus]bool, len(statuses))
	for _, st := range statuses {
		purge[st] = true
	}
	kept := s.events[:0]
	var n int64
	for _, ev := range s.events {
		if purge[ev.GatewayEventStatus] && ev.GatewayEventReceivedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return n, nil
}

func (s *MemoryStore) byOrderLocked(orderID string) *model.FeeAccount {
	if strings.TrimSpace(orderID) == "" {
		return nil
	}
	for _, acc := range s.accounts {
		if acc.FeeAccountIsActive && acc.FeeAccountActiveOrder.Matches(orderID) {
			return acc
		}
	}
	return nil
}
