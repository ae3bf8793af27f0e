// file: internals/features/finance/fees/repository/store.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"schoolfee_backend/internals/features/finance/fees/model"
)

var (
	ErrNotFound         = errors.New("fee account not found")
	ErrConcurrentUpdate = errors.New("fee account was modified concurrently")
	ErrDuplicateEntry   = errors.New("payment entry already recorded")
)

// Lookup resolves an account either by id (client path) or by active order id (webhook path).
type Lookup struct {
	FeeID   uuid.UUID
	OrderID string
}

func ByID(id uuid.UUID) Lookup        { return Lookup{FeeID: id} }
func ByOrderID(orderID string) Lookup { return Lookup{OrderID: orderID} }

// MutateFunc receives the locked account with its entries loaded.
// Return false when nothing changed so the store skips the write.
type MutateFunc func(acc *model.FeeAccount) (bool, error)

type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.FeeAccount, error)
	FindByOrderID(ctx context.Context, orderID string) (*model.FeeAccount, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.FeeAccount, error)
	// ListAccounts returns one page of active accounts, newest first, plus the total match count.
	ListAccounts(ctx context.Context, f model.FeeAccountFilter) ([]model.FeeAccount, int64, error)

	SetActiveOrder(ctx context.Context, id uuid.UUID, order model.ActiveOrder) error

	// Mutate runs fn against a single account under the store's atomicity boundary:
	// either every new entry plus the recomputed aggregates become visible, or none do.
	Mutate(ctx context.Context, lk Lookup, fn MutateFunc) (*model.FeeAccount, error)

	LogGatewayEvent(ctx context.Context, ev *model.GatewayEvent) error
	MarkGatewayEvent(ctx context.Context, id uuid.UUID, status model.GatewayEventStatus, feeID *uuid.UUID, errMsg string) error
	ListGatewayEvents(ctx context.Context, f model.GatewayEventFilter) ([]model.GatewayEvent, int64, error)
	// PurgeGatewayEvents deletes log rows received before the cutoff whose status is one of statuses.
	PurgeGatewayEvents(ctx context.Context, before time.Time, statuses []model.GatewayEventStatus) (int64, error)
}
