// file: internals/features/finance/fees/repository/gorm_store.go
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolfee_backend/internals/features/finance/fees/model"
)

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

/* =========================================================
   READ
========================================================= */

func withEntries(db *gorm.DB) *gorm.DB {
	return db.Order("payment_entry_paid_at ASC, payment_entry_created_at ASC")
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*model.FeeAccount, error) {
	var acc model.FeeAccount
	err := s.DB.WithContext(ctx).
		Preload("Entries", withEntries).
		Where("fee_account_id = ? AND fee_account_is_active = ?", id, true).
		First(&acc).Error
	if err != nil {
		return nil, translate(err)
	}
	return &acc, nil
}

func (s *GormStore) FindByOrderID(ctx context.Context, orderID string) (*model.FeeAccount, error) {
	var acc model.FeeAccount
	err := s.DB.WithContext(ctx).
		Preload("Entries", withEntries).
		Where("fee_account_active_order_order_id = ? AND fee_account_is_active = ?", orderID, true).
		First(&acc).Error
	if err != nil {
		return nil, translate(err)
	}
	return &acc, nil
}

func (s *GormStore) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.FeeAccount, error) {
	var rows []model.FeeAccount
	err := s.DB.WithContext(ctx).
		Preload("Entries", withEntries).
		Where("fee_account_student_id = ? AND fee_account_is_active = ?", studentID, true).
		Order("fee_account_created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) ListAccounts(ctx context.Context, f model.FeeAccountFilter) ([]model.FeeAccount, int64, error) {
	db := s.DB.WithContext(ctx).
		Model(&model.FeeAccount{}).
		Where("fee_account_is_active = ?", true)
	if f.Status != "" {
		db = db.Where("fee_account_status = ?", f.Status)
	}
	if f.Outstanding {
		db = db.Where("fee_account_pending_amount > 0")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.FeeAccount
	if err := db.Preload("Entries", withEntries).
		Order("fee_account_created_at DESC, fee_account_id").
		Limit(f.Limit).Offset(f.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

/* =========================================================
   WRITE
========================================================= */

func (s *GormStore) SetActiveOrder(ctx context.Context, id uuid.UUID, o model.ActiveOrder) error {
	res := s.DB.WithContext(ctx).
		Model(&model.FeeAccount{}).
		Where("fee_account_id = ? AND fee_account_is_active = ?", id, true).
		Updates(map[string]any{
			"fee_account_active_order_order_id":     o.OrderID,
			"fee_account_active_order_payment_id":   o.PaymentID,
			"fee_account_active_order_signature":    o.Signature,
			"fee_account_active_order_method":       o.Method,
			"fee_account_active_order_provider":     o.Provider,
			"fee_account_active_order_currency":     o.Currency,
			"fee_account_active_order_amount_minor": o.AmountMinor,
			"fee_account_active_order_captured":     o.Captured,
			"fee_account_active_order_created_at":   o.CreatedAt,
			"fee_account_updated_at":                time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Mutate locks the account row (SELECT ... FOR UPDATE), hands it to fn, then inserts the
// new entries and writes the aggregates guarded by the version column.
func (s *GormStore) Mutate(ctx context.Context, lk Lookup, fn MutateFunc) (*model.FeeAccount, error) {
	var out *model.FeeAccount

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acc model.FeeAccount
		q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("fee_account_is_active = ?", true)
		switch {
		case lk.FeeID != uuid.Nil:
			q = q.Where("fee_account_id = ?", lk.FeeID)
		case strings.TrimSpace(lk.OrderID) != "":
			q = q.Where("fee_account_active_order_order_id = ?", lk.OrderID)
		default:
			return ErrNotFound
		}
		if err := q.First(&acc).Error; err != nil {
			return translate(err)
		}
		if err := withEntries(tx).
			Where("payment_entry_fee_account_id = ?", acc.FeeAccountID).
			Find(&acc.Entries).Error; err != nil {
			return err
		}

		before := len(acc.Entries)
		version := acc.FeeAccountVersion

		changed, err := fn(&acc)
		if err != nil {
			return err
		}
		if !changed {
			out = &acc
			return nil
		}

		for i := before; i < len(acc.Entries); i++ {
			if err := tx.Create(&acc.Entries[i]).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicateEntry
				}
				return err
			}
		}

		if err := writeAggregates(tx, &acc, version); err != nil {
			return err
		}
		out = &acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// writeAggregates: update bersyarat fee_account_version = version.
// 0 baris = versi sudah berubah → ErrConcurrentUpdate.
func writeAggregates(tx *gorm.DB, acc *model.FeeAccount, version int64) error {
	ao := acc.FeeAccountActiveOrder
	now := time.Now()
	res := tx.Model(&model.FeeAccount{}).
		Where("fee_account_id = ? AND fee_account_version = ?", acc.FeeAccountID, version).
		Updates(map[string]any{
			"fee_account_paid_amount":               acc.FeeAccountPaidAmount,
			"fee_account_pending_amount":            acc.FeeAccountPendingAmount,
			"fee_account_status":                    acc.FeeAccountStatus,
			"fee_account_active_order_order_id":     ao.OrderID,
			"fee_account_active_order_payment_id":   ao.PaymentID,
			"fee_account_active_order_signature":    ao.Signature,
			"fee_account_active_order_method":       ao.Method,
			"fee_account_active_order_provider":     ao.Provider,
			"fee_account_active_order_amount_minor": ao.AmountMinor,
			"fee_account_active_order_captured":     ao.Captured,
			"fee_account_version":                   version + 1,
			"fee_account_updated_at":                now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	acc.FeeAccountVersion = version + 1
	acc.FeeAccountUpdatedAt = now
	return nil
}

/* =========================================================
   GATEWAY EVENTS
========================================================= */

func (s *GormStore) LogGatewayEvent(ctx context.Context, ev *model.GatewayEvent) error {
	if ev.GatewayEventID == uuid.Nil {
		ev.GatewayEventID = uuid.New()
	}
	if ev.GatewayEventReceivedAt.IsZero() {
		ev.GatewayEventReceivedAt = time.Now()
	}
	return s.DB.WithContext(ctx).Create(ev).Error
}

func (s *GormStore) MarkGatewayEvent(ctx context.Context, id uuid.UUID, status model.GatewayEventStatus, feeID *uuid.UUID, errMsg string) error {
	now := time.Now()
	patch := map[string]any{
		"gateway_event_status":       status,
		"gateway_event_processed_at": now,
	}
	if feeID != nil {
		patch["gateway_event_fee_account_id"] = *feeID
	}
	if errMsg != "" {
		patch["gateway_event_error"] = errMsg
	}
	return s.DB.WithContext(ctx).
		Model(&model.GatewayEvent{}).
		Where("gateway_event_id = ?", id).
		Updates(patch).Error
}

func (s *GormStore) ListGatewayEvents(ctx context.Context, f model.GatewayEventFilter) ([]model.GatewayEvent, int64, error) {
	db := s.DB.WithContext(ctx).Model(&model.GatewayEvent{})
	if p := strings.TrimSpace(f.Provider); p != "" {
		db = db.Where("gateway_event_provider = ?", strings.ToLower(p))
	}
	if st := strings.TrimSpace(f.Status); st != "" {
		db = db.Where("gateway_event_status = ?", strings.ToLower(st))
	}
	if oid := strings.TrimSpace(f.OrderID); oid != "" {
		db = db.Where("gateway_event_order_id = ?", oid)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.GatewayEvent
	if err := db.Order("gateway_event_received_at DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *GormStore) PurgeGatewayEvents(ctx context.Context, before time.Time, statuses []model.GatewayEventStatus) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).
		Where("gateway_event_received_at < ? AND gateway_event_status IN ?", before, statuses).
		Delete(&model.GatewayEvent{})
	return res.RowsAffected, res.Error
}

/* =========================================================
   Helpers
========================================================= */

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}
