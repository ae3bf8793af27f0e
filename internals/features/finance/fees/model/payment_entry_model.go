// file: internals/features/finance/fees/model/payment_entry_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/*
  fee_payment_entries = LEDGER (append-only)
  - Satu row per pembayaran yang tercatat.
  - (fee_account_id, order_id, payment_id) unik → kunci idempotensi
    untuk webhook yang dikirim ulang oleh gateway.
*/

type PaymentEntry struct {
	PaymentEntryID           uuid.UUID `gorm:"column:payment_entry_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_entry_id"`
	PaymentEntryFeeAccountID uuid.UUID `gorm:"column:payment_entry_fee_account_id;type:uuid;not null;uniqueIndex:uq_payment_entry_gateway,priority:1" json:"payment_entry_fee_account_id"`

	PaymentEntryAmount        decimal.Decimal `gorm:"column:payment_entry_amount;type:numeric(14,2);not null" json:"payment_entry_amount"`
	PaymentEntryPaidAt        time.Time       `gorm:"column:payment_entry_paid_at;not null" json:"payment_entry_paid_at"`
	PaymentEntryMethod        PaymentMethod   `gorm:"column:payment_entry_method;type:varchar(20);not null" json:"payment_entry_method"`
	PaymentEntryTransactionID string          `gorm:"column:payment_entry_transaction_id" json:"payment_entry_transaction_id,omitempty"`
	PaymentEntryStatus        EntryStatus     `gorm:"column:payment_entry_status;type:varchar(20);not null" json:"payment_entry_status"`
	PaymentEntryRemarks       *string         `gorm:"column:payment_entry_remarks" json:"payment_entry_remarks,omitempty"`

	// korelasi gateway
	PaymentEntryOrderID   string      `gorm:"column:payment_entry_order_id;not null;uniqueIndex:uq_payment_entry_gateway,priority:2" json:"payment_entry_order_id"`
	PaymentEntryPaymentID string      `gorm:"column:payment_entry_payment_id;not null;uniqueIndex:uq_payment_entry_gateway,priority:3" json:"payment_entry_payment_id"`
	PaymentEntrySignature string      `gorm:"column:payment_entry_signature" json:"-"`
	PaymentEntryProvider  string      `gorm:"column:payment_entry_provider;type:varchar(20)" json:"payment_entry_provider,omitempty"`
	PaymentEntrySource    EntrySource `gorm:"column:payment_entry_source;type:varchar(20)" json:"payment_entry_source,omitempty"`

	PaymentEntryCreatedAt time.Time `gorm:"column:payment_entry_created_at;autoCreateTime" json:"payment_entry_created_at"`
}

func (PaymentEntry) TableName() string { return "fee_payment_entries" }
