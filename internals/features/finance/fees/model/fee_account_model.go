// file: internals/features/finance/fees/model/fee_account_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* =========================================================
   ACTIVE ORDER (embedded)
   Order gateway yang sedang berjalan untuk satu fee account.
   Ditimpa setiap kali create-order, bukan histori.
========================================================= */

type ActiveOrder struct {
	OrderID     *string    `gorm:"column:order_id;index:ix_fee_account_active_order" json:"order_id,omitempty"`
	PaymentID   *string    `gorm:"column:payment_id" json:"payment_id,omitempty"`
	Signature   *string    `gorm:"column:signature" json:"-"`
	Method      *string    `gorm:"column:method" json:"method,omitempty"`
	Provider    *string    `gorm:"column:provider;type:varchar(20)" json:"provider,omitempty"`
	Currency    *string    `gorm:"column:currency;type:varchar(8)" json:"currency,omitempty"`
	AmountMinor *int64     `gorm:"column:amount_minor" json:"amount_minor,omitempty"`
	Captured    bool       `gorm:"column:captured;not null;default:false" json:"captured"`
	CreatedAt   *time.Time `gorm:"column:created_at" json:"created_at,omitempty"`
}

func (o ActiveOrder) Matches(orderID string) bool {
	return o.OrderID != nil && orderID != "" && *o.OrderID == orderID
}

/* =========================================================
   FEE ACCOUNT
========================================================= */

type FeeAccount struct {
	FeeAccountID uuid.UUID `gorm:"column:fee_account_id;type:uuid;default:gen_random_uuid();primaryKey" json:"fee_account_id"`

	FeeAccountStudentID       uuid.UUID `gorm:"column:fee_account_student_id;type:uuid;not null;index:ix_fee_account_student" json:"fee_account_student_id"`
	FeeAccountStudentName     *string   `gorm:"column:fee_account_student_name_snapshot" json:"fee_account_student_name,omitempty"`
	FeeAccountAdmissionNumber *string   `gorm:"column:fee_account_admission_number;type:varchar(40)" json:"fee_account_admission_number,omitempty"`
	FeeAccountSemester        *int      `gorm:"column:fee_account_semester" json:"fee_account_semester,omitempty"`
	FeeAccountAcademicYear    *string   `gorm:"column:fee_account_academic_year;type:varchar(20)" json:"fee_account_academic_year,omitempty"`

	// Nominal (major units, mis. rupee)
	FeeAccountTotalOwed     decimal.Decimal `gorm:"column:fee_account_total_owed;type:numeric(14,2);not null" json:"fee_account_total_owed"`
	FeeAccountPaidAmount    decimal.Decimal `gorm:"column:fee_account_paid_amount;type:numeric(14,2);not null;default:0" json:"fee_account_paid_amount"`
	FeeAccountPendingAmount decimal.Decimal `gorm:"column:fee_account_pending_amount;type:numeric(14,2);not null" json:"fee_account_pending_amount"`

	FeeAccountStatus  FeeStatus  `gorm:"column:fee_account_status;type:varchar(20);not null;default:'pending';index:ix_fee_account_status" json:"fee_account_status"`
	FeeAccountDueDate *time.Time `gorm:"column:fee_account_due_date" json:"fee_account_due_date,omitempty"`

	FeeAccountActiveOrder ActiveOrder `gorm:"embedded;embeddedPrefix:fee_account_active_order_" json:"fee_account_active_order"`

	FeeAccountLastReminderSentAt *time.Time `gorm:"column:fee_account_last_reminder_sent_at" json:"fee_account_last_reminder_sent_at,omitempty"`
	FeeAccountIsActive           bool       `gorm:"column:fee_account_is_active;not null;default:true" json:"fee_account_is_active"`

	// optimistic concurrency, naik 1 setiap mutasi ledger
	FeeAccountVersion int64 `gorm:"column:fee_account_version;not null;default:0" json:"fee_account_version"`

	FeeAccountCreatedAt time.Time      `gorm:"column:fee_account_created_at;autoCreateTime" json:"fee_account_created_at"`
	FeeAccountUpdatedAt time.Time      `gorm:"column:fee_account_updated_at;autoUpdateTime" json:"fee_account_updated_at"`
	FeeAccountDeletedAt gorm.DeletedAt `gorm:"column:fee_account_deleted_at;index" json:"-"`

	Entries []PaymentEntry `gorm:"foreignKey:PaymentEntryFeeAccountID;references:FeeAccountID" json:"fee_account_payment_entries"`
}

func (FeeAccount) TableName() string { return "fee_accounts" }

// FeeAccountFilter: listing admin. Outstanding = pending_amount > 0.
type FeeAccountFilter struct {
	Status      FeeStatus
	Outstanding bool
	Offset      int
	Limit       int
}

/* =========================================================
   PAYMENT EVENT (input transisi)
========================================================= */

// PaymentEvent is a verified payment confirmation, already resolved to major units.
type PaymentEvent struct {
	OrderID       string
	PaymentID     string
	Signature     string
	TransactionID string
	Amount        decimal.Decimal
	Method        PaymentMethod
	Provider      string
	Source        EntrySource
	OccurredAt    time.Time
}

/* =========================================================
   TRANSITION
========================================================= */

// HasPayment reports whether (orderID, paymentID) is already on the ledger.
func (a *FeeAccount) HasPayment(orderID, paymentID string) bool {
	for i := range a.Entries {
		e := &a.Entries[i]
		if e.PaymentEntryOrderID == orderID && e.PaymentEntryPaymentID == paymentID {
			return true
		}
	}
	return false
}

// ApplyPayment appends a completed entry for ev and recomputes the aggregates.
// Returns false without touching the account when the payment is already recorded.
func (a *FeeAccount) ApplyPayment(ev PaymentEvent) (PaymentEntry, bool) {
	if a.HasPayment(ev.OrderID, ev.PaymentID) {
		return PaymentEntry{}, false
	}

	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	txID := strings.TrimSpace(ev.PaymentID)
	if txID == "" {
		txID = strings.TrimSpace(ev.TransactionID)
	}
	method := ev.Method
	if !method.Valid() {
		method = PaymentMethodOnline
	}

	entry := PaymentEntry{
		PaymentEntryID:            uuid.New(),
		PaymentEntryFeeAccountID:  a.FeeAccountID,
		PaymentEntryAmount:        ev.Amount,
		PaymentEntryPaidAt:        occurred,
		PaymentEntryMethod:        method,
		PaymentEntryTransactionID: txID,
		PaymentEntryStatus:        EntryStatusCompleted,
		PaymentEntryOrderID:       ev.OrderID,
		PaymentEntryPaymentID:     ev.PaymentID,
		PaymentEntrySignature:     ev.Signature,
		PaymentEntryProvider:      ev.Provider,
		PaymentEntrySource:        ev.Source,
	}
	a.Entries = append(a.Entries, entry)

	a.FeeAccountPaidAmount = a.FeeAccountPaidAmount.Add(ev.Amount)
	a.RecomputeAggregates()

	// tandai order aktif sudah ter-capture
	ao := &a.FeeAccountActiveOrder
	if !ao.Matches(ev.OrderID) {
		orderID := ev.OrderID
		ao.OrderID = &orderID
		ao.AmountMinor = nil
	}
	paymentID := ev.PaymentID
	ao.PaymentID = &paymentID
	if ev.Signature != "" {
		sig := ev.Signature
		ao.Signature = &sig
	}
	m := string(method)
	ao.Method = &m
	if ev.Provider != "" {
		p := ev.Provider
		ao.Provider = &p
	}
	ao.Captured = true

	return entry, true
}

// RecomputeAggregates derives pending amount and status from total owed and paid amount.
func (a *FeeAccount) RecomputeAggregates() {
	pending := a.FeeAccountTotalOwed.Sub(a.FeeAccountPaidAmount)
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	a.FeeAccountPendingAmount = pending
	a.FeeAccountStatus = DeriveStatus(a.FeeAccountPaidAmount, pending)
}

// DeriveStatus never yields overdue; that one belongs to the due-date job.
func DeriveStatus(paid, pending decimal.Decimal) FeeStatus {
	switch {
	case pending.Sign() <= 0:
		return FeeStatusPaid
	case paid.Sign() > 0:
		return FeeStatusPartial
	default:
		return FeeStatusPending
	}
}

// CompletedTotal sums completed entries.
func (a *FeeAccount) CompletedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range a.Entries {
		if e.PaymentEntryStatus == EntryStatusCompleted {
			total = total.Add(e.PaymentEntryAmount)
		}
	}
	return total
}

// Clone returns a deep copy (entries + pointer fields of the active order).
func (a *FeeAccount) Clone() *FeeAccount {
	cp := *a
	cp.Entries = append([]PaymentEntry(nil), a.Entries...)
	ao := a.FeeAccountActiveOrder
	cp.FeeAccountActiveOrder = ActiveOrder{
		OrderID:     clonePtr(ao.OrderID),
		PaymentID:   clonePtr(ao.PaymentID),
		Signature:   clonePtr(ao.Signature),
		Method:      clonePtr(ao.Method),
		Provider:    clonePtr(ao.Provider),
		Currency:    clonePtr(ao.Currency),
		AmountMinor: clonePtr(ao.AmountMinor),
		Captured:    ao.Captured,
		CreatedAt:   clonePtr(ao.CreatedAt),
	}
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

/* =========================================================
   HOOKS
========================================================= */

func (a *FeeAccount) BeforeCreate(tx *gorm.DB) error {
	if a.FeeAccountID == uuid.Nil {
		a.FeeAccountID = uuid.New()
	}
	a.RecomputeAggregates()
	return nil
}
