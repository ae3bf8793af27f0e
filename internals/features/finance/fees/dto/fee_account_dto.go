// file: internals/features/finance/fees/dto/fee_account_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"schoolfee_backend/internals/features/finance/fees/model"
)

type PaymentEntryResponse struct {
	PaymentEntryID            uuid.UUID           `json:"payment_entry_id"`
	PaymentEntryAmount        decimal.Decimal     `json:"payment_entry_amount"`
	PaymentEntryPaidAt        time.Time           `json:"payment_entry_paid_at"`
	PaymentEntryMethod        model.PaymentMethod `json:"payment_entry_method"`
	PaymentEntryTransactionID string              `json:"payment_entry_transaction_id,omitempty"`
	PaymentEntryStatus        model.EntryStatus   `json:"payment_entry_status"`
	PaymentEntryOrderID       string              `json:"payment_entry_order_id"`
	PaymentEntryPaymentID     string              `json:"payment_entry_payment_id"`
	PaymentEntryProvider      string              `json:"payment_entry_provider,omitempty"`
	PaymentEntrySource        model.EntrySource   `json:"payment_entry_source,omitempty"`
}

type ActiveOrderResponse struct {
	OrderID     *string `json:"order_id,omitempty"`
	PaymentID   *string `json:"payment_id,omitempty"`
	Method      *string `json:"method,omitempty"`
	Provider    *string `json:"provider,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	AmountMinor *int64  `json:"amount_minor,omitempty"`
	Captured    bool    `json:"captured"`
}

type FeeAccountResponse struct {
	FeeAccountID              uuid.UUID       `json:"fee_account_id"`
	FeeAccountStudentID       uuid.UUID       `json:"fee_account_student_id"`
	FeeAccountStudentName     *string         `json:"fee_account_student_name,omitempty"`
	FeeAccountAdmissionNumber *string         `json:"fee_account_admission_number,omitempty"`
	FeeAccountSemester        *int            `json:"fee_account_semester,omitempty"`
	FeeAccountAcademicYear    *string         `json:"fee_account_academic_year,omitempty"`
	FeeAccountTotalOwed       decimal.Decimal `json:"fee_account_total_owed"`
	FeeAccountPaidAmount      decimal.Decimal `json:"fee_account_paid_amount"`
	FeeAccountPendingAmount   decimal.Decimal `json:"fee_account_pending_amount"`
	FeeAccountStatus          model.FeeStatus `json:"fee_account_status"`
	FeeAccountDueDate         *time.Time      `json:"fee_account_due_date,omitempty"`

	FeeAccountActiveOrder ActiveOrderResponse    `json:"fee_account_active_order"`
	PaymentEntries        []PaymentEntryResponse `json:"fee_account_payment_entries"`

	FeeAccountUpdatedAt time.Time `json:"fee_account_updated_at"`
}

func FromModel(m *model.FeeAccount) *FeeAccountResponse {
	if m == nil {
		return nil
	}
	ao := m.FeeAccountActiveOrder
	out := &FeeAccountResponse{
		FeeAccountID:              m.FeeAccountID,
		FeeAccountStudentID:       m.FeeAccountStudentID,
		FeeAccountStudentName:     m.FeeAccountStudentName,
		FeeAccountAdmissionNumber: m.FeeAccountAdmissionNumber,
		FeeAccountSemester:        m.FeeAccountSemester,
		FeeAccountAcademicYear:    m.FeeAccountAcademicYear,
		FeeAccountTotalOwed:       m.FeeAccountTotalOwed,
		FeeAccountPaidAmount:      m.FeeAccountPaidAmount,
		FeeAccountPendingAmount:   m.FeeAccountPendingAmount,
		FeeAccountStatus:          m.FeeAccountStatus,
		FeeAccountDueDate:         m.FeeAccountDueDate,
		FeeAccountActiveOrder: ActiveOrderResponse{
			OrderID:     ao.OrderID,
			PaymentID:   ao.PaymentID,
			Method:      ao.Method,
			Provider:    ao.Provider,
			Currency:    ao.Currency,
			AmountMinor: ao.AmountMinor,
			Captured:    ao.Captured,
		},
		PaymentEntries:      make([]PaymentEntryResponse, 0, len(m.Entries)),
		FeeAccountUpdatedAt: m.FeeAccountUpdatedAt,
	}
	for _, e := range m.Entries {
		out.PaymentEntries = append(out.PaymentEntries, PaymentEntryResponse{
			PaymentEntryID:            e.PaymentEntryID,
			PaymentEntryAmount:        e.PaymentEntryAmount,
			PaymentEntryPaidAt:        e.PaymentEntryPaidAt,
			PaymentEntryMethod:        e.PaymentEntryMethod,
			PaymentEntryTransactionID: e.PaymentEntryTransactionID,
			PaymentEntryStatus:        e.PaymentEntryStatus,
			PaymentEntryOrderID:       e.PaymentEntryOrderID,
			PaymentEntryPaymentID:     e.PaymentEntryPaymentID,
			PaymentEntryProvider:      e.PaymentEntryProvider,
			PaymentEntrySource:        e.PaymentEntrySource,
		})
	}
	return out
}

func FromModels(rows []model.FeeAccount) []FeeAccountResponse {
	out := make([]FeeAccountResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// FeeAccountQuery: ?status=&outstanding=&page=&per_page=
type FeeAccountQuery struct {
	Status      string `query:"status" validate:"omitempty,oneof=pending partial paid overdue"`
	Outstanding bool   `query:"outstanding"`
}

func (q FeeAccountQuery) ToFilter(offset, limit int) model.FeeAccountFilter {
	return model.FeeAccountFilter{
		Status:      model.FeeStatus(q.Status),
		Outstanding: q.Outstanding,
		Offset:      offset,
		Limit:       limit,
	}
}
