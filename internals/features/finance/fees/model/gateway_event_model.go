// file: internals/features/finance/fees/model/gateway_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/*
  fee_gateway_events = LOG WEBHOOK / NOTIFICATION dari payment gateway
  - Bisa banyak row per 1 order (tiap delivery / retry).
  - Simpan raw payload + headers + signature buat debug / replay.
*/

type GatewayEvent struct {
	GatewayEventID           uuid.UUID  `gorm:"column:gateway_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_event_id"`
	GatewayEventFeeAccountID *uuid.UUID `gorm:"column:gateway_event_fee_account_id;type:uuid;index" json:"gateway_event_fee_account_id,omitempty"`

	GatewayEventProvider  string  `gorm:"column:gateway_event_provider;type:varchar(20);not null" json:"gateway_event_provider"`
	GatewayEventType      *string `gorm:"column:gateway_event_type" json:"gateway_event_type,omitempty"`
	GatewayEventOrderID   *string `gorm:"column:gateway_event_order_id;index" json:"gateway_event_order_id,omitempty"`
	GatewayEventPaymentID *string `gorm:"column:gateway_event_payment_id" json:"gateway_event_payment_id,omitempty"`

	GatewayEventHeaders   datatypes.JSON `gorm:"column:gateway_event_headers;type:jsonb" json:"gateway_event_headers,omitempty"`
	GatewayEventPayload   datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload,omitempty"`
	GatewayEventSignature *string        `gorm:"column:gateway_event_signature" json:"gateway_event_signature,omitempty"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(20);not null;default:'received';index" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`
}

func (GatewayEvent) TableName() string { return "fee_gateway_events" }

type GatewayEventFilter struct {
	Provider string
	Status   string
	OrderID  string
	Offset   int
	Limit    int
}
