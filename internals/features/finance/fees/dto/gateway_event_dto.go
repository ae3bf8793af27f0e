// file: internals/features/finance/fees/dto/gateway_event_dto.go
package dto

import (
	"strings"

	"schoolfee_backend/internals/features/finance/fees/model"
)

// GatewayEventQuery: ?provider=&status=&order_id=&page=&per_page=
type GatewayEventQuery struct {
	Provider string `query:"provider" validate:"omitempty,oneof=razorpay midtrans"`
	Status   string `query:"status" validate:"omitempty,oneof=received processed ignored rejected failed"`
	OrderID  string `query:"order_id" validate:"omitempty,max=64"`
}

func (q GatewayEventQuery) ToFilter(offset, limit int) model.GatewayEventFilter {
	return model.GatewayEventFilter{
		Provider: strings.ToLower(strings.TrimSpace(q.Provider)),
		Status:   strings.ToLower(strings.TrimSpace(q.Status)),
		OrderID:  strings.TrimSpace(q.OrderID),
		Offset:   offset,
		Limit:    limit,
	}
}
