// file: internals/features/finance/fees/model/enum_model.go
package model

import "strings"

type FeeStatus string
type PaymentMethod string
type EntryStatus string
type EntrySource string
type GatewayEventStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPartial FeeStatus = "partial"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusOverdue FeeStatus = "overdue" // hanya di-set job eksternal (due date)
)

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCheck      PaymentMethod = "check"
	PaymentMethodOnline     PaymentMethod = "online"
	PaymentMethodTransfer   PaymentMethod = "transfer"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetbanking PaymentMethod = "netbanking"
)

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
)

const (
	EntrySourceClient       EntrySource = "client"
	EntrySourceWebhook      EntrySource = "webhook"
	EntrySourceNotification EntrySource = "notification"
)

const (
	GatewayEventReceived  GatewayEventStatus = "received"
	GatewayEventProcessed GatewayEventStatus = "processed"
	GatewayEventIgnored   GatewayEventStatus = "ignored"
	GatewayEventRejected  GatewayEventStatus = "rejected"
	GatewayEventFailed    GatewayEventStatus = "failed"
)

const (
	ProviderRazorpay = "razorpay"
	ProviderMidtrans = "midtrans"
)

var paymentMethods = map[PaymentMethod]struct{}{
	PaymentMethodCash:       {},
	PaymentMethodCheck:      {},
	PaymentMethodOnline:     {},
	PaymentMethodTransfer:   {},
	PaymentMethodCard:       {},
	PaymentMethodUPI:        {},
	PaymentMethodNetbanking: {},
}

// gateway payment types yang punya padanan langsung
var gatewayMethodAliases = map[string]PaymentMethod{
	"credit_card":   PaymentMethodCard,
	"debit_card":    PaymentMethodCard,
	"bank_transfer": PaymentMethodTransfer,
	"echannel":      PaymentMethodTransfer,
	"permata_va":    PaymentMethodTransfer,
	"cstore":        PaymentMethodCash,
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentMethods[m]
	return ok
}

// NormalizePaymentMethod maps whatever the client or gateway reports onto the ledger's method set.
// Empty or unknown values (wallet, emi, gopay, ...) become "online".
func NormalizePaymentMethod(raw string) PaymentMethod {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return PaymentMethodOnline
	}
	if m := PaymentMethod(s); m.Valid() {
		return m
	}
	if m, ok := gatewayMethodAliases[s]; ok {
		return m
	}
	return PaymentMethodOnline
}
