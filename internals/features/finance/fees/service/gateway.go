// file: internals/features/finance/fees/service/gateway.go
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"schoolfee_backend/internals/features/finance/fees/model"
)

/* =========================================================
   Gateway contracts
========================================================= */

type OrderRequest struct {
	FeeID       uuid.UUID
	AmountMinor int64
	Receipt     string
	Description string
	Customer    CustomerInput
	Notes       map[string]string
}

type CustomerInput struct {
	FirstName string
	Email     string
	Phone     string
}

// OrderHandle is what the checkout page needs to open the gateway widget.
type OrderHandle struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	AmountPaid  int64  `json:"amount_paid"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt,omitempty"`
	Status      string `json:"status,omitempty"`
	Provider    string `json:"provider"`
	Token       string `json:"token,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type Gateway interface {
	Provider() string
	Currency() string
	// Exponent is the number of minor-unit digits the gateway expects (INR → 2, IDR → 0).
	Exponent() int32
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderHandle, error)
}

// OrderFetcher reads an order back from the gateway (server-side amount check).
type OrderFetcher interface {
	FetchOrder(ctx context.Context, orderID string) (*OrderHandle, error)
}

/* =========================================================
   Razorpay
========================================================= */

// RazorpayOrders is the slice of razorpay-go's client.Order we depend on.
type RazorpayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type RazorpayGateway struct {
	Orders   RazorpayOrders
	currency string
}

func NewRazorpayGateway(orders RazorpayOrders, currency string) *RazorpayGateway {
	if strings.TrimSpace(currency) == "" {
		currency = "INR"
	}
	return &RazorpayGateway{Orders: orders, currency: strings.ToUpper(currency)}
}

func (g *RazorpayGateway) Provider() string { return model.ProviderRazorpay }
func (g *RazorpayGateway) Currency() string { return g.currency }
func (g *RazorpayGateway) Exponent() int32  { return 2 }

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*OrderHandle, error) {
	data := map[string]interface{}{
		"amount":          req.AmountMinor,
		"currency":        g.currency,
		"receipt":         req.Receipt,
		"payment_capture": 1, // auto capture
	}
	if len(req.Notes) > 0 {
		notes := map[string]interface{}{}
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	body, err := callWithContext(ctx, func() (map[string]interface{}, error) {
		return g.Orders.Create(data, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay create order: %v", ErrGateway, err)
	}
	h := razorpayHandle(body)
	if h.ID == "" {
		return nil, fmt.Errorf("%w: razorpay returned an order without id", ErrGateway)
	}
	return h, nil
}

func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (*OrderHandle, error) {
	body, err := callWithContext(ctx, func() (map[string]interface{}, error) {
		return g.Orders.Fetch(orderID, nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay fetch order: %v", ErrGateway, err)
	}
	return razorpayHandle(body), nil
}

func razorpayHandle(body map[string]interface{}) *OrderHandle {
	return &OrderHandle{
		ID:         asString(body["id"]),
		Amount:     asInt64(body["amount"]),
		AmountPaid: asInt64(body["amount_paid"]),
		Currency:   asString(body["currency"]),
		Receipt:    asString(body["receipt"]),
		Status:     asString(body["status"]),
		Provider:   model.ProviderRazorpay,
	}
}

/* =========================================================
   Midtrans (Snap)
========================================================= */

type SnapCreator interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type MidtransGateway struct {
	Snap SnapCreator
}

func NewMidtransGateway(s SnapCreator) *MidtransGateway {
	return &MidtransGateway{Snap: s}
}

// NewSnapClient harus dipanggil saat bootstrap; useProduction=false untuk Sandbox.
func NewSnapClient(serverKey string, useProduction bool) *snap.Client {
	var c snap.Client
	if useProduction {
		c.New(serverKey, midtrans.Production)
	} else {
		c.New(serverKey, midtrans.Sandbox)
	}
	return &c
}

func (g *MidtransGateway) Provider() string { return model.ProviderMidtrans }
func (g *MidtransGateway) Currency() string { return "IDR" }
func (g *MidtransGateway) Exponent() int32  { return 0 }

func (g *MidtransGateway) CreateOrder(ctx context.Context, req OrderRequest) (*OrderHandle, error) {
	// Midtrans tidak membuat order id sendiri, pakai receipt sebagai order_id
	orderID := req.Receipt
	if orderID == "" {
		return nil, fmt.Errorf("%w: midtrans order id is required", ErrGateway)
	}

	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: req.AmountMinor,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.FirstName,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       orderID,
				Price:    req.AmountMinor,
				Qty:      1,
				Name:     truncate(defaultString(req.Description, "School Fee"), 50),
				Category: "FEE",
			},
		},
	}

	resp, err := callWithContext(ctx, func() (*snap.Response, error) {
		r, merr := g.Snap.CreateTransaction(sreq)
		if merr != nil {
			return nil, merr
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: midtrans create transaction: %v", ErrGateway, err)
	}

	return &OrderHandle{
		ID:          orderID,
		Amount:      req.AmountMinor,
		Currency:    g.Currency(),
		Receipt:     orderID,
		Status:      "created",
		Provider:    model.ProviderMidtrans,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

/* =========================================================
   Utils
========================================================= */

// callWithContext bounds a blocking SDK call by ctx; the SDK call itself keeps running
// in the background if ctx fires first.
func callWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t + 0.5)
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	default:
		return 0
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
