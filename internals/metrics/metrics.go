// file: internals/metrics/metrics.go
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_orders_created_total",
		Help: "Gateway orders requested for fee accounts.",
	}, []string{"provider", "result"})

	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_reconciliations_total",
		Help: "Payment confirmations processed by the reconciler.",
	}, []string{"source", "result"})

	SignatureFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_signature_failures_total",
		Help: "Requests rejected because the gateway signature did not match.",
	}, []string{"path"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_notifications_failed_total",
		Help: "Best-effort notifications that failed and were dropped.",
	}, []string{"channel"})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fee_realtime_clients",
		Help: "Websocket subscribers currently attached to this instance.",
	})

	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fee_realtime_dropped_clients_total",
		Help: "Subscribers disconnected because their send buffer was full.",
	})
)

// Handler exposes the default registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
