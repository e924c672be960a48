// Package metrics exposes Prometheus counters and gauges for the matching
// core.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every counter/gauge the engine updates. Construct one
// with New and register it with a prometheus.Registerer at startup.
type Metrics struct {
	OrdersAdmitted  *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	OrdersCancelled *prometheus.CounterVec
	TradesExecuted  *prometheus.CounterVec
	ActiveBooks     prometheus.Gauge
	ActiveConns     prometheus.Gauge
}

// New builds a Metrics bundle with an unregistered set of collectors.
func New() *Metrics {
	return &Metrics{
		OrdersAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "orders_admitted_total",
			Help:      "Number of orders accepted into a book, labeled by symbol.",
		}, []string{"symbol"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "orders_rejected_total",
			Help:      "Number of orders rejected at admission, labeled by reason.",
		}, []string{"reason"}),
		OrdersCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "orders_cancelled_total",
			Help:      "Number of successful cancellations, labeled by symbol.",
		}, []string{"symbol"}),
		TradesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "trades_executed_total",
			Help:      "Number of trades executed by the matcher, labeled by symbol.",
		}, []string{"symbol"}),
		ActiveBooks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchcore",
			Name:      "active_books",
			Help:      "Number of symbols registered in the book registry.",
		}),
		ActiveConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchcore",
			Name:      "active_connections",
			Help:      "Number of currently connected WebSocket clients.",
		}),
	}
}

// MustRegister registers every collector with reg, panicking on a
// duplicate-registration error the way prometheus's own MustRegister does.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.OrdersAdmitted,
		m.OrdersRejected,
		m.OrdersCancelled,
		m.TradesExecuted,
		m.ActiveBooks,
		m.ActiveConns,
	)
}
