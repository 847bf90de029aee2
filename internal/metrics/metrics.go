// Package metrics exposes Prometheus instrumentation for both services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CatalogMetrics counts stock engine activity.
type CatalogMetrics struct {
	Reservations *prometheus.CounterVec
	Releases     prometheus.Counter
}

// NewCatalogMetrics registers the catalog collectors on reg.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	m := &CatalogMetrics{
		Reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: "catalog",
			Name:      "stock_reservations_total",
			Help:      "Total number of stock reservation attempts.",
		}, []string{"outcome"}),
		Releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: "catalog",
			Name:      "stock_releases_total",
			Help:      "Total number of committed stock releases.",
		}),
	}
	reg.MustRegister(m.Reservations, m.Releases)
	return m
}

// ReservationOutcome records one reservation attempt. Nil-safe so services
// can run without metrics wired.
func (m *CatalogMetrics) ReservationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Reservations.WithLabelValues(outcome).Inc()
}

func (m *CatalogMetrics) ReleaseCommitted() {
	if m == nil {
		return
	}
	m.Releases.Inc()
}

// OrderMetrics counts orchestration outcomes.
type OrderMetrics struct {
	Orders           *prometheus.CounterVec
	Compensations    *prometheus.CounterVec
	PlaceOrderTimeMS prometheus.Histogram
}

// NewOrderMetrics registers the order collectors on reg.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total number of PlaceOrder calls by terminal outcome.",
		}, []string{"outcome"}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: "orders",
			Name:      "compensations_total",
			Help:      "Total number of compensating stock releases by outcome.",
		}, []string{"outcome"}),
		PlaceOrderTimeMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quickcart",
			Subsystem: "orders",
			Name:      "place_order_duration_ms",
			Help:      "PlaceOrder latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
	}
	reg.MustRegister(m.Orders, m.Compensations, m.PlaceOrderTimeMS)
	return m
}

func (m *OrderMetrics) OrderOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Orders.WithLabelValues(outcome).Inc()
}

func (m *OrderMetrics) CompensationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(outcome).Inc()
}

func (m *OrderMetrics) ObservePlaceOrderMS(ms float64) {
	if m == nil {
		return
	}
	m.PlaceOrderTimeMS.Observe(ms)
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
