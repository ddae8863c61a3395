package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests          *prometheus.CounterVec
	LatencyMS         *prometheus.HistogramVec
	OrdersPlaced      *prometheus.CounterVec
	CartClearFailures prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewServerMetrics registers the storefront collectors on a private registry so
// that several servers can live in one process (tests).
func NewServerMetrics() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Order placements by outcome (created, replayed).",
	}, []string{"outcome"})
	clearFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "cart_clear_failures_total",
		Help:      "Carts left behind after an order because clearing failed on every retry.",
	})

	reg.MustRegister(requests, latency, placed, clearFailures)
	return &ServerMetrics{
		Requests:          requests,
		LatencyMS:         latency,
		OrdersPlaced:      placed,
		CartClearFailures: clearFailures,
		gatherer:          reg,
	}
}

func (m *ServerMetrics) OrderPlaced(outcome string) {
	m.OrdersPlaced.WithLabelValues(outcome).Inc()
}

func (m *ServerMetrics) CartClearFailed() {
	m.CartClearFailures.Inc()
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
