package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Components treat
// a nil *Metrics as "metrics disabled" so tests can skip registration.
type Metrics struct {
	InvoicesCreated    prometheus.Counter
	InvoicesSubmitted  prometheus.Counter
	PaymentsProcessed  *prometheus.CounterVec
	CacheInvalidations prometheus.Counter
	AuthorityCheckMs   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
// Call once per process.
func New() *Metrics {
	return &Metrics{
		InvoicesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "procurement_invoices_created_total",
			Help: "Total number of invoices created",
		}),
		InvoicesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "procurement_invoices_submitted_total",
			Help: "Total number of invoices advanced to submitted",
		}),
		PaymentsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "procurement_payments_processed_total",
			Help: "Payment settlement attempts by outcome status",
		}, []string{"status"}),
		CacheInvalidations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "procurement_dashboard_invalidations_total",
			Help: "Dashboard cache invalidations triggered by committed mutations",
		}),
		AuthorityCheckMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "procurement_authority_check_duration_ms",
			Help:    "Latency of external authority calls in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"authority"}),
	}
}

// ObserveAuthorityCheck records one authority call's latency. Safe on nil.
func (m *Metrics) ObserveAuthorityCheck(authority string, d time.Duration) {
	if m == nil {
		return
	}
	m.AuthorityCheckMs.WithLabelValues(authority).Observe(float64(d.Microseconds()) / 1000.0)
}

// IncPaymentsProcessed counts one settlement attempt by status. Safe on nil.
func (m *Metrics) IncPaymentsProcessed(status string) {
	if m == nil {
		return
	}
	m.PaymentsProcessed.WithLabelValues(status).Inc()
}

// IncInvoicesCreated counts one created invoice. Safe on nil.
func (m *Metrics) IncInvoicesCreated() {
	if m == nil {
		return
	}
	m.InvoicesCreated.Inc()
}

// IncInvoicesSubmitted counts one submission. Safe on nil.
func (m *Metrics) IncInvoicesSubmitted() {
	if m == nil {
		return
	}
	m.InvoicesSubmitted.Inc()
}

// IncCacheInvalidations counts one dashboard invalidation. Safe on nil.
func (m *Metrics) IncCacheInvalidations() {
	if m == nil {
		return
	}
	m.CacheInvalidations.Inc()
}
