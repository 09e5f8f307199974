package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Write results.
const (
	ResultCreated   = "created"
	ResultUpdated   = "updated"
	ResultRejected  = "rejected"
	ResultConflict  = "conflict"
	ResultStoreDown = "unavailable"
)

// Metrics holds all Prometheus metrics for the registry service
type Metrics struct {
	Appends       *prometheus.CounterVec
	Updates       *prometheus.CounterVec
	Renders       *prometheus.CounterVec
	StoreErrors   *prometheus.CounterVec
	RequestLength *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
// Each server gets its own registry so tests can run in parallel.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Appends: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_appends_total",
			Help: "Append attempts by result",
		}, []string{"result"}),
		Updates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_updates_total",
			Help: "Update attempts by result",
		}, []string{"result"}),
		Renders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_renders_total",
			Help: "Registry renders served by protocol version",
		}, []string{"protocol"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_store_errors_total",
			Help: "Store failures by kind (unavailable, duplicate_position)",
		}, []string{"kind"}),
		RequestLength: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roster_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) IncrementAppends(result string) {
	m.Appends.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementUpdates(result string) {
	m.Updates.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementRenders(protocol string) {
	m.Renders.WithLabelValues(protocol).Inc()
}

func (m *Metrics) IncrementStoreErrors(kind string) {
	m.StoreErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRequest(route, code string, seconds float64) {
	m.RequestLength.WithLabelValues(route, code).Observe(seconds)
}
