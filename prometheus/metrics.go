package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediscan/internal/model"
	"mediscan/pkg/config"
)

// Metrics owns every collector the service exports. Each instance has its own
// registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Search metrics
	SearchOutcomesTotal   *prometheus.CounterVec
	RemoteMatchDuration   *prometheus.HistogramVec
	StaleResponsesCounter prometheus.Counter

	// Session metrics
	ActiveSessionsGauge prometheus.Gauge

	// Catalog metrics
	CatalogItemsGauge *prometheus.GaugeVec
}

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) *Metrics {
	return New(config.Metrics.Prefix)
}

// New builds the collectors with the given metric name prefix
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HttpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HttpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		SearchOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_search_outcomes_total",
				Help: "Total number of searches by how the result set was produced",
			},
			[]string{"outcome"},
		),

		RemoteMatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_remote_match_duration_seconds",
				Help:    "Duration of remote matcher calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
			},
			[]string{"result"},
		),

		StaleResponsesCounter: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_stale_responses_total",
				Help: "Total number of remote matcher responses discarded because a newer search started",
			},
		),

		ActiveSessionsGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_active_sessions",
				Help: "Number of search sessions currently held in memory",
			},
		),

		CatalogItemsGauge: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "_catalog_items",
				Help: "Number of medicines in the loaded catalog",
			},
			[]string{"category"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest records one served HTTP request
func (m *Metrics) RecordRequest(method, path, status string, duration time.Duration) {
	m.HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// SearchCompleted increments the counter for the given outcome
func (m *Metrics) SearchCompleted(outcome string) {
	m.SearchOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RemoteMatchObserved records the latency of one remote matcher call
func (m *Metrics) RemoteMatchObserved(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RemoteMatchDuration.WithLabelValues(result).Observe(d.Seconds())
}

// StaleResponse counts a discarded remote matcher response
func (m *Metrics) StaleResponse() {
	m.StaleResponsesCounter.Inc()
}

// SetActiveSessions updates the session gauge
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessionsGauge.Set(float64(n))
}

// RecordCatalog publishes the per-category item counts
func (m *Metrics) RecordCatalog(counts map[model.Category]int) {
	for _, c := range model.Categories() {
		m.CatalogItemsGauge.WithLabelValues(c.Code()).Set(float64(counts[c]))
	}
}
