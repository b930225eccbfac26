// Package metrics exposes Prometheus collectors for report building and
// upstream traffic. All collectors live on a private registry so tests and
// multiple servers in one process never collide.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "golden_hour"

// Report sources.
const (
	SourceCache = "cache"
	SourceBuilt = "built"
	SourceError = "error"
)

// Upstream results.
const (
	ResultOK          = "ok"
	ResultRetried     = "retried"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Reports       *prometheus.CounterVec
	Predictions   *prometheus.CounterVec
	Upstream      *prometheus.CounterVec
	BuildDuration prometheus.Histogram
}

// New builds the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      "reports_total",
				Help:      "Reports served, by where they came from",
			},
			[]string{"source"}, // cache, built, error
		),
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      "afterglow_predictions_total",
				Help:      "Afterglow predictions produced, by window and quality level",
			},
			[]string{"period", "quality"},
		),
		Upstream: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      "upstream_requests_total",
				Help:      "Requests sent to the weather provider, by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "report_build_duration_seconds",
			Help:      "Time spent building a report, upstream calls included",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	m.registry.MustRegister(
		m.Reports,
		m.Predictions,
		m.Upstream,
		m.BuildDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ReportServed(source string) {
	if m == nil {
		return
	}
	m.Reports.WithLabelValues(source).Inc()
}

func (m *Metrics) AfterglowPredicted(period, quality string) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(period, quality).Inc()
}

func (m *Metrics) UpstreamRequest(endpoint, result string) {
	if m == nil {
		return
	}
	m.Upstream.WithLabelValues(endpoint, result).Inc()
}

func (m *Metrics) ObserveBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
}
