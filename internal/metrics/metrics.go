// Package metrics exposes Prometheus instrumentation for a crawl.
//
// Every crawl gets its own registry so that two crawls in one process never
// share counters. A command-line run has no scrape endpoint; the registry is
// written in the node_exporter textfile format when the crawl ends.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mailcrawl"

// Fetch outcomes used as the "outcome" label value.
const (
	OutcomeOK        = "ok"
	OutcomeHTTPError = "http_error"
	OutcomeFailed    = "failed"
	OutcomeOffSite   = "off_site"
)

// Metrics holds the collectors for one crawl.
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pagesFetched  *prometheus.CounterVec
	emailsFound   prometheus.Counter
	frontierSize  prometheus.Gauge
	fetchDuration prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Pages processed by the crawler, by fetch outcome.",
		}, []string{"outcome"}),
		emailsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_found_total",
			Help:      "Distinct email addresses recorded.",
		}),
		frontierSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_size",
			Help:      "URLs discovered but not yet fetched.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching a page, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	m.registry.MustRegister(m.pagesFetched, m.emailsFound, m.frontierSize, m.fetchDuration)
	return m
}

// ObserveFetch records one processed page.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.pagesFetched.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// IncEmails records one newly recorded email address.
func (m *Metrics) IncEmails() {
	if m == nil {
		return
	}
	m.emailsFound.Inc()
}

// SetFrontier records the current frontier size.
func (m *Metrics) SetFrontier(n int) {
	if m == nil {
		return
	}
	m.frontierSize.Set(float64(n))
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes the current values to path in the Prometheus text
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
