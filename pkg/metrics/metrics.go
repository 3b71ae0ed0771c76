// Package metrics holds the Prometheus collectors for searches, unlocks,
// event publishing and HTTP traffic, registered on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cardna"

// Search outcomes.
const (
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeIncomplete  = "incomplete"
	OutcomeRateLimited = "rate_limited"
	OutcomeCanceled    = "canceled"
)

// SearchBuckets cover the simulated analysis delay.
var SearchBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 0.8, 1, 1.5, 2.5, 5}

// Metrics is the set of collectors the service records into.
type Metrics struct {
	Registry *prometheus.Registry

	Searches        *prometheus.CounterVec
	SearchDuration  prometheus.Histogram
	Unlocks         *prometheus.CounterVec
	QuickFinds      *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
	CatalogProfiles prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Profile searches by outcome.",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time to answer a profile search, including the analysis delay.",
			Buckets:   SearchBuckets,
		}),
		Unlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "premium_unlocks_total",
			Help:      "Simulated premium purchases by brand.",
		}, []string{"brand"}),
		QuickFinds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quickfind_total",
			Help:      "Free-text quick find queries by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker, by type and result.",
		}, []string{"type", "result"}),
		CatalogProfiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_profiles",
			Help:      "Engine profiles in the loaded catalog.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Searches,
		m.SearchDuration,
		m.Unlocks,
		m.QuickFinds,
		m.EventsPublished,
		m.CatalogProfiles,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// ObserveSearch records one search.
func (m *Metrics) ObserveSearch(outcome string, d time.Duration) {
	m.Searches.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(d.Seconds())
}

// ObserveHTTP records one served request. Its signature matches
// mid.ObserveFunc.
func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
