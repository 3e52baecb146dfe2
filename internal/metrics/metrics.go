// Package metrics exposes prometheus collectors for solves and HTTP traffic
// on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "packopt"

// Collector records solve outcomes and request statistics.
type Collector struct {
	registry *prometheus.Registry

	solvesTotal      *prometheus.CounterVec
	solveDuration    *prometheus.HistogramVec
	solveIterations  prometheus.Histogram
	modelErrors      prometheus.Counter
	requestsTotal    *prometheus.CounterVec
	requestDurations *prometheus.HistogramVec
}

// NewCollector creates the collectors and registers them, together with the
// Go runtime and process collectors, on a fresh registry.
func NewCollector() *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		solvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_total",
				Help:      "Finished solves by outcome and separation mode.",
			},
			[]string{"outcome", "separation"},
		),
		solveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Wall time of a solve.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"outcome"},
		),
		solveIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_iterations",
				Help:      "Iterations recorded per solve.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 13),
			},
		),
		modelErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_errors_total",
				Help:      "Problems rejected before solving.",
			},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		requestDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Time spent serving HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		m.solvesTotal,
		m.solveDuration,
		m.solveIterations,
		m.modelErrors,
		m.requestsTotal,
		m.requestDurations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSolve records one finished solve.
func (m *Collector) ObserveSolve(outcome, separation string, duration time.Duration, iterations int) {
	m.solvesTotal.WithLabelValues(outcome, separation).Inc()
	m.solveDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.solveIterations.Observe(float64(iterations))
}

// ObserveModelError records a problem rejected before solving.
func (m *Collector) ObserveModelError() {
	m.modelErrors.Inc()
}

// RecordRequest records one served HTTP request.
func (m *Collector) RecordRequest(route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDurations.WithLabelValues(route).Observe(duration.Seconds())
}

// Registry returns the registry the collectors live on.
func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
