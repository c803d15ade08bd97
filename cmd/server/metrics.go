package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the server's Prometheus collectors on a private registry.
type metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	extractions     *prometheus.CounterVec
	extractWarnings prometheus.Counter
	exports         *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coursewizard_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coursewizard_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	extractions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coursewizard_extractions_total",
		Help: "Document extractions by text method",
	}, []string{"method"})

	extractWarnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coursewizard_extraction_warnings_total",
		Help: "Degradations reported by document extractions",
	})

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coursewizard_exports_total",
		Help: "Rendered exports by format and outcome",
	}, []string{"format", "outcome"})

	registry.MustRegister(requestDuration, requestTotal, extractions, extractWarnings, exports,
		collectors.NewGoCollector())

	return &metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		extractions:     extractions,
		extractWarnings: extractWarnings,
		exports:         exports,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *metrics) Handler() http.Handler {
	return m.handler
}

// middleware records request count and latency. The route label is the
// matched mux pattern so path parameters do not explode cardinality.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(rw.status)
		m.requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

func (m *metrics) observeExtraction(method string, warnings int) {
	m.extractions.WithLabelValues(method).Inc()
	m.extractWarnings.Add(float64(warnings))
}

func (m *metrics) observeExport(format string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.exports.WithLabelValues(format, outcome).Inc()
}
