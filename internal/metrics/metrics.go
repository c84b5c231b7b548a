// Package metrics exposes Prometheus instruments for the admin panel.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for form saves and application submissions.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	formSaves      *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
}

// New registers every instrument, plus the Go and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admissions_http_requests_total",
			Help: "HTTP requests served, by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admissions_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		formSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admissions_form_saves_total",
			Help: "Form configuration saves, by outcome.",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admissions_application_submissions_total",
			Help: "Application submissions, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admissions_backend_call_duration_seconds",
			Help:    "Duration of calls to the forms and applications backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.formSaves,
		m.submissions,
		m.backendLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) FormSaved(outcome string) {
	m.formSaves.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ApplicationSubmitted(mode, outcome string) {
	m.submissions.WithLabelValues(mode, outcome).Inc()
}

// ObserveBackend records how long a backend operation took since start.
func (m *Metrics) ObserveBackend(operation string, start time.Time) {
	m.backendLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Middleware counts requests and their duration.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := NormalizePath(r.URL.Path)

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		m.httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// NormalizePath replaces id segments with :id to keep label cardinality bounded.
func NormalizePath(path string) string {
	if strings.HasPrefix(path, "/static/") {
		return "/static"
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) < 12 {
		return false
	}
	for _, r := range seg {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-' || r == '_') {
			return false
		}
	}
	return strings.ContainsAny(seg, "0123456789")
}
