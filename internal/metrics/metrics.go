// Package metrics exposes the security counters and HTTP instrumentation
// scraped by Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome and failure reason.",
		},
		[]string{"result", "reason"},
	)

	AccessDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_denied_total",
			Help: "Authorization denials by reason.",
		},
		[]string{"reason"},
	)

	CSRFFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csrf_failures_total",
			Help: "Rejected state-changing requests by CSRF failure kind.",
		},
		[]string{"kind"},
	)

	AuditWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Audit entries that could not be persisted.",
	})

	CronAuthFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cron_auth_failures_total",
		Help: "Rejected non-interactive cron calls.",
	})
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			LoginAttempts, AccessDenied, CSRFFailures, AuditWriteFailures, CronAuthFailures,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records RPS, latency and in-flight requests. The route label
// uses the chi pattern so ids in the path do not explode cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := RouteLabel(r)
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

func RouteLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
