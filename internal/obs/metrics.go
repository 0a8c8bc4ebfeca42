package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics.
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
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	readyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the service readiness probe passes, 0 otherwise.",
	})
)

// Domain metrics.
var (
	scoreSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_submissions_total",
			Help: "Score submissions by result.",
		},
		[]string{"result"},
	)

	authLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration, readyGauge,
		scoreSubmissionsTotal, authLoginsTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady records the readiness state for the service_ready gauge.
func SetReady(ready bool) {
	if ready {
		readyGauge.Set(1)
	} else {
		readyGauge.Set(0)
	}
}

// CountScoreSubmission increments the submission counter with the given
// result label ("ok", "failed").
func CountScoreSubmission(result string) {
	scoreSubmissionsTotal.WithLabelValues(result).Inc()
}

// CountLogin increments the login counter ("ok", "failed").
func CountLogin(result string) {
	authLoginsTotal.WithLabelValues(result).Inc()
}

// CanonicalPath collapses resource identifiers out of request paths so the
// path metric label stays low-cardinality.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	for _, prefix := range []string{
		"/v1/scores/",
		"/v1/students/",
		"/v1/teachers/",
		"/v1/admins/",
		"/v1/accounts/",
	} {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" {
			continue
		}
		if rest == "stream" {
			return path
		}
		if !strings.Contains(rest, "/") {
			return prefix + ":id"
		}
	}
	return path
}

// Instrument wraps a handler with request counting, latency and in-flight
// tracking.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code written by downstream handlers.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets SSE handlers stream through the instrumented writer.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
