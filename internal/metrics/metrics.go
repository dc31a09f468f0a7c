// Package metrics exposes Prometheus instrumentation for the HTTP
// surface and the forecast engine.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satlink_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satlink_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	forecastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satlink_forecasts_total",
			Help: "Forecast computations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	forecastDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satlink_forecast_duration_seconds",
			Help:    "Forecast computation duration in seconds.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	elementSetCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satlink_element_sets",
			Help: "Number of element sets currently loaded in the store.",
		},
	)

	elementSetMaxAgeDays = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satlink_element_set_max_age_days",
			Help: "Age in days of the oldest loaded element set.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(forecastsTotal)
	prometheus.MustRegister(forecastDurationSeconds)
	prometheus.MustRegister(elementSetCount)
	prometheus.MustRegister(elementSetMaxAgeDays)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordForecast counts one forecast computation.
func RecordForecast(operation, outcome string) {
	forecastsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveForecastDuration records how long a forecast computation took.
func ObserveForecastDuration(operation string, d time.Duration) {
	forecastDurationSeconds.WithLabelValues(operation).Observe(d.Seconds())
}

// SetElementSetStats updates the element-store gauges.
func SetElementSetStats(count int, maxAgeDays float64) {
	elementSetCount.Set(float64(count))
	elementSetMaxAgeDays.Set(maxAgeDays)
}

// knownRoutes are the exact paths the server registers. Anything else
// is collapsed so scanners and bots cannot inflate label cardinality.
var knownRoutes = map[string]bool{
	"/":                         true,
	"/healthz":                  true,
	"/readyz":                   true,
	"/metrics":                  true,
	"/api/v1/passes":            true,
	"/api/v1/passes/export.ics": true,
	"/api/v1/margin":            true,
	"/api/v1/elements":          true,
}

// normalizeRoute maps a request path to a bounded metric label.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/elements/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/v1/elements/{catalog_number}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
