package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	ProvisioningOutcomesTotal *prometheus.CounterVec
	GarageOperationsTotal     *prometheus.CounterVec
	NotificationFailuresTotal *prometheus.CounterVec
	SessionRoleUpdatesTotal   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garage_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "garage_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "garage_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		ProvisioningOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garage_provisioning_outcomes_total",
				Help: "Garage resolutions by outcome",
			},
			[]string{"outcome"},
		),
		GarageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garage_operations_total",
				Help: "Garage and sub-account mutations by operation and status",
			},
			[]string{"operation", "status"},
		),
		NotificationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garage_notification_failures_total",
				Help: "Activity notifications that could not be recorded",
			},
			[]string{"activity"},
		),
		SessionRoleUpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garage_session_role_updates_total",
				Help: "Writes of the role claim to the identity provider",
			},
			[]string{"status"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.ProvisioningOutcomesTotal,
		m.GarageOperationsTotal,
		m.NotificationFailuresTotal,
		m.SessionRoleUpdatesTotal,
	)

	return m
}

// RegisterDBStats exports connection pool statistics for db
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// ObserveOperation records a garage mutation outcome. Nil metrics are ignored.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.GarageOperationsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
}

// ObserveProvisioning records a garage resolution outcome
func (m *Metrics) ObserveProvisioning(outcome string) {
	if m == nil {
		return
	}
	m.ProvisioningOutcomesTotal.WithLabelValues(outcome).Inc()
}

// ObserveNotificationFailure records an activity entry that was dropped
func (m *Metrics) ObserveNotificationFailure(activity string) {
	if m == nil {
		return
	}
	m.NotificationFailuresTotal.WithLabelValues(activity).Inc()
}

// ObserveSessionRoleUpdate records a session role write
func (m *Metrics) ObserveSessionRoleUpdate(err error) {
	if m == nil {
		return
	}
	m.SessionRoleUpdatesTotal.WithLabelValues(statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel uses the matched mux template so ids do not explode cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// It is meant to be installed with mux.Router.Use so the route is known.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			path := routeLabel(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(rw.bytesWritten))
		})
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, metrics *Metrics) {
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}
