package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec

	// Authentication metrics
	LoginAttemptsTotal   *prometheus.CounterVec
	TokenRejectionsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge

	// Business metrics
	TenantsTotal     prometheus.Gauge
	UsersTotal       prometheus.Gauge
	ProjectsTotal    prometheus.Gauge
	MembershipsTotal prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskhub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
		AuthzDecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_authz_decisions_total",
				Help: "Authorization decisions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		LoginAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		TokenRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_token_rejections_total",
				Help: "Rejected authentication tokens by reason",
			},
			[]string{"reason"},
		),
		DBConnectionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_db_connections_open",
				Help: "Number of open database connections",
			},
		),
		DBConnectionsInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_db_connections_in_use",
				Help: "Number of database connections currently in use",
			},
		),
		DBConnectionsIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		TenantsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_tenants_total",
				Help: "Total number of companies",
			},
		),
		UsersTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_users_total",
				Help: "Total number of users",
			},
		),
		ProjectsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_projects_total",
				Help: "Total number of projects",
			},
		),
		MembershipsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_memberships_total",
				Help: "Total number of project memberships",
			},
		),
	}
}

// RecordAuthzDecision records an authorization decision
func (m *Metrics) RecordAuthzDecision(operation, outcome string) {
	m.AuthzDecisionsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordLoginAttempt records a login attempt outcome
func (m *Metrics) RecordLoginAttempt(outcome string) {
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordTokenRejection records a rejected token by reason
func (m *Metrics) RecordTokenRejection(reason string) {
	m.TokenRejectionsTotal.WithLabelValues(reason).Inc()
}

// UpdateDBStats updates database connection pool gauges
func (m *Metrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	m.DBConnectionsInUse.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// metricsResponseWriter captures the status code for metrics
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware records HTTP request metrics
func (m *Metrics) HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		wrapped := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := routePattern(r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern returns the mux route template when available to keep
// metric cardinality bounded
func routePattern(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// RegisterMetricsEndpoint adds the /metrics endpoint to a serve mux
func RegisterMetricsEndpoint(serveMux *http.ServeMux, registry *prometheus.Registry) {
	serveMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
