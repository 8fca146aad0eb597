package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "msls_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counter
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "msls_register_total",
			Help: "Total number of user registrations",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msls_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Auth error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msls_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "user_not_found", etc.
	)

	// Guard denial counter by redirect destination
	GuardDenialCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msls_guard_denials_total",
			Help: "Total number of authorization guard denials by redirect destination",
		},
		[]string{"redirect"},
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msls_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // "create", "select", "switch", etc.
	)

	// Admission decision counter
	AdmissionDecisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msls_admission_decisions_total",
			Help: "Total number of admission decisions",
		},
		[]string{"decision"},
	)

	// Document upload counter
	DocumentUploadCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "msls_document_uploads_total",
			Help: "Total number of document uploads to object storage",
		},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "msls_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "msls_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "msls_active_tenants",
			Help: "Number of currently active tenants",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "msls_info",
			Help: "Information about the school management service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(GuardDenialCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(AdmissionDecisionCounter)
	prometheus.MustRegister(DocumentUploadCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTenantsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordGuardDenial records an authorization guard denial
func RecordGuardDenial(redirect string) {
	GuardDenialCounter.With(prometheus.Labels{"redirect": redirect}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordAdmissionDecision records an admission decision
func RecordAdmissionDecision(decision string) {
	AdmissionDecisionCounter.With(prometheus.Labels{"decision": decision}).Inc()
}

// UpdateActiveTenants updates the active tenants gauge
func UpdateActiveTenants(count int) {
	ActiveTenantsGauge.Set(float64(count))
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}
