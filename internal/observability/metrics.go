package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets  = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	buildDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1}
	bodySizeBuckets      = []float64{100, 1024, 10240, 102400, 1048576}
)

// Metrics holds all Prometheus metric instruments for the engine.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Spec metrics
	SpecBuildsTotal   *prometheus.CounterVec
	SpecBuildDuration *prometheus.HistogramVec
	SpecParameters    *prometheus.GaugeVec
	ModelState        *prometheus.GaugeVec

	// Payload metrics
	PayloadBuildsTotal    *prometheus.CounterVec
	PayloadBuildDuration  prometheus.Histogram
	MissingRequiredTotal  *prometheus.CounterVec

	// Config metrics
	ConfigUpsertsTotal   *prometheus.CounterVec
	ConfigWarningsTotal  *prometheus.CounterVec
	SchemaRefreshesTotal *prometheus.CounterVec
	OrphanedParameters   *prometheus.GaugeVec

	// Registry metrics
	RegistryReloadTotal *prometheus.CounterVec
	CanonicalFields     prometheus.Gauge
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artline_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "artline_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "artline_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "artline_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Specs
		SpecBuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artline_spec_builds_total",
			Help: "Total number of generation spec builds.",
		}, []string{"model_id", "view"}),
		SpecBuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "artline_spec_build_duration_seconds",
			Help:    "Generation spec build duration in seconds.",
			Buckets: buildDurationBuckets,
		}, []string{"model_id"}),
		SpecParameters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "artline_spec_parameters",
			Help: "Number of resolved parameters in the latest spec build.",
		}, []string{"model_id"}),
		ModelState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "artline_model_state",
			Help: "Model lifecycle state (1 for the current state, 0 otherwise).",
		}, []string{"model_id", "state"}),

		// Payloads
		PayloadBuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artline_payload_builds_total",
			Help: "Total number of payload builds.",
		}, []string{"model_id", "status"}),
		PayloadBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "artline_payload_build_duration_seconds",
			Help:    "Payload build duration in seconds.",
			Buckets: buildDurationBuckets,
		}),
		MissingRequiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artline_missing_required_values_total",
			Help: "Total payload builds rejected for missing required values.",
		}, []string{"model_id"}),

		// Config
		ConfigUpsertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artline_config_upserts_total",
			Help: "Total number of parameter config upserts.",
		}, []string{"model_id", "status"}),
		ConfigWarningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artline_config_warnings_total",
			Help: "Total non-fatal warnings produced by config edits.",
		}, []string{"model_id"}),
		SchemaRefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artline_schema_refreshes_total",
			Help: "Total number of raw schema refreshes.",
		}, []string{"model_id", "status"}),
		OrphanedParameters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "artline_orphaned_parameters",
			Help: "Configured parameters no longer present in the raw schema.",
		}, []string{"model_id"}),

		// Registry
		RegistryReloadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artline_registry_reload_total",
			Help: "Total canonical registry reloads.",
		}, []string{"status"}),
		CanonicalFields: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "artline_canonical_fields",
			Help: "Number of canonical fields in the registry.",
		}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Specs
		m.SpecBuildsTotal,
		m.SpecBuildDuration,
		m.SpecParameters,
		m.ModelState,
		// Payloads
		m.PayloadBuildsTotal,
		m.PayloadBuildDuration,
		m.MissingRequiredTotal,
		// Config
		m.ConfigUpsertsTotal,
		m.ConfigWarningsTotal,
		m.SchemaRefreshesTotal,
		m.OrphanedParameters,
		// Registry
		m.RegistryReloadTotal,
		m.CanonicalFields,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordSpecBuild records a spec build and its parameter count.
func (m *Metrics) RecordSpecBuild(modelID, view string, parameters int, duration time.Duration) {
	m.SpecBuildsTotal.WithLabelValues(modelID, view).Inc()
	m.SpecBuildDuration.WithLabelValues(modelID).Observe(duration.Seconds())
	m.SpecParameters.WithLabelValues(modelID).Set(float64(parameters))
}

// knownStates lists every lifecycle state for the per-model state gauge.
var knownStates = []string{"unconfigured", "discovered", "configured", "stale"}

// SetModelState marks one lifecycle state current for a model.
func (m *Metrics) SetModelState(modelID, state string) {
	for _, s := range knownStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.ModelState.WithLabelValues(modelID, s).Set(v)
	}
}

// RecordPayloadBuild records a payload build outcome.
func (m *Metrics) RecordPayloadBuild(modelID, status string, duration time.Duration) {
	m.PayloadBuildsTotal.WithLabelValues(modelID, status).Inc()
	m.PayloadBuildDuration.Observe(duration.Seconds())
}

// RecordMissingRequired records a payload build rejected for missing
// required values.
func (m *Metrics) RecordMissingRequired(modelID string) {
	m.MissingRequiredTotal.WithLabelValues(modelID).Inc()
}

// RecordConfigUpsert records a parameter config upsert and its warnings.
func (m *Metrics) RecordConfigUpsert(modelID, status string, warnings int) {
	m.ConfigUpsertsTotal.WithLabelValues(modelID, status).Inc()
	if warnings > 0 {
		m.ConfigWarningsTotal.WithLabelValues(modelID).Add(float64(warnings))
	}
}

// RecordSchemaRefresh records a raw schema refresh and, when it succeeded,
// the resulting orphaned parameter count.
func (m *Metrics) RecordSchemaRefresh(modelID, status string, orphaned int) {
	m.SchemaRefreshesTotal.WithLabelValues(modelID, status).Inc()
	if status == "success" {
		m.OrphanedParameters.WithLabelValues(modelID).Set(float64(orphaned))
	}
}

// RecordRegistryReload records a canonical registry reload.
func (m *Metrics) RecordRegistryReload(status string, fields int) {
	m.RegistryReloadTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.CanonicalFields.Set(float64(fields))
	}
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
