package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return InitMetrics(reg), reg
}

func TestInitMetrics_registersAllMetrics(t *testing.T) {
	m, reg := newTestMetrics(t)
	if m == nil {
		t.Fatal("InitMetrics returned nil")
	}

	// Touch every instrument so Gather reports it.
	m.RecordHTTPRequest("GET", "/test", 200, time.Millisecond, 0, 100)
	m.RecordSpecBuild("flux-dev", "user", 4, time.Millisecond)
	m.SetModelState("flux-dev", "configured")
	m.RecordPayloadBuild("flux-dev", "success", time.Millisecond)
	m.RecordMissingRequired("flux-dev")
	m.RecordConfigUpsert("flux-dev", "success", 1)
	m.RecordSchemaRefresh("flux-dev", "success", 0)
	m.RecordRegistryReload("success", 16)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	expected := []string{
		"artline_http_requests_total",
		"artline_http_request_duration_seconds",
		"artline_http_request_size_bytes",
		"artline_http_response_size_bytes",
		"artline_spec_builds_total",
		"artline_spec_build_duration_seconds",
		"artline_spec_parameters",
		"artline_model_state",
		"artline_payload_builds_total",
		"artline_payload_build_duration_seconds",
		"artline_missing_required_values_total",
		"artline_config_upserts_total",
		"artline_config_warnings_total",
		"artline_schema_refreshes_total",
		"artline_orphaned_parameters",
		"artline_registry_reload_total",
		"artline_canonical_fields",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not registered", name)
		}
	}
}

func TestRecordSpecBuild(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordSpecBuild("flux-dev", "user", 4, 5*time.Millisecond)
	m.RecordSpecBuild("flux-dev", "user", 4, 8*time.Millisecond)
	m.RecordSpecBuild("flux-dev", "admin", 6, 3*time.Millisecond)

	if v := testutil.ToFloat64(m.SpecBuildsTotal.WithLabelValues("flux-dev", "user")); v != 2 {
		t.Errorf("user spec builds = %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.SpecBuildsTotal.WithLabelValues("flux-dev", "admin")); v != 1 {
		t.Errorf("admin spec builds = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.SpecParameters.WithLabelValues("flux-dev")); v != 6 {
		t.Errorf("spec parameters gauge = %v, want 6 (last build)", v)
	}
}

func TestSetModelState_exclusive(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.SetModelState("flux-dev", "discovered")
	m.SetModelState("flux-dev", "configured")

	for _, state := range []string{"unconfigured", "discovered", "stale"} {
		if v := testutil.ToFloat64(m.ModelState.WithLabelValues("flux-dev", state)); v != 0 {
			t.Errorf("state %q = %v, want 0", state, v)
		}
	}
	if v := testutil.ToFloat64(m.ModelState.WithLabelValues("flux-dev", "configured")); v != 1 {
		t.Errorf("state configured = %v, want 1", v)
	}
}

func TestRecordPayloadBuild(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordPayloadBuild("flux-dev", "success", time.Millisecond)
	m.RecordPayloadBuild("flux-dev", "error", time.Millisecond)
	m.RecordMissingRequired("flux-dev")

	if v := testutil.ToFloat64(m.PayloadBuildsTotal.WithLabelValues("flux-dev", "success")); v != 1 {
		t.Errorf("success builds = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.PayloadBuildsTotal.WithLabelValues("flux-dev", "error")); v != 1 {
		t.Errorf("error builds = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.MissingRequiredTotal.WithLabelValues("flux-dev")); v != 1 {
		t.Errorf("missing required = %v, want 1", v)
	}
}

func TestRecordConfigUpsert(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordConfigUpsert("flux-dev", "success", 2)
	m.RecordConfigUpsert("flux-dev", "success", 0)
	m.RecordConfigUpsert("flux-dev", "error", 0)

	if v := testutil.ToFloat64(m.ConfigUpsertsTotal.WithLabelValues("flux-dev", "success")); v != 2 {
		t.Errorf("successful upserts = %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.ConfigWarningsTotal.WithLabelValues("flux-dev")); v != 2 {
		t.Errorf("warnings = %v, want 2", v)
	}
}

func TestRecordSchemaRefresh(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordSchemaRefresh("flux-dev", "success", 3)
	m.RecordSchemaRefresh("flux-dev", "error", 99)

	if v := testutil.ToFloat64(m.SchemaRefreshesTotal.WithLabelValues("flux-dev", "success")); v != 1 {
		t.Errorf("successful refreshes = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.SchemaRefreshesTotal.WithLabelValues("flux-dev", "error")); v != 1 {
		t.Errorf("failed refreshes = %v, want 1", v)
	}
	// A failed refresh must not clobber the orphaned gauge.
	if v := testutil.ToFloat64(m.OrphanedParameters.WithLabelValues("flux-dev")); v != 3 {
		t.Errorf("orphaned gauge = %v, want 3", v)
	}
}

func TestRecordRegistryReload(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordRegistryReload("success", 16)
	m.RecordRegistryReload("error", 0)

	if v := testutil.ToFloat64(m.RegistryReloadTotal.WithLabelValues("success")); v != 1 {
		t.Errorf("successful reloads = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.CanonicalFields); v != 16 {
		t.Errorf("canonical fields gauge = %v, want 16", v)
	}
}

func TestMetricsMiddleware_recordsRequestMetrics(t *testing.T) {
	m, _ := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(m.MetricsMiddleware)
	r.Get("/api/models/{modelID}/spec", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/models/flux-dev/spec")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	val := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/models/{modelID}/spec", "200"))
	if val != 1 {
		t.Errorf("requests for route pattern = %v, want 1", val)
	}
}

func TestMetricsMiddleware_capturesStatusCode(t *testing.T) {
	m, _ := newTestMetrics(t)

	handler := m.MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	val := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/x", "422"))
	if val != 1 {
		t.Errorf("requests with status 422 = %v, want 1", val)
	}
}
