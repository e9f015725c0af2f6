package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Azzot88/artline-sub000/internal/canonical"
	"github.com/Azzot88/artline-sub000/internal/config"
	"github.com/Azzot88/artline-sub000/internal/engine"
	"github.com/Azzot88/artline-sub000/internal/observability"
	"github.com/Azzot88/artline-sub000/internal/store"
	"github.com/Azzot88/artline-sub000/model"
)

func userClaims() map[string]any {
	return map[string]any{"sub": "user-1", "tier": "starter"}
}

func adminClaims() map[string]any {
	return map[string]any{"sub": "admin-1", "tier": "studio", "roles": []any{"admin"}}
}

// claimsInjector stands in for the JWT authenticator: it stores fixed claims
// the way the real middleware does after token verification.
func claimsInjector(claims map[string]any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func testRouter(claims map[string]any) (http.Handler, *engine.Engine) {
	eng := engine.NewEngine(canonical.NewRegistry(), store.NewMemoryModelStore())
	router := NewRouter(Dependencies{
		Config:       config.Defaults(),
		Engine:       eng,
		Authenticate: claimsInjector(claims),
		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	})
	return router, eng
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeResponse(t, rr)
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func rawSchemaBody() map[string]any {
	return map[string]any{
		"required": []any{"prompt"},
		"properties": map[string]any{
			"prompt":       map[string]any{"type": "string"},
			"aspect_ratio": map[string]any{"type": "string", "enum": []any{"1:1", "16:9"}, "default": "1:1"},
		},
	}
}

// --- public routes ---

func TestRouter_health(t *testing.T) {
	router, _ := testRouter(nil)
	rr := doJSON(t, router, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestRouter_correlationID(t *testing.T) {
	router, _ := testRouter(nil)
	rr := doJSON(t, router, http.MethodGet, "/health", nil)
	if rr.Header().Get("X-Correlation-Id") == "" {
		t.Error("correlation id header not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-Id", "abc-123")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Header().Get("X-Correlation-Id") != "abc-123" {
		t.Error("incoming correlation id not echoed")
	}
}

// --- role gating ---

func TestRouter_adminRoutesRequireRole(t *testing.T) {
	router, _ := testRouter(userClaims())
	rr := doJSON(t, router, http.MethodGet, "/api/admin/models", nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
	if code := errorCode(t, rr); code != model.ErrForbidden {
		t.Errorf("code = %q", code)
	}
}

// --- admin flow ---

func TestRouter_adminFlow(t *testing.T) {
	router, _ := testRouter(adminClaims())

	// Register.
	rr := doJSON(t, router, http.MethodPost, "/api/admin/models", map[string]any{
		"model_id": "flux-dev", "provider": "replicate",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rr.Code, rr.Body.String())
	}

	// Refresh schema.
	rr = doJSON(t, router, http.MethodPost, "/api/admin/models/flux-dev/schema", rawSchemaBody())
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeResponse(t, rr)
	staleness, _ := body["staleness"].(map[string]any)
	if staleness["state"] != string(model.StateDiscovered) {
		t.Errorf("staleness = %v", staleness)
	}

	// Configure a parameter.
	rr = doJSON(t, router, http.MethodPut, "/api/admin/models/flux-dev/parameters/aspect_ratio",
		map[string]any{"canonical_key": "format.aspect_ratio"})
	if rr.Code != http.StatusOK {
		t.Fatalf("upsert status = %d: %s", rr.Code, rr.Body.String())
	}

	// Add a priced value and make it the default.
	rr = doJSON(t, router, http.MethodPost, "/api/admin/models/flux-dev/parameters/aspect_ratio/values",
		map[string]any{"value": "21:9", "enabled": true, "price": 3})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add value status = %d: %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, router, http.MethodPut, "/api/admin/models/flux-dev/parameters/aspect_ratio/values/default",
		map[string]any{"value": "21:9"})
	if rr.Code != http.StatusOK {
		t.Fatalf("set default status = %d: %s", rr.Code, rr.Body.String())
	}

	// The admin parameter view shows everything.
	rr = doJSON(t, router, http.MethodGet, "/api/admin/models/flux-dev/parameters", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin spec status = %d", rr.Code)
	}

	// List shows the configured model.
	rr = doJSON(t, router, http.MethodGet, "/api/admin/models", nil)
	body = decodeResponse(t, rr)
	models, _ := body["models"].([]any)
	if len(models) != 1 {
		t.Errorf("models = %v", models)
	}

	// Delete.
	rr = doJSON(t, router, http.MethodDelete, "/api/admin/models/flux-dev", nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rr.Code)
	}
}

func TestRouter_refreshSchema_malformed(t *testing.T) {
	router, _ := testRouter(adminClaims())
	rr := doJSON(t, router, http.MethodPost, "/api/admin/models/flux-dev/schema",
		map[string]any{"no": "properties here"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if code := errorCode(t, rr); code != model.ErrMalformedSchema {
		t.Errorf("code = %q", code)
	}
}

func TestRouter_upsertParameter_validation(t *testing.T) {
	router, _ := testRouter(adminClaims())
	doJSON(t, router, http.MethodPost, "/api/admin/models/flux-dev/schema", rawSchemaBody())

	rr := doJSON(t, router, http.MethodPut, "/api/admin/models/flux-dev/parameters/aspect_ratio",
		map[string]any{"transform_multiply": 0})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
	if code := errorCode(t, rr); code != model.ErrValidationError {
		t.Errorf("code = %q", code)
	}
}

// --- user routes ---

func TestRouter_userSpec(t *testing.T) {
	router, _ := testRouter(adminClaims())
	doJSON(t, router, http.MethodPost, "/api/admin/models/flux-dev/schema", rawSchemaBody())

	rr := doJSON(t, router, http.MethodGet, "/api/models/flux-dev/spec", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeResponse(t, rr)
	params, _ := body["parameters"].([]any)
	if len(params) != 2 {
		t.Errorf("parameters = %v", params)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/models/nope/spec", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown model status = %d", rr.Code)
	}
}

func TestRouter_buildPayload(t *testing.T) {
	router, _ := testRouter(adminClaims())
	doJSON(t, router, http.MethodPost, "/api/admin/models/flux-dev/schema", rawSchemaBody())

	rr := doJSON(t, router, http.MethodPost, "/api/models/flux-dev/payload",
		map[string]any{"values": map[string]any{"prompt": "a red fox"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeResponse(t, rr)
	payload, _ := body["payload"].(map[string]any)
	if payload["prompt"] != "a red fox" || payload["aspect_ratio"] != "1:1" {
		t.Errorf("payload = %v", payload)
	}

	// Missing required value fails with the engine's one hard error.
	rr = doJSON(t, router, http.MethodPost, "/api/models/flux-dev/payload", map[string]any{})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
	if code := errorCode(t, rr); code != model.ErrMissingRequiredValue {
		t.Errorf("code = %q", code)
	}
}

func TestRouter_recordsOperationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.InitMetrics(reg)
	eng := engine.NewEngine(canonical.NewRegistry(), store.NewMemoryModelStore())
	router := NewRouter(Dependencies{
		Config:       config.Defaults(),
		Engine:       eng,
		Authenticate: claimsInjector(adminClaims()),
		Metrics:      metrics,
	})

	doJSON(t, router, http.MethodPost, "/api/admin/models/flux-dev/schema", rawSchemaBody())
	doJSON(t, router, http.MethodPut, "/api/admin/models/flux-dev/parameters/aspect_ratio",
		map[string]any{"canonical_key": "format.aspect_ratio"})
	doJSON(t, router, http.MethodGet, "/api/models/flux-dev/spec", nil)
	doJSON(t, router, http.MethodPost, "/api/models/flux-dev/payload",
		map[string]any{"values": map[string]any{"prompt": "a red fox"}})
	doJSON(t, router, http.MethodPost, "/api/models/flux-dev/payload", map[string]any{})

	if v := testutil.ToFloat64(metrics.SchemaRefreshesTotal.WithLabelValues("flux-dev", "success")); v != 1 {
		t.Errorf("schema refreshes = %v, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.ConfigUpsertsTotal.WithLabelValues("flux-dev", "success")); v != 1 {
		t.Errorf("config upserts = %v, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.SpecBuildsTotal.WithLabelValues("flux-dev", "user")); v != 1 {
		t.Errorf("user spec builds = %v, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.PayloadBuildsTotal.WithLabelValues("flux-dev", "success")); v != 1 {
		t.Errorf("successful payload builds = %v, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.PayloadBuildsTotal.WithLabelValues("flux-dev", "error")); v != 1 {
		t.Errorf("failed payload builds = %v, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.MissingRequiredTotal.WithLabelValues("flux-dev")); v != 1 {
		t.Errorf("missing required rejections = %v, want 1", v)
	}
}

func TestRouter_badJSONBody(t *testing.T) {
	router, _ := testRouter(adminClaims())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/models", bytes.NewBufferString("{broken"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

// --- response helpers ---

func TestWriteError_statusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{model.NewBadRequestError("x"), http.StatusBadRequest},
		{model.NewNotFoundError("x"), http.StatusNotFound},
		{model.NewConflictError("x"), http.StatusConflict},
		{model.NewValidationError(nil), http.StatusUnprocessableEntity},
		{&model.ErrorEnvelope{Code: model.ErrMalformedSchema, Message: "x"}, http.StatusBadRequest},
		{&model.ErrorEnvelope{Code: model.ErrMissingRequiredValue, Message: "x"}, http.StatusUnprocessableEntity},
		{fmt.Errorf("plain error"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		WriteError(rr, c.err)
		if rr.Code != c.status {
			t.Errorf("WriteError(%v) status = %d, want %d", c.err, rr.Code, c.status)
		}
	}
}
