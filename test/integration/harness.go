// Package integration provides a reusable test harness for end-to-end
// testing of the parameter engine API: a full HTTP server with the real
// authentication middleware, an in-memory model store, and a test JWT
// issuer serving its own JWKS endpoint.
package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Azzot88/artline-sub000/internal/canonical"
	"github.com/Azzot88/artline-sub000/internal/config"
	"github.com/Azzot88/artline-sub000/internal/engine"
	"github.com/Azzot88/artline-sub000/internal/store"
	"github.com/Azzot88/artline-sub000/internal/transport"
	"github.com/Azzot88/artline-sub000/model"
)

// TestHarness encapsulates a fully wired engine instance for integration
// testing.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server
	issuer *tokenIssuer

	// Internal components exposed for advanced test scenarios.
	Registry   *canonical.Registry
	ModelStore *store.MemoryModelStore
	Engine     *engine.Engine

	cfg *config.Config
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	extraFields    []model.CanonicalFieldDef
	handlerTimeout time.Duration
}

// WithCanonicalFields extends the built-in canonical field table.
func WithCanonicalFields(fields ...model.CanonicalFieldDef) HarnessOption {
	return func(c *harnessConfig) {
		c.extraFields = append(c.extraFields, fields...)
	}
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.handlerTimeout = d
	}
}

// NewTestHarness creates and starts a full engine test instance. The server
// is automatically cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		handlerTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(hc)
	}

	h := &TestHarness{t: t}
	h.Registry = canonical.NewRegistry(hc.extraFields...)
	h.ModelStore = store.NewMemoryModelStore()
	h.Engine = engine.NewEngine(h.Registry, h.ModelStore)
	h.issuer = newTokenIssuer(t)

	h.cfg = &config.Config{
		Server: config.ServerConfig{
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			HandlerTimeout: hc.handlerTimeout,
			CORS: config.CORSConfig{
				AllowedOrigins: []string{"http://localhost:3000"},
				AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type", "X-Correlation-Id"},
				MaxAge:         86400,
			},
		},
		Identity: config.IdentityConfig{
			Issuer:     h.issuer.Issuer(),
			Audience:   h.issuer.Audience(),
			JWKSURL:    h.issuer.JWKSURL(),
			Algorithms: []string{"RS256"},
			ClaimPaths: map[string]string{
				"subject_id": "sub",
				"email":      "email",
				"tier":       "tier",
				"roles":      "roles",
			},
		},
	}

	jwks := transport.NewJWKSClient(h.issuer.JWKSURL(), 1*time.Hour)

	router := transport.NewRouter(transport.Dependencies{
		Config:       h.cfg,
		Engine:       h.Engine,
		Authenticate: transport.JWTAuthenticator(h.cfg.Identity, jwks),
		HealthHandler: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		},
		ReadyHandler: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ready"}`))
		},
	})

	h.server = httptest.NewServer(router)
	t.Cleanup(func() {
		h.server.Close()
	})

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// GenerateToken creates a valid JWT token with the given claims.
func (h *TestHarness) GenerateToken(claims TestClaims) string {
	return h.issuer.GenerateToken(claims)
}

// GenerateExpiredToken creates a JWT that has already expired.
func (h *TestHarness) GenerateExpiredToken(claims TestClaims) string {
	return h.issuer.GenerateExpiredToken(claims)
}

// --- HTTP client helpers ---

// GET performs an authenticated GET request.
func (h *TestHarness) GET(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodGet, path, nil, token)
}

// POST performs an authenticated POST request with a JSON body.
func (h *TestHarness) POST(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodPost, path, body, token)
}

// PUT performs an authenticated PUT request with a JSON body.
func (h *TestHarness) PUT(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodPut, path, body, token)
}

// DELETE performs an authenticated DELETE request.
func (h *TestHarness) DELETE(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodDelete, path, body, token)
}

func (h *TestHarness) doRequest(method, path string, body any, token string) *http.Response {
	h.t.Helper()

	url := h.server.URL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Errorf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks that the response has the expected status and parses the body.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// --- Default test claims ---

// AdminClaims returns TestClaims for a catalog administrator.
func AdminClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-admin",
		Email:     "admin@artline.example.com",
		Tier:      "studio",
		Roles:     []string{"admin"},
	}
}

// StarterClaims returns TestClaims for a starter-tier user.
func StarterClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-starter",
		Email:     "starter@artline.example.com",
		Tier:      "starter",
	}
}

// StudioClaims returns TestClaims for a studio-tier user.
func StudioClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-studio",
		Email:     "studio@artline.example.com",
		Tier:      "studio",
	}
}

// --- Fixtures ---

// ImageSchemaFixture returns a raw schema typical of a text-to-image model.
func ImageSchemaFixture() map[string]any {
	return map[string]any{
		"required": []any{"prompt"},
		"properties": map[string]any{
			"prompt": map[string]any{
				"type": "string", "title": "Prompt",
			},
			"negative_prompt": map[string]any{
				"type": "string",
			},
			"aspect_ratio": map[string]any{
				"type": "string",
				"enum": []any{"1:1", "16:9", "9:16", "21:9"},
				"default": "1:1",
			},
			"num_inference_steps": map[string]any{
				"type": "integer", "minimum": float64(1), "maximum": float64(150),
				"default": float64(30),
			},
			"seed": map[string]any{
				"type": "integer",
			},
		},
	}
}
