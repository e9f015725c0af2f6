package observability

import (
	"context"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/Azzot88/artline-sub000/internal/config"
	"github.com/Azzot88/artline-sub000/model"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.ObservabilityConfig{LogLevel: "debug"})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewLogger() = nil")
	}
	// Unknown levels fall back to info instead of failing startup.
	if _, err := NewLogger(config.ObservabilityConfig{LogLevel: "chatty"}); err != nil {
		t.Errorf("NewLogger(bad level) error = %v", err)
	}
}

func TestLoggerFrom(t *testing.T) {
	fallback := zap.NewNop()
	if got := LoggerFrom(context.Background(), fallback); got != fallback {
		t.Error("LoggerFrom(empty ctx) did not return fallback")
	}
	stored := zap.NewNop()
	ctx := WithLogger(context.Background(), stored)
	if got := LoggerFrom(ctx, fallback); got != stored {
		t.Error("LoggerFrom did not return the stored logger")
	}
}

func TestRequestLogger_withoutRequestContext(t *testing.T) {
	fallback := zap.NewNop()
	if got := RequestLogger(context.Background(), fallback); got != fallback {
		t.Error("RequestLogger without RequestContext did not pass through")
	}
}

func TestRequestLogger_enriched(t *testing.T) {
	ctx := model.WithRequestContext(context.Background(), &model.RequestContext{
		SubjectID:     "u1",
		Tier:          model.TierPro,
		CorrelationID: "corr-1",
	})
	// Enrichment must produce a derived logger; field content is an
	// encoder concern, presence of derivation is what matters here.
	fallback := zap.NewNop()
	if got := RequestLogger(ctx, fallback); got == fallback {
		t.Error("RequestLogger did not derive an enriched logger")
	}
}

func TestRedactBody(t *testing.T) {
	body := map[string]any{
		"prompt":  "a red fox",
		"api_key": "sk-123",
		"nested": map[string]any{
			"token": "t",
			"steps": 30,
		},
	}

	out := RedactBody(body, []string{"prompt"})
	want := map[string]any{
		"prompt":  "[REDACTED]",
		"api_key": "[REDACTED]",
		"nested": map[string]any{
			"token": "[REDACTED]",
			"steps": 30,
		},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("RedactBody() = %v, want %v", out, want)
	}
	// Input is untouched.
	if body["api_key"] != "sk-123" {
		t.Error("RedactBody() mutated its input")
	}
	if RedactBody(nil, nil) != nil {
		t.Error("RedactBody(nil) != nil")
	}
}
