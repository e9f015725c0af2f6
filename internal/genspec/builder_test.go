package genspec

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/Azzot88/artline-sub000/internal/canonical"
	"github.com/Azzot88/artline-sub000/model"
)

func testSchema(t *testing.T) map[string]any {
	t.Helper()
	src := `{
		"required": ["prompt"],
		"properties": {
			"prompt": {"type": "string", "title": "Prompt"},
			"aspect_ratio": {"type": "string", "enum": ["1:1", "16:9", "9:16"], "default": "1:1"},
			"num_inference_steps": {"type": "integer", "minimum": 1, "maximum": 150, "default": 30},
			"seed": {"type": "integer"}
		}
	}`
	var out map[string]any
	if err := json.Unmarshal([]byte(src), &out); err != nil {
		t.Fatalf("bad test schema: %v", err)
	}
	return out
}

func testDoc() model.ConfigDocument {
	return model.ConfigDocument{
		UIConfig: map[string]model.ParameterConfig{
			"aspect_ratio":        {CanonicalKey: "format.aspect_ratio"},
			"num_inference_steps": {CanonicalKey: "quality.steps", CustomLabel: "Steps"},
		},
	}
}

func paramIDs(spec Spec) []string {
	out := make([]string, len(spec.Parameters))
	for i, p := range spec.Parameters {
		out[i] = p.ID
	}
	return out
}

func findParam(t *testing.T, spec Spec, id string) model.ResolvedParameter {
	t.Helper()
	for _, p := range spec.Parameters {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("parameter %q not in spec %v", id, paramIDs(spec))
	return model.ResolvedParameter{}
}

// --- Build ---

func TestBuild_ordering(t *testing.T) {
	spec := Build("flux-dev", testSchema(t), testDoc(), canonical.NewRegistry(), Options{})

	// Configured first, sections format < quality, then unconfigured by id.
	want := []string{"aspect_ratio", "num_inference_steps", "prompt", "seed"}
	if got := paramIDs(spec); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestBuild_deterministic(t *testing.T) {
	reg := canonical.NewRegistry()
	first := Build("flux-dev", testSchema(t), testDoc(), reg, Options{})
	second := Build("flux-dev", testSchema(t), testDoc(), reg, Options{})
	if !reflect.DeepEqual(paramIDs(first), paramIDs(second)) {
		t.Errorf("order unstable: %v vs %v", paramIDs(first), paramIDs(second))
	}
}

func TestBuild_orphanedConfigSurvives(t *testing.T) {
	doc := testDoc()
	doc.UIConfig["style_preset"] = model.ParameterConfig{CustomLabel: "Style"}

	spec := Build("flux-dev", testSchema(t), doc, canonical.NewRegistry(), Options{})
	p := findParam(t, spec, "style_preset")
	if !p.Orphaned {
		t.Error("parameter missing from schema not flagged orphaned")
	}
	if spec.State != model.StateStale {
		t.Errorf("State = %q, want stale", spec.State)
	}
	if !reflect.DeepEqual(spec.Staleness.OrphanedKeys, []string{"style_preset"}) {
		t.Errorf("OrphanedKeys = %v", spec.Staleness.OrphanedKeys)
	}
}

func TestBuild_disabledFiltering(t *testing.T) {
	off := false
	doc := testDoc()
	doc.UIConfig["seed"] = model.ParameterConfig{Enabled: &off}

	spec := Build("flux-dev", testSchema(t), doc, canonical.NewRegistry(), Options{})
	for _, p := range spec.Parameters {
		if p.ID == "seed" {
			t.Fatal("disabled parameter present without IncludeDisabled")
		}
	}

	admin := Build("flux-dev", testSchema(t), doc, canonical.NewRegistry(), Options{IncludeDisabled: true})
	if p := findParam(t, admin, "seed"); !p.Hidden {
		t.Error("disabled parameter not marked hidden in admin view")
	}
}

func TestBuild_states(t *testing.T) {
	reg := canonical.NewRegistry()

	spec := Build("m", nil, model.ConfigDocument{}, reg, Options{})
	if spec.State != model.StateUnconfigured {
		t.Errorf("no schema, no config: State = %q", spec.State)
	}

	spec = Build("m", testSchema(t), model.ConfigDocument{}, reg, Options{})
	if spec.State != model.StateDiscovered {
		t.Errorf("schema only: State = %q", spec.State)
	}
	if len(spec.Staleness.NewKeys) != 4 {
		t.Errorf("NewKeys = %v", spec.Staleness.NewKeys)
	}

	spec = Build("m", testSchema(t), testDoc(), reg, Options{})
	if spec.State != model.StateStale {
		t.Errorf("partial config: State = %q, want stale (uncovered keys)", spec.State)
	}
	if len(spec.Staleness.NewKeys) != 2 {
		t.Errorf("NewKeys = %v, want prompt and seed", spec.Staleness.NewKeys)
	}

	doc := testDoc()
	doc.UIConfig["prompt"] = model.ParameterConfig{}
	doc.UIConfig["seed"] = model.ParameterConfig{}
	spec = Build("m", testSchema(t), doc, reg, Options{})
	if spec.State != model.StateConfigured {
		t.Errorf("full config: State = %q", spec.State)
	}
}

func TestBuild_duplicateCanonicalKey(t *testing.T) {
	doc := testDoc()
	// Both aspect_ratio and seed claim format.aspect_ratio.
	doc.UIConfig["seed"] = model.ParameterConfig{CanonicalKey: "format.aspect_ratio"}

	spec := Build("flux-dev", testSchema(t), doc, canonical.NewRegistry(), Options{})

	winner := findParam(t, spec, "aspect_ratio")
	if winner.CanonicalKey != "format.aspect_ratio" {
		t.Errorf("winner CanonicalKey = %q", winner.CanonicalKey)
	}
	if len(winner.Warnings) != 0 {
		t.Errorf("winner Warnings = %v", winner.Warnings)
	}

	loser := findParam(t, spec, "seed")
	if loser.CanonicalKey != "" {
		t.Errorf("loser CanonicalKey = %q, want unmapped", loser.CanonicalKey)
	}
	if len(loser.Warnings) != 1 {
		t.Fatalf("loser Warnings = %v, want one", loser.Warnings)
	}
	if !strings.Contains(loser.Warnings[0], string(model.ErrDuplicateCanonicalKey)) {
		t.Errorf("warning %q missing code", loser.Warnings[0])
	}
	if !strings.Contains(loser.Warnings[0], "aspect_ratio") {
		t.Errorf("warning %q does not name the holder", loser.Warnings[0])
	}
}

func TestBuild_duplicateWinnerIsStable(t *testing.T) {
	doc := testDoc()
	doc.UIConfig["seed"] = model.ParameterConfig{CanonicalKey: "format.aspect_ratio"}

	first := Build("m", testSchema(t), doc, canonical.NewRegistry(), Options{})
	for i := 0; i < 10; i++ {
		again := Build("m", testSchema(t), doc, canonical.NewRegistry(), Options{})
		if findParam(t, again, "aspect_ratio").CanonicalKey != findParam(t, first, "aspect_ratio").CanonicalKey {
			t.Fatal("duplicate winner changed between builds")
		}
	}
}

func TestBuild_mergesLegacyPricing(t *testing.T) {
	doc := testDoc()
	doc.PricingRules = []model.PricingRule{
		{ParamID: "aspect_ratio", Operator: "equals", Value: "16:9", Price: 3},
	}

	spec := Build("m", testSchema(t), doc, canonical.NewRegistry(), Options{})
	p := findParam(t, spec, "aspect_ratio")
	var price float64
	for _, v := range p.Values {
		if v.Value == "16:9" {
			price = v.Price
		}
	}
	if price != 3 {
		t.Errorf("legacy rule price not applied, got %v", price)
	}
}

// --- FilterForTier ---

func TestFilterForTier(t *testing.T) {
	doc := testDoc()
	doc.UIConfig["num_inference_steps"] = model.ParameterConfig{
		AccessTiers: []model.Tier{model.TierStudio},
	}
	doc.UIConfig["aspect_ratio"] = model.ParameterConfig{
		Values: []model.ParameterValue{
			{Value: "1:1", Enabled: true},
			{Value: "21:9", Enabled: true, AccessTiers: []model.Tier{model.TierStudio}},
		},
	}

	spec := Build("m", testSchema(t), doc, canonical.NewRegistry(), Options{})
	filtered := FilterForTier(spec, model.TierStarter)

	for _, p := range filtered.Parameters {
		if p.ID == "num_inference_steps" {
			t.Fatal("tier-gated parameter visible to starter")
		}
	}
	ar := findParam(t, filtered, "aspect_ratio")
	for _, v := range ar.Values {
		if v.Value == "21:9" {
			t.Error("tier-gated value visible to starter")
		}
	}
	for _, o := range ar.Options {
		if o.Value == "21:9" {
			t.Error("tier-gated option visible to starter")
		}
	}

	// The gated tier sees everything.
	studio := FilterForTier(spec, model.TierStudio)
	findParam(t, studio, "num_inference_steps")
}
