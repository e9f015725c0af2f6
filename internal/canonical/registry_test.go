package canonical

import (
	"testing"

	"github.com/Azzot88/artline-sub000/model"
)

func TestRegistry_get(t *testing.T) {
	reg := NewRegistry()

	def, ok := reg.Get("format.aspect_ratio")
	if !ok {
		t.Fatal("built-in key not found")
	}
	if def.Type != model.FieldEnum || def.Section != "format" {
		t.Errorf("def = %+v", def)
	}
	if _, ok := reg.Get("format.no_such"); ok {
		t.Error("unknown key resolved")
	}
}

func TestRegistry_extraOverridesBuiltin(t *testing.T) {
	reg := NewRegistry(model.CanonicalFieldDef{
		Key: "format.aspect_ratio", Label: "Shape",
		Type: model.FieldEnum, Section: "format",
		Options: []model.CanonicalOption{{Value: "1:1", Label: "Square"}},
	})

	def, ok := reg.Get("format.aspect_ratio")
	if !ok || def.Label != "Shape" {
		t.Errorf("overlay did not win: %+v", def)
	}
	if reg.Len() != len(Builtin()) {
		t.Errorf("Len() = %d, overlay on an existing key changed the count", reg.Len())
	}
}

func TestRegistry_allOrdering(t *testing.T) {
	reg := NewRegistry()
	all := reg.All()
	if len(all) != reg.Len() {
		t.Fatalf("All() len = %d, Len() = %d", len(all), reg.Len())
	}
	for i := 1; i < len(all); i++ {
		a, b := all[i-1], all[i]
		if a.Section > b.Section || (a.Section == b.Section && a.Key > b.Key) {
			t.Fatalf("All() out of order at %d: %s before %s", i, a.Key, b.Key)
		}
	}
}

func TestRegistry_replace(t *testing.T) {
	reg := NewRegistry()
	reg.Replace([]model.CanonicalFieldDef{
		{Key: "custom.thing", Label: "Thing", Type: model.FieldString, Section: "custom"},
	})
	if reg.Len() != 1 {
		t.Errorf("Len() = %d after Replace", reg.Len())
	}
	if _, ok := reg.Get("format.aspect_ratio"); ok {
		t.Error("Replace() kept old contents")
	}
}

func TestBuiltin_wellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range Builtin() {
		if err := validateField(f); err != nil {
			t.Errorf("built-in %q: %v", f.Key, err)
		}
		if seen[f.Key] {
			t.Errorf("duplicate built-in key %q", f.Key)
		}
		seen[f.Key] = true
	}
}
