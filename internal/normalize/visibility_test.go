package normalize

import (
	"testing"

	"github.com/Azzot88/artline-sub000/model"
)

func TestExpr_evalEq(t *testing.T) {
	lookup := MapLookup(map[string]any{"mode": "video", "steps": float64(30)})

	if !Eq("mode", "video").Eval(lookup) {
		t.Error("eq on matching value = false")
	}
	if Eq("mode", "image").Eval(lookup) {
		t.Error("eq on differing value = true")
	}
	// Missing operand is false, not an error.
	if Eq("absent", "x").Eval(lookup) {
		t.Error("eq on missing parameter = true")
	}
	// Numeric values match across representations.
	if !Eq("steps", int(30)).Eval(lookup) {
		t.Error("eq int(30) vs float64(30) = false")
	}
}

func TestExpr_evalComposite(t *testing.T) {
	lookup := MapLookup(map[string]any{"mode": "video", "fps": float64(24)})

	if !And(Eq("mode", "video"), Eq("fps", 24)).Eval(lookup) {
		t.Error("and over true clauses = false")
	}
	if And(Eq("mode", "video"), Eq("fps", 60)).Eval(lookup) {
		t.Error("and with a false clause = true")
	}
	if !Or(Eq("mode", "image"), Eq("fps", 24)).Eval(lookup) {
		t.Error("or with a true clause = false")
	}
	if !Not(Eq("mode", "image")).Eval(lookup) {
		t.Error("not over false clause = false")
	}
}

func TestExpr_evalTotal(t *testing.T) {
	lookup := MapLookup(nil)

	var nilExpr *Expr
	if !nilExpr.Eval(lookup) {
		t.Error("nil expression = false, want vacuously true")
	}
	if (&Expr{Op: "between"}).Eval(lookup) {
		t.Error("unknown operator = true, want false")
	}
	if (&Expr{Op: "not"}).Eval(lookup) {
		t.Error("not with no argument = true, want false")
	}
}

func TestCondFrom(t *testing.T) {
	if e := CondFrom(nil); e != nil {
		t.Errorf("CondFrom(nil) = %+v", e)
	}
	if e := CondFrom(&model.ParameterConfig{}); e != nil {
		t.Errorf("CondFrom(empty) = %+v", e)
	}
	e := CondFrom(&model.ParameterConfig{VisibleIfParam: "mode", VisibleIfValue: "video"})
	if e == nil || e.Op != "eq" || e.Param != "mode" {
		t.Errorf("CondFrom = %+v", e)
	}
}

func TestVisible(t *testing.T) {
	lookup := MapLookup(map[string]any{"mode": "video"})
	off := false

	if !Visible(nil, lookup) {
		t.Error("nil config not visible")
	}
	// Enabled is a hard gate: the clause is never consulted.
	cfg := &model.ParameterConfig{Enabled: &off, VisibleIfParam: "mode", VisibleIfValue: "video"}
	if Visible(cfg, lookup) {
		t.Error("disabled parameter visible despite matching clause")
	}
	cfg = &model.ParameterConfig{VisibleIfParam: "mode", VisibleIfValue: "video"}
	if !Visible(cfg, lookup) {
		t.Error("matching clause not visible")
	}
	cfg = &model.ParameterConfig{VisibleIfParam: "mode", VisibleIfValue: "image"}
	if Visible(cfg, lookup) {
		t.Error("non-matching clause visible")
	}
}
