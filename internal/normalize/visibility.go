package normalize

import (
	"github.com/Azzot88/artline-sub000/model"
	"github.com/Azzot88/artline-sub000/internal/valuelist"
)

// Expr is a small boolean expression tree evaluated against a parameter
// value lookup. Persisted configs only ever produce a single Eq clause
// today; And/Or/Not exist so richer conditions stay an additive change.
type Expr struct {
	Op    string // "eq", "and", "or", "not"
	Param string
	Value any
	Args  []*Expr
}

// Eq matches when the named parameter's current value equals the given one.
func Eq(param string, value any) *Expr {
	return &Expr{Op: "eq", Param: param, Value: value}
}

// And matches when every argument matches.
func And(args ...*Expr) *Expr { return &Expr{Op: "and", Args: args} }

// Or matches when any argument matches.
func Or(args ...*Expr) *Expr { return &Expr{Op: "or", Args: args} }

// Not inverts its single argument.
func Not(arg *Expr) *Expr { return &Expr{Op: "not", Args: []*Expr{arg}} }

// Eval evaluates the expression against a value lookup. The evaluator is
// total: a nil expression is true, an unknown operator or missing operand
// is false.
func (e *Expr) Eval(lookup func(string) (any, bool)) bool {
	if e == nil {
		return true
	}
	switch e.Op {
	case "eq":
		v, ok := lookup(e.Param)
		return ok && valuelist.ValueKey(v) == valuelist.ValueKey(e.Value)
	case "and":
		for _, a := range e.Args {
			if !a.Eval(lookup) {
				return false
			}
		}
		return true
	case "or":
		for _, a := range e.Args {
			if a.Eval(lookup) {
				return true
			}
		}
		return false
	case "not":
		return len(e.Args) == 1 && !e.Args[0].Eval(lookup)
	default:
		return false
	}
}

// CondFrom builds the visibility expression from a config's single-clause
// conditional. Returns nil (always visible) when no clause is set.
func CondFrom(cfg *model.ParameterConfig) *Expr {
	if cfg == nil || cfg.VisibleIfParam == "" {
		return nil
	}
	return Eq(cfg.VisibleIfParam, cfg.VisibleIfValue)
}

// Visible reports whether a parameter is visible given the current sibling
// parameter values. The config-level enabled flag is a hard gate; the
// conditional clause only applies once the parameter is enabled.
func Visible(cfg *model.ParameterConfig, lookup func(string) (any, bool)) bool {
	if cfg == nil {
		return true
	}
	if !cfg.IsEnabled() {
		return false
	}
	return CondFrom(cfg).Eval(lookup)
}

// MapLookup adapts a plain map to the lookup signature.
func MapLookup(values map[string]any) func(string) (any, bool) {
	return func(key string) (any, bool) {
		v, ok := values[key]
		return v, ok
	}
}
