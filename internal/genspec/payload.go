package genspec

import (
	"github.com/Azzot88/artline-sub000/internal/normalize"
	"github.com/Azzot88/artline-sub000/internal/valuelist"
	"github.com/Azzot88/artline-sub000/model"
)

func valueKey(v any) string { return valuelist.ValueKey(v) }

// BuildPayload turns user selections into the provider request body.
// Per parameter: the user's value, else the resolved default; parameters
// that are hidden, invisible under their visibility condition, or simply
// valueless and optional are omitted. Enum remapping and linear transforms
// convert display values into the raw values the provider expects.
//
// A required parameter with no value and no default is the one hard
// failure; everything else degrades to omission.
func BuildPayload(params []model.ResolvedParameter, userValues map[string]any) (map[string]any, error) {
	// Effective display values drive visibility, so a parameter gated on
	// another parameter's default behaves the same whether or not the user
	// touched that other parameter.
	effective := make(map[string]any, len(params))
	for _, p := range params {
		if v, ok := userValues[p.ID]; ok {
			effective[p.ID] = v
		} else if p.Default != nil {
			effective[p.ID] = p.Default
		}
	}
	lookup := normalize.MapLookup(effective)

	payload := make(map[string]any, len(params))
	var missing []model.FieldError
	for _, p := range params {
		if p.Hidden || p.Orphaned {
			continue
		}
		if !visible(p, lookup) {
			continue
		}
		value, ok := effective[p.ID]
		if !ok || value == nil {
			if p.Required {
				missing = append(missing, model.FieldError{
					Field:   p.ID,
					Code:    model.ErrMissingRequiredValue,
					Message: "no value provided and no default available",
				})
			}
			continue
		}
		payload[p.ID] = rawValue(p, value)
	}
	if len(missing) > 0 {
		return nil, model.NewMissingRequiredValueError(missing)
	}
	return payload, nil
}

func visible(p model.ResolvedParameter, lookup func(string) (any, bool)) bool {
	if p.VisibleIfParam == "" {
		return true
	}
	return normalize.Eq(p.VisibleIfParam, p.VisibleIfValue).Eval(lookup)
}

// rawValue converts one display value into its provider form: enum
// remapping first, then the linear transform for numeric parameters.
func rawValue(p model.ResolvedParameter, display any) any {
	v := normalize.PayloadValue(p.EnumMap, display)
	if !p.IsNumeric() {
		return v
	}
	f, ok := normalize.Number(v)
	if !ok {
		return v
	}
	lin := normalize.LinearFrom(p.TransformMultiply, p.TransformOffset)
	if lin.IsIdentity() {
		return v
	}
	out := lin.Forward(f)
	if p.Type == model.TypeInteger || p.Type == model.TypeIntegerNullable {
		return int64(out)
	}
	return out
}
