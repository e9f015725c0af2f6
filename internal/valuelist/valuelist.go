// Package valuelist implements the editing and reconciliation rules for a
// parameter's discrete value list: the individually priced, tier-gated
// options an administrator curates on top of the provider's raw domain.
package valuelist

import (
	"fmt"

	"github.com/Azzot88/artline-sub000/model"
)

// ValueKey normalizes a raw value for identity comparison. Raw schemas and
// saved configs round-trip through JSON, so 30 may arrive as int or
// float64; string comparison makes the match representation-independent.
func ValueKey(v any) string {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprint(int64(n))
		}
	}
	return fmt.Sprint(v)
}

// Add appends a new entry, rejecting duplicates by value.
func Add(values []model.ParameterValue, entry model.ParameterValue) ([]model.ParameterValue, error) {
	key := ValueKey(entry.Value)
	for _, v := range values {
		if ValueKey(v.Value) == key {
			return nil, fmt.Errorf("value %v already present", entry.Value)
		}
	}
	out := cloneList(values)
	if entry.IsDefault {
		for i := range out {
			out[i].IsDefault = false
		}
	}
	return append(out, entry), nil
}

// Remove deletes the entry with the given value, if present.
func Remove(values []model.ParameterValue, value any) []model.ParameterValue {
	key := ValueKey(value)
	out := make([]model.ParameterValue, 0, len(values))
	for _, v := range values {
		if ValueKey(v.Value) != key {
			out = append(out, v)
		}
	}
	return out
}

// SetDefault flags the entry with the given value as the default, clearing
// the flag on every other entry in the same operation.
func SetDefault(values []model.ParameterValue, value any) []model.ParameterValue {
	key := ValueKey(value)
	out := cloneList(values)
	for i := range out {
		out[i].IsDefault = ValueKey(out[i].Value) == key
	}
	return out
}

// NormalizeDefaults enforces the single-default invariant on a list that
// may have drifted (e.g. merged from two admin sessions): the last entry
// flagged default wins, all earlier flags are cleared.
func NormalizeDefaults(values []model.ParameterValue) []model.ParameterValue {
	last := -1
	for i, v := range values {
		if v.IsDefault {
			last = i
		}
	}
	if last < 0 {
		return values
	}
	out := cloneList(values)
	for i := range out {
		out[i].IsDefault = i == last
	}
	return out
}

// Reconcile merges the current raw/canonical option domain into an existing
// value list:
//
//   - entries matching a still-present option by value are kept as-is,
//     preserving admin edits;
//   - new options are appended enabled, price zero, open to all tiers, and
//     flagged default only when they equal the raw schema's declared
//     default and no default exists yet;
//   - entries whose value left the domain are kept (the admin may be
//     editing ahead of a schema refresh) but excluded from resolved
//     options elsewhere.
//
// Reconcile is idempotent: running it twice against the same domain yields
// the same list.
func Reconcile(values []model.ParameterValue, domain []any, rawDefault any) []model.ParameterValue {
	out := cloneList(values)

	present := make(map[string]bool, len(out))
	hasDefault := false
	for _, v := range out {
		present[ValueKey(v.Value)] = true
		if v.IsDefault {
			hasDefault = true
		}
	}

	defaultKey := ""
	if rawDefault != nil {
		defaultKey = ValueKey(rawDefault)
	}

	for _, opt := range domain {
		key := ValueKey(opt)
		if present[key] {
			continue
		}
		present[key] = true
		entry := model.ParameterValue{
			Value:       opt,
			Enabled:     true,
			Price:       0,
			AccessTiers: model.AllTiers(),
		}
		if !hasDefault && defaultKey != "" && key == defaultKey {
			entry.IsDefault = true
			hasDefault = true
		}
		out = append(out, entry)
	}
	return out
}

// InDomain reports whether a value belongs to the given option domain.
func InDomain(value any, domain []any) bool {
	key := ValueKey(value)
	for _, d := range domain {
		if ValueKey(d) == key {
			return true
		}
	}
	return false
}

func cloneList(values []model.ParameterValue) []model.ParameterValue {
	out := make([]model.ParameterValue, len(values))
	for i, v := range values {
		cv := v
		if v.AccessTiers != nil {
			cv.AccessTiers = append([]model.Tier(nil), v.AccessTiers...)
		}
		out[i] = cv
	}
	return out
}
