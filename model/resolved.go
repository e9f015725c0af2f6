package model

// Option is a resolved label/value pair for select-style widgets.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// ResolvedParameter is the merged, render-ready description of one
// parameter. It is derived, never persisted: each schema load or config
// edit produces a fresh value that replaces the previous one.
type ResolvedParameter struct {
	ID          string        `json:"id"`
	Type        ValueType     `json:"type"`
	Label       string        `json:"label"`
	Description string        `json:"description,omitempty"`
	Widget      ComponentType `json:"widget"`
	Required    bool          `json:"required"`

	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`

	// UIMin/UIMax bound the display slider independently of Min/Max,
	// which bound the payload.
	UIMin *float64 `json:"ui_min,omitempty"`
	UIMax *float64 `json:"ui_max,omitempty"`

	Default any      `json:"default,omitempty"`
	Options []Option `json:"options,omitempty"`

	Hidden         bool   `json:"hidden"`
	VisibleIfParam string `json:"visible_if_param,omitempty"`
	VisibleIfValue any    `json:"visible_if_value,omitempty"`

	// VisibleToTiers empty means all tiers.
	VisibleToTiers []Tier           `json:"visible_to_tiers,omitempty"`
	Values         []ParameterValue `json:"values,omitempty"`

	// Payload-construction facts carried through for BuildPayload.
	TransformMultiply *float64       `json:"transform_multiply,omitempty"`
	TransformOffset   *float64       `json:"transform_offset,omitempty"`
	EnumMap           map[string]any `json:"enum_map,omitempty"`

	// Configured is true when an admin overlay exists for this parameter.
	Configured bool `json:"configured"`
	// Orphaned is true when the parameter is configured but no longer
	// present in the raw schema.
	Orphaned bool `json:"orphaned,omitempty"`
	// CanonicalKey is the canonical slot this parameter maps to, if any.
	CanonicalKey string `json:"canonical_key,omitempty"`
	// Section is the UI section, from the canonical field when mapped.
	Section string `json:"section,omitempty"`

	// Warnings are non-fatal data-quality notes gathered while resolving
	// (unknown canonical key, values outside the raw domain).
	Warnings []string `json:"warnings,omitempty"`
}

// IsNumeric reports whether the parameter carries a numeric payload.
func (p ResolvedParameter) IsNumeric() bool {
	switch p.Type {
	case TypeInteger, TypeNumber, TypeIntegerNullable:
		return true
	}
	return false
}

// StalenessReport describes how far a model's schema and configuration have
// drifted apart. It is advisory: a stale model still builds a usable spec.
type StalenessReport struct {
	State        LifecycleState `json:"state"`
	NewKeys      []string       `json:"new_keys,omitempty"`
	OrphanedKeys []string       `json:"orphaned_keys,omitempty"`
}
