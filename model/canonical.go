// Package model contains the shared domain types for the Artline parameter
// engine: the canonical field vocabulary, raw provider schema fragments, the
// admin configuration overlay, and the resolved render-ready parameter spec.
package model

// FieldType enumerates the semantic types a canonical field can declare.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldEnum    FieldType = "enum"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
	FieldImage   FieldType = "image"
)

// CanonicalOption is one entry of a canonical enum field's option set.
type CanonicalOption struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// CanonicalFieldDef is one provider-independent semantic parameter slot.
// Keys are dotted "section.name" strings and are globally unique; the table
// is immutable once the registry is built.
type CanonicalFieldDef struct {
	Key     string            `yaml:"key"     json:"key"`
	Label   string            `yaml:"label"   json:"label"`
	Type    FieldType         `yaml:"type"    json:"type"`
	Section string            `yaml:"section" json:"section"`
	Options []CanonicalOption `yaml:"options" json:"options,omitempty"`
	Min     *float64          `yaml:"min"     json:"min,omitempty"`
	Max     *float64          `yaml:"max"     json:"max,omitempty"`
}

// OptionValues returns the raw values of the field's option set.
func (d CanonicalFieldDef) OptionValues() []any {
	if len(d.Options) == 0 {
		return nil
	}
	vals := make([]any, len(d.Options))
	for i, o := range d.Options {
		vals[i] = o.Value
	}
	return vals
}

// OptionLabel returns the display label for a given option value, or the
// empty string if the value is not part of the option set.
func (d CanonicalFieldDef) OptionLabel(value string) string {
	for _, o := range d.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return ""
}
