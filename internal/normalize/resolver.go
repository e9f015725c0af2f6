// Package normalize merges a raw provider parameter definition, its
// canonical mapping, and the admin configuration overlay into one resolved,
// render-ready parameter. Resolve is a pure function: the same three inputs
// always produce the same output.
package normalize

import (
	"fmt"
	"strings"

	"github.com/Azzot88/artline-sub000/internal/valuelist"
	"github.com/Azzot88/artline-sub000/model"
)

var (
	stepInteger = 1.0
	stepNumber  = 0.01
)

// Resolve merges the three layers for one parameter id. Any input may be
// nil: a missing raw definition means a manually-added parameter, a nil
// canonical definition means unmapped, a nil config means unconfigured.
func Resolve(id string, raw *model.RawParameterDef, canon *model.CanonicalFieldDef, cfg *model.ParameterConfig) model.ResolvedParameter {
	p := model.ResolvedParameter{
		ID:         id,
		Configured: cfg != nil,
	}
	if cfg == nil {
		cfg = &model.ParameterConfig{}
	}

	if cfg.CanonicalKey != "" {
		p.CanonicalKey = cfg.CanonicalKey
		if canon == nil {
			p.Warnings = append(p.Warnings, fmt.Sprintf(
				"%s: canonical key %q not in registry", model.ErrUnknownCanonicalKey, cfg.CanonicalKey))
		}
	}
	if canon != nil {
		p.Section = canon.Section
	}

	p.Type = resolveType(cfg, canon, raw)
	p.Widget = resolveWidget(cfg, canon, raw, p.Type)
	p.Label = resolveLabel(id, cfg, canon, raw)
	p.Description = resolveDescription(cfg, raw)
	p.Required = raw != nil && raw.Required

	// Value domain: allowed_values restricts the raw domain to their
	// intersection. Values the provider would reject are dropped from the
	// resolved options but left in the config so they self-heal if the
	// schema reintroduces them.
	domain := rawDomain(raw, canon)
	if len(cfg.AllowedValues) > 0 && domain != nil {
		var kept []any
		dropped := 0
		for _, v := range domain {
			if valuelist.InDomain(v, cfg.AllowedValues) {
				kept = append(kept, v)
			}
		}
		for _, v := range cfg.AllowedValues {
			if !valuelist.InDomain(v, domain) {
				dropped++
			}
		}
		if dropped > 0 {
			p.Warnings = append(p.Warnings, fmt.Sprintf(
				"%s: %d allowed value(s) not in the provider domain", model.ErrValueDomainConflict, dropped))
		}
		domain = kept
	}

	var rawDefault any
	if raw != nil {
		rawDefault = raw.Default
	}

	// Reconcile the discrete value list against the current domain, then
	// normalize defaults defensively (a drifted list may carry more than
	// one default flag; the most recently set one wins).
	p.Values = valuelist.NormalizeDefaults(valuelist.Reconcile(cfg.Values, domain, rawDefault))
	p.Options = resolveOptions(p.Values, domain, canon)

	p.Default = resolveDefault(cfg, p.Values, rawDefault)
	p.Min, p.Max = resolveBounds(raw, canon)
	if p.IsNumeric() {
		if p.Type == model.TypeNumber {
			p.Step = &stepNumber
		} else {
			p.Step = &stepInteger
		}
	}

	p.UIMin = cfg.UIMin
	p.UIMax = cfg.UIMax
	p.TransformMultiply = cfg.TransformMultiply
	p.TransformOffset = cfg.TransformOffset
	p.EnumMap = cfg.EnumMap

	// Raw schema defaults and values-list entries hold payload-unit
	// values; the resolved default is what the UI displays, so map them
	// through the inverse transform. An override_default is entered in
	// display units and passes through untouched.
	if cfg.OverrideDefault == nil && p.IsNumeric() {
		if lin := LinearFrom(cfg.TransformMultiply, cfg.TransformOffset); !lin.IsIdentity() {
			if f, ok := Number(p.Default); ok {
				p.Default = lin.Inverse(f)
			}
		}
	}

	p.Hidden = !cfg.IsEnabled()
	p.VisibleIfParam = cfg.VisibleIfParam
	p.VisibleIfValue = cfg.VisibleIfValue
	p.VisibleToTiers = cfg.AccessTiers

	return p
}

// rawDomain returns the option domain: the raw enum when present, else the
// canonical field's option set, else nil (continuous or free-form).
func rawDomain(raw *model.RawParameterDef, canon *model.CanonicalFieldDef) []any {
	if raw != nil && len(raw.Enum) > 0 {
		return raw.Enum
	}
	if canon != nil && canon.Type == model.FieldEnum {
		return canon.OptionValues()
	}
	return nil
}

// resolveOptions builds the visible option list from the reconciled values:
// enabled entries that are still members of the domain (all enabled entries
// when the parameter has no discrete domain).
func resolveOptions(values []model.ParameterValue, domain []any, canon *model.CanonicalFieldDef) []model.Option {
	var opts []model.Option
	for _, v := range values {
		if !v.Enabled {
			continue
		}
		if domain != nil && !valuelist.InDomain(v.Value, domain) {
			continue
		}
		opts = append(opts, model.Option{Value: v.Value, Label: optionLabel(v, canon)})
	}
	return opts
}

func optionLabel(v model.ParameterValue, canon *model.CanonicalFieldDef) string {
	if v.Label != "" {
		return v.Label
	}
	if canon != nil {
		if l := canon.OptionLabel(valuelist.ValueKey(v.Value)); l != "" {
			return l
		}
	}
	return valuelist.ValueKey(v.Value)
}

// resolveLabel: custom label > canonical label > raw title > parameter id.
func resolveLabel(id string, cfg *model.ParameterConfig, canon *model.CanonicalFieldDef, raw *model.RawParameterDef) string {
	if cfg.CustomLabel != "" {
		return cfg.CustomLabel
	}
	if canon != nil && canon.Label != "" {
		return canon.Label
	}
	if raw != nil && raw.Title != "" {
		return raw.Title
	}
	return id
}

func resolveDescription(cfg *model.ParameterConfig, raw *model.RawParameterDef) string {
	if cfg.CustomDescription != "" {
		return cfg.CustomDescription
	}
	if raw != nil {
		return raw.Description
	}
	return ""
}

// resolveType: explicit config type > type implied by the canonical
// mapping > raw schema inference > string fallback.
func resolveType(cfg *model.ParameterConfig, canon *model.CanonicalFieldDef, raw *model.RawParameterDef) model.ValueType {
	if cfg.Type != "" {
		return cfg.Type
	}
	if canon != nil {
		return TypeForField(canon.Type)
	}
	if raw != nil {
		if len(raw.Enum) > 0 {
			return model.TypeEnum
		}
		switch raw.Type {
		case "integer":
			return model.TypeInteger
		case "number":
			return model.TypeNumber
		case "boolean":
			return model.TypeBoolean
		}
	}
	return model.TypeString
}

// resolveWidget: explicit component override > widget implied by the
// canonical mapping > widget inferred from the resolved type.
func resolveWidget(cfg *model.ParameterConfig, canon *model.CanonicalFieldDef, raw *model.RawParameterDef, typ model.ValueType) model.ComponentType {
	if cfg.ComponentType != "" && cfg.ComponentType != model.ComponentAuto {
		return cfg.ComponentType
	}
	if canon != nil {
		return WidgetForField(canon.Type, canon.Key)
	}
	if raw != nil && len(raw.Enum) > 0 {
		return model.ComponentSelect
	}
	switch typ {
	case model.TypeInteger, model.TypeNumber, model.TypeIntegerNullable:
		return model.ComponentSlider
	case model.TypeBoolean:
		return model.ComponentSwitch
	case model.TypeEnum:
		return model.ComponentSelect
	default:
		return model.ComponentText
	}
}

// resolveDefault: override_default > the value flagged default in the
// reconciled list > raw schema default.
func resolveDefault(cfg *model.ParameterConfig, values []model.ParameterValue, rawDefault any) any {
	if cfg.OverrideDefault != nil {
		return cfg.OverrideDefault
	}
	for _, v := range values {
		if v.IsDefault {
			return v.Value
		}
	}
	return rawDefault
}

// resolveBounds: raw payload bounds win; canonical bounds fill the gaps.
func resolveBounds(raw *model.RawParameterDef, canon *model.CanonicalFieldDef) (*float64, *float64) {
	var min, max *float64
	if raw != nil {
		min, max = raw.Minimum, raw.Maximum
	}
	if canon != nil {
		if min == nil {
			min = canon.Min
		}
		if max == nil {
			max = canon.Max
		}
	}
	return min, max
}

// TypeForField maps a canonical field type to the payload value type.
func TypeForField(ft model.FieldType) model.ValueType {
	switch ft {
	case model.FieldInteger:
		return model.TypeInteger
	case model.FieldNumber:
		return model.TypeNumber
	case model.FieldBoolean:
		return model.TypeBoolean
	case model.FieldEnum:
		return model.TypeEnum
	default:
		return model.TypeString
	}
}

// WidgetForField maps a canonical field type to its default widget. String
// fields whose key names a negative prompt get a textarea; everything else
// string-typed gets a plain text input.
func WidgetForField(ft model.FieldType, key string) model.ComponentType {
	switch ft {
	case model.FieldEnum:
		return model.ComponentSelect
	case model.FieldInteger, model.FieldNumber:
		return model.ComponentSlider
	case model.FieldBoolean:
		return model.ComponentSwitch
	case model.FieldImage:
		return model.ComponentFile
	case model.FieldString:
		if strings.Contains(key, "negative") {
			return model.ComponentTextarea
		}
		return model.ComponentText
	default:
		return model.ComponentText
	}
}

// PayloadValue translates a canonical option the user selected into the raw
// payload value via the enum map. Options with no mapping fall back to
// their own value unchanged.
func PayloadValue(enumMap map[string]any, chosen any) any {
	if len(enumMap) == 0 {
		return chosen
	}
	if mapped, ok := enumMap[valuelist.ValueKey(chosen)]; ok {
		return mapped
	}
	return chosen
}
