// Package paramconfig edits per-model configuration documents. All
// operations are snapshot-in, snapshot-out: they deep-copy the document,
// apply the change, and return the copy, so a document held by a concurrent
// reader is never mutated.
package paramconfig

import (
	"encoding/json"
	"fmt"

	"github.com/Azzot88/artline-sub000/internal/canonical"
	"github.com/Azzot88/artline-sub000/internal/valuelist"
	"github.com/Azzot88/artline-sub000/model"
)

// Upsert merges a partial JSON patch into the configuration for paramID.
// Fields absent from the patch keep their current value; fields present
// replace it, including explicit nulls for pointer fields.
//
// Setting canonical_key additionally derives component_type, type, and the
// display label from the registry entry, unless the same patch sets those
// fields itself or a custom label already exists. An unknown canonical key
// is stored anyway and reported as a warning so the mapping survives a
// registry that has not caught up yet.
func Upsert(doc model.ConfigDocument, reg *canonical.Registry, raw *model.RawParameterDef, paramID string, patch json.RawMessage) (model.ConfigDocument, []string, error) {
	if paramID == "" {
		return doc, nil, model.NewBadRequestError("parameter id is required")
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(patch, &present); err != nil {
		return doc, nil, model.NewBadRequestError("config patch must be a JSON object")
	}

	out := doc.Clone()
	if out.UIConfig == nil {
		out.UIConfig = make(map[string]model.ParameterConfig)
	}
	cfg := out.UIConfig[paramID]
	if err := json.Unmarshal(patch, &cfg); err != nil {
		return doc, nil, model.NewBadRequestError(fmt.Sprintf("invalid config patch: %v", err))
	}

	var warnings []string
	if _, touched := present["canonical_key"]; touched && cfg.CanonicalKey != "" {
		def, ok := reg.Get(cfg.CanonicalKey)
		if !ok {
			warnings = append(warnings, fmt.Sprintf(
				"%s: canonical key %q not in registry", model.ErrUnknownCanonicalKey, cfg.CanonicalKey))
		} else {
			deriveFromCanonical(&cfg, def, present)
		}
		if holder := mappedElsewhere(doc, paramID, cfg.CanonicalKey); holder != "" {
			warnings = append(warnings, fmt.Sprintf(
				"%s: canonical key %q already mapped by %q", model.ErrDuplicateCanonicalKey, cfg.CanonicalKey, holder))
		}
	}

	if verr := validateConfig(&cfg, raw); verr != nil {
		return doc, nil, verr
	}

	cfg.Values = valuelist.NormalizeDefaults(dedupeValues(cfg.Values))
	out.UIConfig[paramID] = cfg
	return out, warnings, nil
}

// mappedElsewhere returns the lowest-ordered other parameter already
// mapped to the canonical key, or "" when the mapping is free.
func mappedElsewhere(doc model.ConfigDocument, paramID, canonicalKey string) string {
	holder := ""
	for id, other := range doc.UIConfig {
		if id == paramID || other.CanonicalKey != canonicalKey {
			continue
		}
		if holder == "" || id < holder {
			holder = id
		}
	}
	return holder
}

// deriveFromCanonical fills widget, type, and label defaults from the
// canonical field, skipping anything the patch set explicitly.
func deriveFromCanonical(cfg *model.ParameterConfig, def model.CanonicalFieldDef, present map[string]json.RawMessage) {
	if _, ok := present["component_type"]; !ok {
		cfg.ComponentType = widgetFor(def)
	}
	if _, ok := present["type"]; !ok {
		cfg.Type = typeFor(def)
	}
	if cfg.CustomLabel == "" && def.Label != "" {
		cfg.CustomLabel = def.Label
	}
}

func widgetFor(def model.CanonicalFieldDef) model.ComponentType {
	switch def.Type {
	case model.FieldEnum:
		return model.ComponentSelect
	case model.FieldInteger, model.FieldNumber:
		return model.ComponentSlider
	case model.FieldBoolean:
		return model.ComponentSwitch
	case model.FieldImage:
		return model.ComponentFile
	default:
		return model.ComponentText
	}
}

func typeFor(def model.CanonicalFieldDef) model.ValueType {
	switch def.Type {
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

// validateConfig rejects patches that could not resolve to anything usable.
// Domain drift against the raw schema is deliberately NOT an error here; it
// surfaces as resolve-time warnings and self-heals on the next refresh.
func validateConfig(cfg *model.ParameterConfig, raw *model.RawParameterDef) *model.ErrorEnvelope {
	var details []model.FieldError
	if cfg.TransformMultiply != nil && *cfg.TransformMultiply == 0 {
		details = append(details, model.FieldError{
			Field:   "transform_multiply",
			Code:    model.ErrBadRequest,
			Message: "multiplier must be non-zero",
		})
	}
	if cfg.UIMin != nil && cfg.UIMax != nil && *cfg.UIMin > *cfg.UIMax {
		details = append(details, model.FieldError{
			Field:   "ui_min",
			Code:    model.ErrBadRequest,
			Message: "ui_min must not exceed ui_max",
		})
	}
	if cfg.VisibleIfValue != nil && cfg.VisibleIfParam == "" {
		details = append(details, model.FieldError{
			Field:   "visible_if_param",
			Code:    model.ErrBadRequest,
			Message: "visible_if_value requires visible_if_param",
		})
	}
	if len(details) > 0 {
		return model.NewValidationError(details)
	}
	return nil
}

// dedupeValues keeps the first entry per distinct value. Duplicate entries
// only appear in documents written by older tooling.
func dedupeValues(values []model.ParameterValue) []model.ParameterValue {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		k := valuelist.ValueKey(v.Value)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// Remove deletes the configuration for paramID, returning the parameter to
// its raw-schema defaults. Removing an unknown id is a no-op.
func Remove(doc model.ConfigDocument, paramID string) model.ConfigDocument {
	out := doc.Clone()
	delete(out.UIConfig, paramID)
	return out
}
