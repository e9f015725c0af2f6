package model

// Tier is a subscription access level. An empty access_tiers list on a
// parameter or value means "visible to all tiers".
type Tier string

const (
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
	TierStudio  Tier = "studio"
)

// AllTiers returns every known subscription tier, lowest first.
func AllTiers() []Tier {
	return []Tier{TierStarter, TierPro, TierStudio}
}

// TierAllowed reports whether the requesting tier may see something gated by
// the given tier list. An empty list gates nothing.
func TierAllowed(gate []Tier, requesting Tier) bool {
	if len(gate) == 0 {
		return true
	}
	for _, t := range gate {
		if t == requesting {
			return true
		}
	}
	return false
}

// ComponentType enumerates the form controls a parameter can render as.
type ComponentType string

const (
	ComponentAuto     ComponentType = "auto"
	ComponentText     ComponentType = "text"
	ComponentTextarea ComponentType = "textarea"
	ComponentSlider   ComponentType = "slider"
	ComponentSelect   ComponentType = "select"
	ComponentSwitch   ComponentType = "switch"
	ComponentFile     ComponentType = "file"
)

// ValueType enumerates the payload value types a parameter config can force.
type ValueType string

const (
	TypeString          ValueType = "string"
	TypeInteger         ValueType = "integer"
	TypeNumber          ValueType = "number"
	TypeBoolean         ValueType = "boolean"
	TypeEnum            ValueType = "enum"
	TypeIntegerNullable ValueType = "integer_nullable"
)

// ParameterValue is one entry of a parameter's discrete value list: a raw
// value the provider accepts, with its display label, gating, and pricing.
// At most one entry per list has IsDefault set; Value is unique in the list.
type ParameterValue struct {
	Value       any     `json:"value"`
	Label       string  `json:"label,omitempty"`
	Enabled     bool    `json:"enabled"`
	IsDefault   bool    `json:"is_default"`
	Price       float64 `json:"price"`
	AccessTiers []Tier  `json:"access_tiers"`
}

// ParameterConfig is the persisted, administrator-authored overlay for one
// raw parameter. Every field is optional; an absent config means the raw
// schema definition applies unchanged.
type ParameterConfig struct {
	Enabled           *bool            `json:"enabled,omitempty"`
	CustomLabel       string           `json:"custom_label,omitempty"`
	CustomDescription string           `json:"custom_description,omitempty"`
	CanonicalKey      string           `json:"canonical_key,omitempty"`
	ComponentType     ComponentType    `json:"component_type,omitempty"`
	Type              ValueType        `json:"type,omitempty"`
	AllowedValues     []any            `json:"allowed_values,omitempty"`
	EnumMap           map[string]any   `json:"enum_map,omitempty"`
	TransformMultiply *float64         `json:"transform_multiply,omitempty"`
	TransformOffset   *float64         `json:"transform_offset,omitempty"`
	UIMin             *float64         `json:"ui_min,omitempty"`
	UIMax             *float64         `json:"ui_max,omitempty"`
	VisibleIfParam    string           `json:"visible_if_param,omitempty"`
	VisibleIfValue    any              `json:"visible_if_value,omitempty"`
	AccessTiers       []Tier           `json:"access_tiers,omitempty"`
	Values            []ParameterValue `json:"values,omitempty"`
	OverrideDefault   any              `json:"override_default,omitempty"`
}

// IsEnabled reports whether the parameter is enabled. Absent means enabled.
func (c ParameterConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Clone returns a deep copy. Config snapshots are never mutated in place;
// every store operation copies, edits, and returns a new snapshot.
func (c ParameterConfig) Clone() ParameterConfig {
	out := c
	if c.Enabled != nil {
		v := *c.Enabled
		out.Enabled = &v
	}
	out.TransformMultiply = cloneFloat(c.TransformMultiply)
	out.TransformOffset = cloneFloat(c.TransformOffset)
	out.UIMin = cloneFloat(c.UIMin)
	out.UIMax = cloneFloat(c.UIMax)
	if c.AllowedValues != nil {
		out.AllowedValues = append([]any(nil), c.AllowedValues...)
	}
	if c.EnumMap != nil {
		out.EnumMap = make(map[string]any, len(c.EnumMap))
		for k, v := range c.EnumMap {
			out.EnumMap[k] = v
		}
	}
	if c.AccessTiers != nil {
		out.AccessTiers = append([]Tier(nil), c.AccessTiers...)
	}
	if c.Values != nil {
		out.Values = make([]ParameterValue, len(c.Values))
		for i, v := range c.Values {
			cv := v
			if v.AccessTiers != nil {
				cv.AccessTiers = append([]Tier(nil), v.AccessTiers...)
			}
			out.Values[i] = cv
		}
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// PricingRule is the legacy per-value surcharge representation, keyed by
// (param_id, operator, value). It is read as a migration source only; the
// engine never writes it back.
type PricingRule struct {
	ParamID     string  `json:"param_id"`
	Operator    string  `json:"operator"`
	Value       any     `json:"value"`
	Price       float64 `json:"price"`
	AccessTiers []Tier  `json:"access_tiers,omitempty"`
}

// ConfigDocument is the persisted per-model configuration document.
type ConfigDocument struct {
	UIConfig     map[string]ParameterConfig `json:"ui_config"`
	PricingRules []PricingRule              `json:"pricing_rules,omitempty"`
}

// Clone returns a deep copy of the document.
func (d ConfigDocument) Clone() ConfigDocument {
	out := ConfigDocument{}
	if d.UIConfig != nil {
		out.UIConfig = make(map[string]ParameterConfig, len(d.UIConfig))
		for k, v := range d.UIConfig {
			out.UIConfig[k] = v.Clone()
		}
	}
	if d.PricingRules != nil {
		out.PricingRules = append([]PricingRule(nil), d.PricingRules...)
	}
	return out
}

// LifecycleState is the per-model configuration lifecycle.
type LifecycleState string

const (
	// StateUnconfigured: no raw schema fetched yet.
	StateUnconfigured LifecycleState = "unconfigured"
	// StateDiscovered: raw schema present, no admin config yet.
	StateDiscovered LifecycleState = "discovered"
	// StateConfigured: at least one config entry, schema and config agree.
	StateConfigured LifecycleState = "configured"
	// StateStale: schema and config key sets have drifted apart; the spec
	// still builds, but the admin should review orphaned or new keys.
	StateStale LifecycleState = "stale"
)

// GenerationModel is one provider model: its latest raw schema snapshot,
// its configuration overlay, and capability metadata. Schema and configs
// have independent lifecycles; configs survive schema refreshes by
// key-based matching.
type GenerationModel struct {
	ID        string                     `json:"id"`
	Provider  string                     `json:"provider,omitempty"`
	Modes     []string                   `json:"modes,omitempty"`
	RawSchema map[string]any             `json:"raw_schema,omitempty"`
	Configs   map[string]ParameterConfig `json:"configs,omitempty"`
}
