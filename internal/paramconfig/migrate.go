package paramconfig

import (
	"github.com/Azzot88/artline-sub000/internal/valuelist"
	"github.com/Azzot88/artline-sub000/model"
)

// Documents written before per-value pricing existed carry a flat
// pricing_rules list instead of priced value entries. Reads merge the two
// representations; writes only ever produce value entries, so legacy rules
// age out one parameter at a time as admins re-save.

// legacyOperator is the only pricing_rules operator the old system
// produced. Rules with any other operator are ignored.
const legacyOperator = "equals"

// PricingRulesToValues converts legacy pricing rules into per-parameter
// value entries, keyed by parameter id.
func PricingRulesToValues(rules []model.PricingRule) map[string][]model.ParameterValue {
	out := make(map[string][]model.ParameterValue)
	for _, r := range rules {
		if r.Operator != legacyOperator || r.ParamID == "" {
			continue
		}
		tiers := r.AccessTiers
		if len(tiers) == 0 {
			tiers = model.AllTiers()
		}
		entry := model.ParameterValue{
			Value:       r.Value,
			Enabled:     true,
			Price:       r.Price,
			AccessTiers: tiers,
		}
		out[r.ParamID] = append(out[r.ParamID], entry)
	}
	return out
}

// MergeLegacy folds a document's pricing_rules into each parameter's value
// list. Existing value entries always win: a rule only contributes when the
// parameter has no entry for that value, and a rule's price only applies to
// an existing zero-priced entry. The rules themselves are left in place so
// the merge stays a pure read-side view.
func MergeLegacy(doc model.ConfigDocument) model.ConfigDocument {
	if len(doc.PricingRules) == 0 {
		return doc
	}
	out := doc.Clone()
	if out.UIConfig == nil {
		out.UIConfig = make(map[string]model.ParameterConfig)
	}
	migrated := PricingRulesToValues(out.PricingRules)
	for paramID, entries := range migrated {
		cfg := out.UIConfig[paramID]
		for _, entry := range entries {
			if i := indexOf(cfg.Values, entry.Value); i >= 0 {
				if cfg.Values[i].Price == 0 {
					cfg.Values[i].Price = entry.Price
				}
				continue
			}
			cfg.Values = append(cfg.Values, entry)
		}
		out.UIConfig[paramID] = cfg
	}
	return out
}

func indexOf(values []model.ParameterValue, value any) int {
	key := valuelist.ValueKey(value)
	for i, v := range values {
		if valuelist.ValueKey(v.Value) == key {
			return i
		}
	}
	return -1
}
