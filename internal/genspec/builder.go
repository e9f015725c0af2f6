// Package genspec assembles the per-model generation spec: the ordered
// list of resolved parameters a client renders, plus lifecycle state, and
// turns user selections into provider payloads.
package genspec

import (
	"fmt"
	"sort"

	"github.com/Azzot88/artline-sub000/internal/canonical"
	"github.com/Azzot88/artline-sub000/internal/normalize"
	"github.com/Azzot88/artline-sub000/internal/paramconfig"
	"github.com/Azzot88/artline-sub000/internal/schema"
	"github.com/Azzot88/artline-sub000/model"
)

// Spec is the resolved generation spec for one model.
type Spec struct {
	ModelID    string                    `json:"model_id"`
	State      model.LifecycleState      `json:"state"`
	Parameters []model.ResolvedParameter `json:"parameters"`
	Staleness  model.StalenessReport     `json:"staleness"`
}

// Options control spec assembly.
type Options struct {
	// IncludeDisabled keeps disabled parameters in the output instead of
	// filtering them. Admin views set this; user views never do.
	IncludeDisabled bool
}

// Build resolves every parameter of the model and orders them for display.
// The key set is the union of schema-scanned keys and configured keys, so a
// configured parameter that fell out of the schema still appears, flagged
// orphaned, instead of silently vanishing.
func Build(modelID string, rawSchema map[string]any, doc model.ConfigDocument, reg *canonical.Registry, opts Options) Spec {
	doc = paramconfig.MergeLegacy(doc)

	scanned := schema.Scan(rawSchema)
	inSchema := make(map[string]bool, len(scanned))
	for _, k := range scanned {
		inSchema[k] = true
	}

	keys := append([]string(nil), scanned...)
	for k := range doc.UIConfig {
		if !inSchema[k] {
			keys = append(keys, k)
		}
	}

	owners := canonicalOwners(keys, doc)

	spec := Spec{ModelID: modelID}
	for _, key := range keys {
		raw := schema.FindDefinition(key, rawSchema)

		var cfg *model.ParameterConfig
		if c, ok := doc.UIConfig[key]; ok {
			cc := c.Clone()
			cfg = &cc
		}

		// A canonical key maps at most one parameter. A later claimant
		// resolves unmapped, with a warning naming the holder, instead of
		// two parameters fighting over one section slot.
		var duplicateOf string
		if cfg != nil && cfg.CanonicalKey != "" && owners[cfg.CanonicalKey] != key {
			duplicateOf = owners[cfg.CanonicalKey]
			cfg.CanonicalKey = ""
		}

		var canon *model.CanonicalFieldDef
		if cfg != nil && cfg.CanonicalKey != "" {
			if def, ok := reg.Get(cfg.CanonicalKey); ok {
				canon = &def
			}
		}

		p := normalize.Resolve(key, raw, canon, cfg)
		if duplicateOf != "" {
			p.Warnings = append(p.Warnings, fmt.Sprintf(
				"%s: canonical key already mapped by %q", model.ErrDuplicateCanonicalKey, duplicateOf))
		}
		p.Orphaned = cfg != nil && !inSchema[key]
		if p.Hidden && !opts.IncludeDisabled {
			continue
		}
		spec.Parameters = append(spec.Parameters, p)
	}

	orderParameters(spec.Parameters)
	spec.Staleness = staleness(scanned, doc, inSchema)
	spec.State = spec.Staleness.State
	return spec
}

// orderParameters sorts for display: configured parameters before
// unconfigured ones, then by section priority, then by id. The sort key is
// derived entirely from the parameter, so rebuilding never reorders.
func orderParameters(params []model.ResolvedParameter) {
	sort.SliceStable(params, func(i, j int) bool {
		a, b := params[i], params[j]
		if a.Configured != b.Configured {
			return a.Configured
		}
		pa, pb := sectionPriority(a.Section), sectionPriority(b.Section)
		if pa != pb {
			return pa < pb
		}
		return a.ID < b.ID
	})
}

func sectionPriority(section string) int {
	switch section {
	case "format":
		return 0
	case "resolution":
		return 1
	case "quality":
		return 2
	default:
		return 10
	}
}

// canonicalOwners assigns each claimed canonical key to exactly one
// parameter. Claims are resolved in sorted key order, so the winner does
// not depend on map iteration.
func canonicalOwners(keys []string, doc model.ConfigDocument) map[string]string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	owners := make(map[string]string)
	for _, key := range sorted {
		cfg, ok := doc.UIConfig[key]
		if !ok || cfg.CanonicalKey == "" {
			continue
		}
		if _, claimed := owners[cfg.CanonicalKey]; !claimed {
			owners[cfg.CanonicalKey] = key
		}
	}
	return owners
}

// staleness computes the model's lifecycle state and the key drift behind
// it. New keys are schema keys no config covers; orphaned keys are
// configured keys the schema no longer contains.
func staleness(scanned []string, doc model.ConfigDocument, inSchema map[string]bool) model.StalenessReport {
	rep := model.StalenessReport{}
	if len(scanned) == 0 && len(doc.UIConfig) == 0 {
		rep.State = model.StateUnconfigured
		return rep
	}
	if len(doc.UIConfig) == 0 {
		rep.State = model.StateDiscovered
		rep.NewKeys = append([]string(nil), scanned...)
		return rep
	}
	for _, k := range scanned {
		if _, ok := doc.UIConfig[k]; !ok {
			rep.NewKeys = append(rep.NewKeys, k)
		}
	}
	for k := range doc.UIConfig {
		if !inSchema[k] {
			rep.OrphanedKeys = append(rep.OrphanedKeys, k)
		}
	}
	sort.Strings(rep.OrphanedKeys)
	if len(rep.NewKeys) > 0 || len(rep.OrphanedKeys) > 0 {
		rep.State = model.StateStale
	} else {
		rep.State = model.StateConfigured
	}
	return rep
}

// FilterForTier strips everything the requesting tier may not see: gated
// parameters disappear entirely, and gated value entries drop out of both
// the value list and the option list.
func FilterForTier(spec Spec, tier model.Tier) Spec {
	out := spec
	out.Parameters = nil
	for _, p := range spec.Parameters {
		if !model.TierAllowed(p.VisibleToTiers, tier) {
			continue
		}
		out.Parameters = append(out.Parameters, filterValues(p, tier))
	}
	return out
}

func filterValues(p model.ResolvedParameter, tier model.Tier) model.ResolvedParameter {
	if len(p.Values) == 0 {
		return p
	}
	allowed := make(map[string]bool, len(p.Values))
	var values []model.ParameterValue
	for _, v := range p.Values {
		if !model.TierAllowed(v.AccessTiers, tier) {
			continue
		}
		allowed[valueKey(v.Value)] = true
		values = append(values, v)
	}
	p.Values = values

	var options []model.Option
	for _, o := range p.Options {
		if allowed[valueKey(o.Value)] {
			options = append(options, o)
		}
	}
	p.Options = options
	return p
}
