package paramconfig

import (
	"github.com/Azzot88/artline-sub000/internal/valuelist"
	"github.com/Azzot88/artline-sub000/model"
)

// AddValue appends a value entry to a parameter's discrete value list. The
// value must not already be present; flagging the entry as default clears
// the flag elsewhere in the list.
func AddValue(doc model.ConfigDocument, paramID string, entry model.ParameterValue) (model.ConfigDocument, error) {
	out := doc.Clone()
	if out.UIConfig == nil {
		out.UIConfig = make(map[string]model.ParameterConfig)
	}
	cfg := out.UIConfig[paramID]
	values, err := valuelist.Add(cfg.Values, entry)
	if err != nil {
		return doc, err
	}
	cfg.Values = values
	out.UIConfig[paramID] = cfg
	return out, nil
}

// RemoveValue drops the entry with the given value from a parameter's value
// list. Removing an absent value is a no-op.
func RemoveValue(doc model.ConfigDocument, paramID string, value any) model.ConfigDocument {
	out := doc.Clone()
	cfg, ok := out.UIConfig[paramID]
	if !ok {
		return out
	}
	cfg.Values = valuelist.Remove(cfg.Values, value)
	out.UIConfig[paramID] = cfg
	return out
}

// SetDefaultValue marks one entry of a parameter's value list as the
// default and clears the flag from every other entry.
func SetDefaultValue(doc model.ConfigDocument, paramID string, value any) (model.ConfigDocument, error) {
	out := doc.Clone()
	cfg, ok := out.UIConfig[paramID]
	if !ok {
		return doc, model.NewNotFoundError("parameter is not configured")
	}
	if !valuelist.InDomain(value, entryValues(cfg.Values)) {
		return doc, model.NewNotFoundError("value is not in the parameter's value list")
	}
	cfg.Values = valuelist.SetDefault(cfg.Values, value)
	out.UIConfig[paramID] = cfg
	return out, nil
}

func entryValues(values []model.ParameterValue) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.Value
	}
	return out
}
