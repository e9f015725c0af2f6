// Package schema walks arbitrary raw provider schema documents, discovering
// parameter keys from "properties" containers at any depth and extracting
// per-key definitions. All traversal is bounded to a fixed depth so cyclic
// or pathological documents cannot stall the engine.
package schema

import (
	"sort"

	"github.com/Azzot88/artline-sub000/model"
)

// MaxDepth bounds schema traversal. Documents nested deeper than this are
// treated as opaque below the limit.
const MaxDepth = 5

// Parse converts an arbitrary decoded JSON value into a SchemaNode tree.
// Non-object input yields an Unknown node. Parse never fails: a malformed
// document simply produces a tree the scanner finds nothing in.
func Parse(raw any) *model.SchemaNode {
	return parseNode(raw, 0)
}

func parseNode(raw any, depth int) *model.SchemaNode {
	return parseMembers(raw, depth, false)
}

// parseMembers parses one object. Inside a "properties" object every
// member names a parameter, so non-object members (a bare true, a string)
// still become child nodes; everywhere else only object-valued members
// descend and scalars stay definition facts.
func parseMembers(raw any, depth int, propertySet bool) *model.SchemaNode {
	if depth > MaxDepth {
		return &model.SchemaNode{Kind: model.NodeUnknown}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return &model.SchemaNode{Kind: model.NodeUnknown}
	}

	node := &model.SchemaNode{Def: parseDef(obj)}
	for key, val := range obj {
		var child *model.SchemaNode
		if _, isObj := val.(map[string]any); isObj {
			child = parseMembers(val, depth+1, key == "properties")
		} else if propertySet {
			child = &model.SchemaNode{Kind: model.NodeUnknown}
		} else {
			continue
		}
		if node.Children == nil {
			node.Children = make(map[string]*model.SchemaNode)
		}
		node.Children[key] = child
	}

	if node.Children == nil {
		node.Kind = model.NodeLeaf
	} else {
		node.Kind = model.NodeContainer
	}
	return node
}

// parseDef extracts the primitive schema facts the resolver consumes.
func parseDef(obj map[string]any) *model.RawParameterDef {
	def := &model.RawParameterDef{}
	if t, ok := obj["type"].(string); ok {
		def.Type = t
	}
	if e, ok := obj["enum"].([]any); ok {
		def.Enum = e
	}
	if d, ok := obj["default"]; ok {
		def.Default = d
	}
	def.Minimum = asFloat(obj["minimum"])
	def.Maximum = asFloat(obj["maximum"])
	if t, ok := obj["title"].(string); ok {
		def.Title = t
	}
	if d, ok := obj["description"].(string); ok {
		def.Description = d
	}
	if req, ok := obj["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				def.RequiredKeys = append(def.RequiredKeys, s)
			}
		}
	}
	return def
}

func asFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

// Scan returns the set of parameter keys discoverable in the document: the
// child keys of every "properties" container, at any depth up to MaxDepth.
// Returns an empty, sorted slice for nil or non-object input. Scan does not
// mutate its input and is safe to call repeatedly.
func Scan(rawSchema map[string]any) []string {
	seen := make(map[string]bool)
	collectKeys(Parse(rawSchema), seen)

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collectKeys(node *model.SchemaNode, seen map[string]bool) {
	if node == nil || node.Kind != model.NodeContainer {
		return
	}
	if props := node.Child("properties"); props != nil && props.Kind == model.NodeContainer {
		for key := range props.Children {
			seen[key] = true
		}
	}
	for _, child := range node.Children {
		collectKeys(child, seen)
	}
}

// FindDefinition returns the raw definition for the given key: the first
// properties[key] found in traversal order. Traversal order across sibling
// containers is not guaranteed stable between schema shapes; only presence
// and primitive fields are consumed, so this is a documented limitation
// rather than a correctness issue. Returns nil when the key is absent.
func FindDefinition(key string, rawSchema map[string]any) *model.RawParameterDef {
	return findDef(key, Parse(rawSchema))
}

func findDef(key string, node *model.SchemaNode) *model.RawParameterDef {
	if node == nil || node.Kind != model.NodeContainer {
		return nil
	}
	if props := node.Child("properties"); props != nil && props.Kind == model.NodeContainer {
		if match := props.Child(key); match != nil && match.Def != nil {
			def := *match.Def
			def.Required = keyRequired(key, node)
			return &def
		}
	}
	for _, child := range node.Children {
		if def := findDef(key, child); def != nil {
			return def
		}
	}
	return nil
}

// keyRequired reports whether the object owning "properties" names the key
// in its "required" array.
func keyRequired(key string, owner *model.SchemaNode) bool {
	if owner == nil || owner.Def == nil {
		return false
	}
	for _, name := range owner.Def.RequiredKeys {
		if name == key {
			return true
		}
	}
	return false
}
