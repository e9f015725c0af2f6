package model

// RawParameterDef is the subset of a provider's schema the engine consumes
// for one parameter. Every field may be absent; the document is untrusted.
type RawParameterDef struct {
	Type        string   `json:"type,omitempty"`
	Enum        []any    `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`

	// Required is derived by the scanner from the enclosing object's
	// "required" array; it is not a field of the raw definition itself.
	Required bool `json:"-"`

	// RequiredKeys is the object's own "required" array, kept so the
	// scanner can mark the Required flag on child definitions.
	RequiredKeys []string `json:"-"`
}

// NodeKind discriminates the SchemaNode variants.
type NodeKind int

const (
	// NodeUnknown is anything that is not a JSON object (scalars, arrays,
	// null). Traversal stops at unknown nodes.
	NodeUnknown NodeKind = iota
	// NodeLeaf is an object with no nested objects: a plain parameter
	// definition.
	NodeLeaf
	// NodeContainer is an object with nested objects. A container whose
	// children include a "properties" container contributes that
	// container's keys to the discovery set.
	NodeContainer
)

// SchemaNode is the structural view of an arbitrary raw schema document.
// Containers carry their own Def as well: a JSON-schema object node is both
// a definition (type, title, ...) and a parent of nested nodes, so the
// strict Leaf/Container split would drop the primitive facts the resolver
// needs from nested object parameters.
type SchemaNode struct {
	Kind     NodeKind
	Def      *RawParameterDef
	Children map[string]*SchemaNode
}

// Child returns the named child node, or nil.
func (n *SchemaNode) Child(name string) *SchemaNode {
	if n == nil || n.Children == nil {
		return nil
	}
	return n.Children[name]
}
