package schema

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// LoadSpec parses and validates an OpenAPI document from a file. Providers
// that publish OpenAPI specs feed the same scanner path as ad hoc schema
// documents via ImportOperation.
func LoadSpec(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: loading %s: %w", path, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("openapi: validating %s: %w", path, err)
	}
	return doc, nil
}

// LoadSpecData parses and validates an OpenAPI document from raw bytes.
func LoadSpecData(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: parsing spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("openapi: validating spec: %w", err)
	}
	return doc, nil
}

// ImportOperation converts the JSON request-body schema of the named
// operation into a raw schema document the scanner understands. The result
// is the usual {"properties": {...}, "required": [...]} shape.
func ImportOperation(doc *openapi3.T, operationID string) (map[string]any, error) {
	if doc == nil || doc.Paths == nil {
		return nil, fmt.Errorf("openapi: empty document")
	}

	for _, pathItem := range doc.Paths.Map() {
		for _, op := range pathItem.Operations() {
			if op.OperationID != operationID {
				continue
			}
			if op.RequestBody == nil || op.RequestBody.Value == nil {
				return nil, fmt.Errorf("openapi: operation %q has no request body", operationID)
			}
			ct := op.RequestBody.Value.Content.Get("application/json")
			if ct == nil || ct.Schema == nil || ct.Schema.Value == nil {
				return nil, fmt.Errorf("openapi: operation %q has no JSON schema", operationID)
			}
			return schemaToDocument(ct.Schema.Value, 0), nil
		}
	}
	return nil, fmt.Errorf("openapi: operation %q not found", operationID)
}

// schemaToDocument flattens an openapi3.Schema into the engine's raw
// document shape, depth-bounded like every other traversal.
func schemaToDocument(s *openapi3.Schema, depth int) map[string]any {
	if s == nil || depth > MaxDepth {
		return nil
	}

	doc := make(map[string]any)
	if s.Type != nil && len(s.Type.Slice()) > 0 {
		doc["type"] = s.Type.Slice()[0]
	}
	if s.Title != "" {
		doc["title"] = s.Title
	}
	if s.Description != "" {
		doc["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		doc["enum"] = append([]any(nil), s.Enum...)
	}
	if s.Default != nil {
		doc["default"] = s.Default
	}
	if s.Min != nil {
		doc["minimum"] = *s.Min
	}
	if s.Max != nil {
		doc["maximum"] = *s.Max
	}
	if len(s.Required) > 0 {
		req := make([]any, len(s.Required))
		for i, r := range s.Required {
			req[i] = r
		}
		doc["required"] = req
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, ref := range s.Properties {
			if ref == nil || ref.Value == nil {
				continue
			}
			props[name] = schemaToDocument(ref.Value, depth+1)
		}
		doc["properties"] = props
	}
	return doc
}
