// Package schema builds and compiles the JSON Schemas that directive state files are
// validated against.
//
//	answerState := schema.MustCompile(schema.Object(map[string]*schema.Property{
//	    "version": schema.Integer("State layout version").Min(1),
//	    "status":  schema.String("Lifecycle status").Enum("created", "completed"),
//	    "reply":   schema.String("Model reply"),
//	}, "status"))
//
//	if err := answerState.ValidateJSON(data); err != nil {
//	    // the file on disk is corrupt or was written by an incompatible version
//	}
//
// Objects accept properties they do not declare, so state files may carry fields added by
// newer versions.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a raw schema together with its compiled validator.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// Raw returns the schema as a map.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// Validate validates an instance decoded into plain Go values.
func (s *Schema) Validate(instance any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if err := s.compiled.Validate(instance); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// ValidateJSON decodes data and validates it.
func (s *Schema) ValidateJSON(data []byte) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &ValidationError{Err: err}
	}
	return s.Validate(instance)
}

// ValidationError wraps a failed validation.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Compile compiles raw. A nil map compiles to a nil Schema, which accepts everything.
func Compile(raw map[string]any) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("state.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := c.Compile("state.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{raw: raw, compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error. Use it for package level schemas.
func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// -----------------------------------------------------------------------------
// Builders
// -----------------------------------------------------------------------------

// Object creates an object schema. Names passed after the properties are required.
func Object(properties map[string]*Property, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, prop := range properties {
		props[name] = prop.build()
	}
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Property is one property of an object schema.
type Property struct {
	types       []string
	description string
	enum        []any
	minimum     *float64
	pattern     string
	items       map[string]any
	nested      map[string]any
}

func (p *Property) build() map[string]any {
	if p.nested != nil {
		m := make(map[string]any, len(p.nested)+1)
		for k, v := range p.nested {
			m[k] = v
		}
		if p.description != "" {
			m["description"] = p.description
		}
		if len(p.types) > 0 {
			return map[string]any{"anyOf": []any{m, map[string]any{"type": p.types}}}
		}
		return m
	}

	m := map[string]any{}
	switch len(p.types) {
	case 0:
	case 1:
		m["type"] = p.types[0]
	default:
		m["type"] = p.types
	}
	if p.description != "" {
		m["description"] = p.description
	}
	if len(p.enum) > 0 {
		m["enum"] = p.enum
	}
	if p.minimum != nil {
		m["minimum"] = *p.minimum
	}
	if p.pattern != "" {
		m["pattern"] = p.pattern
	}
	if p.items != nil {
		m["items"] = p.items
	}
	return m
}

// String creates a string property.
func String(description string) *Property {
	return &Property{types: []string{"string"}, description: description}
}

// Integer creates an integer property.
func Integer(description string) *Property {
	return &Property{types: []string{"integer"}, description: description}
}

// Boolean creates a boolean property.
func Boolean(description string) *Property {
	return &Property{types: []string{"boolean"}, description: description}
}

// Array creates an array property whose items match items.
func Array(description string, items map[string]any) *Property {
	return &Property{types: []string{"array"}, description: description, items: items}
}

// Nested embeds a full object schema built with Object.
func Nested(description string, object map[string]any) *Property {
	return &Property{description: description, nested: object}
}

// Any creates a property accepting every JSON value.
func Any(description string) *Property {
	return &Property{description: description}
}

// Nullable additionally accepts null.
func (p *Property) Nullable() *Property {
	p.types = append(p.types, "null")
	return p
}

// Enum restricts the property to values.
func (p *Property) Enum(values ...any) *Property {
	p.enum = values
	return p
}

// Min sets the minimum of a numeric property.
func (p *Property) Min(min float64) *Property {
	p.minimum = &min
	return p
}

// Pattern sets a regular expression strings must match.
func (p *Property) Pattern(pattern string) *Property {
	p.pattern = pattern
	return p
}
