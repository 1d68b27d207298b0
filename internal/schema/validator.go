// Package schema provides optional JSON Schema validation for structured
// values written through the API.
package schema

import (
	"bytes"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator validates structured values against one compiled JSON Schema
// document.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a schema definition.
func NewValidator(definition []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("value-schema.json", bytes.NewReader(definition)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := compiler.Compile("value-schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// LoadFile compiles the schema stored at path.
func LoadFile(path string) (*Validator, error) {
	definition, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return NewValidator(definition)
}

// Validate checks a decoded document against the schema. doc is the plain
// Go form of a structured value: nil, bool, numbers, string,
// []interface{} or map[string]interface{}.
func (v *Validator) Validate(doc interface{}) error {
	if v == nil {
		return nil
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("value schema validation failed: %w", err)
	}
	return nil
}
