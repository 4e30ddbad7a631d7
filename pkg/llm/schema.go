package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	swaggest "github.com/swaggest/jsonschema-go"
)

// SchemaFromStruct generates a JSON Schema from a Go struct using the swaggest/jsonschema-go library
//
// Example:
//
//	type Edit struct {
//	    Command string `json:"command" required:"true" enum:"create,str_replace"`
//	    Path    string `json:"path" required:"true" description:"Absolute path"`
//	}
//	schema, err := SchemaFromStruct(Edit{})
func SchemaFromStruct(structType any) (swaggest.Schema, error) {
	reflector := swaggest.Reflector{}

	schema, err := reflector.Reflect(structType)
	if err != nil {
		return swaggest.Schema{}, fmt.Errorf("failed to reflect struct to JSON schema: %w", err)
	}

	return schema, nil
}

// SchemaFromStructAsMap generates a JSON Schema as map[string]any from a Go struct.
// This is the shape tool definitions carry as their parameters.
func SchemaFromStructAsMap(structType any) (map[string]any, error) {
	schema, err := SchemaFromStruct(structType)
	if err != nil {
		return nil, err
	}

	jsonBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(jsonBytes, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema JSON to map: %w", err)
	}

	return schemaMap, nil
}

// ValidateAgainstSchema validates JSON data against a JSON Schema document
// given as any JSON-marshalable value.
func ValidateAgainstSchema(data []byte, schema any) error {
	compiled, err := CompileSchema(schema)
	if err != nil {
		return err
	}
	return compiled.ValidateJSON(data)
}

// CompiledSchema is a schema ready to validate many documents
type CompiledSchema struct {
	schema *jsonschema.Schema
}

// CompileSchema compiles a JSON Schema document for repeated validation
func CompileSchema(schema any) (*CompiledSchema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &CompiledSchema{schema: compiled}, nil
}

// ValidateJSON validates a JSON document against the compiled schema
func (s *CompiledSchema) ValidateJSON(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := s.schema.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}
