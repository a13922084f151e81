package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildEnvelopeSchema returns the JSON-Schema the oracle's response envelope
// must satisfy: exactly a validation block and an extracted_fields object.
// Field content stays loose here; the normalizer owns per-class field rules.
func BuildEnvelopeSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"validation", "extracted_fields"},
		"properties": map[string]any{
			"validation": map[string]any{
				"type":     "object",
				"required": []string{"valid_format"},
				"properties": map[string]any{
					"valid_format":   map[string]any{"type": "boolean"},
					"missing_fields": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"anomalies":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
			},
			"extracted_fields": map[string]any{"type": "object"},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
