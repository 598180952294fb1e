package grader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildEvaluationJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint
// and also use it locally to validate the reply.
func BuildEvaluationJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"total": scoreProp(0, 100),
			"breakdown": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"content":     scoreProp(0, 40),
					"structure":   scoreProp(0, 20),
					"language":    scoreProp(0, 20),
					"originality": scoreProp(0, 20),
				},
				"required": []string{"content", "structure", "language", "originality"},
			},
			"strengths":   stringListProp(),
			"weaknesses":  stringListProp(),
			"suggestions": stringListProp(),
			"feedback":    map[string]any{"type": "string"},
		},
		"required": []string{"total", "breakdown", "feedback"},
	}
}

func scoreProp(min, max int) map[string]any {
	return map[string]any{"type": "integer", "minimum": min, "maximum": max}
}

func stringListProp() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
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
