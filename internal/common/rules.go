package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// rulesSchema describes the externally supplied classification rule list.
var rulesSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"category"},
		"properties": map[string]any{
			"category": map[string]any{"type": "string", "pattern": `\S`},
			"keywords": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "minLength": 1},
			},
			"file_types": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "pattern": `^\.[a-z0-9_+-]+$`},
			},
			"path_patterns": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "minLength": 1},
			},
		},
	},
}

// ValidateRules checks rules against the rule schema. Malformed entries are
// reported rather than skipped.
func ValidateRules(rules []ClassificationRule) error {
	if len(rules) == 0 {
		return nil
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	if err := ValidateJSONAgainstSchema(rulesSchema, data); err != nil {
		return errors.Join(ErrValidation, err)
	}
	return nil
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
