package llm

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// Field is one required string field of a structured-output schema.
type Field struct {
	Name        string
	Description string
}

// Schema is an ephemeral, call-scoped structured-output contract: an
// ordered list of required string fields a provider response must carry.
// It has no identity beyond a single call.
type Schema struct {
	Name   string
	Fields []Field
}

// ItemSchema builds a schema with fields item_1..item_n, all required
// strings in input order. Used wherever the number of expected values is
// only known at call time (N search queries, N bibliography entries).
func ItemSchema(n int) Schema {
	fields := make([]Field, 0, n)
	for i := 1; i <= n; i++ {
		fields = append(fields, Field{Name: fmt.Sprintf("item_%d", i)})
	}
	return Schema{Name: "LLMOutput", Fields: fields}
}

// FieldNames returns the field names in declared order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// JSONSchema renders the provider-facing JSON Schema object. Every field
// is mandatory and additional properties are rejected.
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		prop := map[string]any{"type": "string"}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		props[f.Name] = prop
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             s.FieldNames(),
		"additionalProperties": false,
	}
}

// Validate checks a candidate object against the schema. A missing field
// is a validation failure, not a defaulted value; non-string values fail
// as well.
func (s Schema) Validate(obj map[string]any) error {
	for _, f := range s.Fields {
		v, ok := obj[f.Name]
		if !ok {
			return fmt.Errorf("structured output missing required field %q", f.Name)
		}
		if _, ok := v.(string); !ok {
			return fmt.Errorf("structured output field %q is not a string", f.Name)
		}
	}
	return nil
}

// Decode parses raw model output into a validated object. Malformed JSON
// is repaired once before giving up.
func (s Schema) Decode(raw string) (map[string]any, error) {
	data := []byte(raw)
	if !json.Valid(data) {
		repaired, err := jsonrepair.JSONRepair(raw)
		if err != nil {
			return nil, fmt.Errorf("repair structured output: %w", err)
		}
		data = []byte(repaired)
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode structured output: %w", err)
	}
	if err := s.Validate(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Items returns the field values in declared order. Validate must have
// succeeded for the result to be complete.
func (s Schema) Items(obj map[string]any) []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		v, _ := obj[f.Name].(string)
		out = append(out, v)
	}
	return out
}
