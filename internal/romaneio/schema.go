package romaneio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var numericColumns = map[string]bool{
	"peso_pedido":       true,
	"total_nota":        true,
	"valor_recebimento": true,
}

// RecordJSONSchema returns the JSON-Schema (draft 2020-12 subset) every
// serialized NoteRecord must satisfy: all 16 keys, nothing else.
func RecordJSONSchema() map[string]any {
	props := make(map[string]any, len(columns))
	for _, c := range columns {
		if numericColumns[c] {
			props[c] = map[string]any{"type": []string{"number", "null"}}
			continue
		}
		props[c] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             Columns(),
	}
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func recordsSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		b, err := json.Marshal(map[string]any{
			"type":  "array",
			"items": RecordJSONSchema(),
		})
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("records.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("records.json")
	})
	return compiledSchema, compileErr
}

// ValidateJSON checks raw JSON (an array of records) against the record schema.
func ValidateJSON(data []byte) error {
	schema, err := recordsSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("records do not match schema: %w", err)
	}
	return nil
}

// ValidateRecords serializes records and validates them against the schema.
func ValidateRecords(records []NoteRecord) error {
	if records == nil {
		records = []NoteRecord{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	return ValidateJSON(b)
}
