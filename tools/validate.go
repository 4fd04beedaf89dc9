package tools

import (
	"encoding/json"
	"fmt"
	"math"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Validate checks required fields and primitive property types.
// Properties the schema does not describe are accepted as-is.
func Validate(args map[string]any, schema mcptypes.ToolInputSchema) error {
	if args == nil {
		args = map[string]any{}
	}

	for _, field := range schema.Required {
		value, exists := args[field]
		if !exists || value == nil {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	for key, value := range args {
		def, ok := schema.Properties[key].(map[string]any)
		if !ok {
			continue
		}
		expected, _ := def["type"].(string)
		if expected == "" {
			continue
		}
		if err := checkType(value, expected); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}

	return nil
}

func checkType(value any, expected string) error {
	ok := false
	switch expected {
	case "string":
		_, ok = value.(string)
	case "number":
		ok = isNumber(value)
	case "integer":
		ok = isInteger(value)
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]any)
	case "array":
		_, ok = value.([]any)
	case "null":
		ok = value == nil
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	if !ok {
		return fmt.Errorf("expected %s but got %T", expected, value)
	}
	return nil
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == math.Trunc(v)
	case float32:
		return float64(v) == math.Trunc(float64(v))
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
