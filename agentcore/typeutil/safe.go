// Package typeutil provides safe type assertion helpers to prevent panics from failed type casts.
// These helpers follow Go best practices by using the comma-ok idiom for type assertions.
//
// Requests, extracted records, and engine responses all travel as
// map[string]any, so every boundary in the runtime reads dynamic values
// through these helpers instead of bare assertions.
package typeutil

import (
	"encoding/json"
	"strconv"
)

// SafeString safely asserts value to string.
// Returns the string and true if successful, or empty string and false if not.
func SafeString(value any) (string, bool) {
	if value == nil {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// SafeStringDefault safely asserts value to string with a default fallback.
// Returns the string if assertion succeeds, otherwise returns the default value.
func SafeStringDefault(value any, defaultVal string) string {
	if s, ok := SafeString(value); ok {
		return s
	}
	return defaultVal
}

// SafeInt safely asserts value to int.
// Returns the int and true if successful, or 0 and false if not.
// Also handles float64 (common from JSON unmarshaling).
func SafeInt(value any) (int, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// SafeIntDefault safely asserts value to int with a default fallback.
func SafeIntDefault(value any, defaultVal int) int {
	if i, ok := SafeInt(value); ok {
		return i
	}
	return defaultVal
}

// SafeFloat64 safely asserts value to float64.
// Returns the float64 and true if successful, or 0 and false if not.
// Also handles int types, json.Number, and numeric strings, all of which
// show up in engine responses depending on how the engine serialized.
func SafeFloat64(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return 0, false
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// SafeFloat64Default safely asserts value to float64 with a default fallback.
func SafeFloat64Default(value any, defaultVal float64) float64 {
	if f, ok := SafeFloat64(value); ok {
		return f
	}
	return defaultVal
}

// SafeMapStringAny safely asserts value to map[string]any.
// Returns the map and true if successful, or an empty map and false if not.
func SafeMapStringAny(value any) (map[string]any, bool) {
	if value == nil {
		return nil, false
	}
	m, ok := value.(map[string]any)
	return m, ok
}

// SafeMapStringAnyDefault safely asserts value to map[string]any with a default fallback.
// Returns the map if assertion succeeds, otherwise returns the default value.
func SafeMapStringAnyDefault(value any, defaultVal map[string]any) map[string]any {
	if m, ok := SafeMapStringAny(value); ok {
		return m
	}
	return defaultVal
}

// GetNestedValue safely gets a nested value from a map[string]any using a dot-separated path.
// Example: GetNestedValue(data, "meta.language") returns data["meta"]["language"]
func GetNestedValue(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	keys := splitPath(path)
	current := any(data)

	for _, key := range keys {
		m, ok := SafeMapStringAny(current)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// GetNestedString safely gets a nested string value from a map.
func GetNestedString(data map[string]any, path string) (string, bool) {
	v, ok := GetNestedValue(data, path)
	if !ok {
		return "", false
	}
	return SafeString(v)
}

// GetNestedFloat64 safely gets a nested numeric value from a map.
func GetNestedFloat64(data map[string]any, path string) (float64, bool) {
	v, ok := GetNestedValue(data, path)
	if !ok {
		return 0, false
	}
	return SafeFloat64(v)
}

// splitPath splits a dot-separated path into keys.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	result := make([]string, 0, 4)
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			if i > start {
				result = append(result, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		result = append(result, path[start:])
	}
	return result
}
