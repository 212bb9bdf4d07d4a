package typeutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// STRING TESTS
// =============================================================================

func TestSafeString(t *testing.T) {
	tests := []struct {
		name       string
		input      any
		wantString string
		wantBool   bool
	}{
		{
			name:       "valid string",
			input:      "hello",
			wantString: "hello",
			wantBool:   true,
		},
		{
			name:       "empty string",
			input:      "",
			wantString: "",
			wantBool:   true,
		},
		{
			name:       "nil value",
			input:      nil,
			wantString: "",
			wantBool:   false,
		},
		{
			name:       "wrong type int",
			input:      42,
			wantString: "",
			wantBool:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeString(tt.input)
			assert.Equal(t, tt.wantBool, ok)
			assert.Equal(t, tt.wantString, got)
		})
	}
}

func TestSafeStringDefault(t *testing.T) {
	assert.Equal(t, "hello", SafeStringDefault("hello", "fallback"))
	assert.Equal(t, "fallback", SafeStringDefault(nil, "fallback"))
	assert.Equal(t, "fallback", SafeStringDefault(3.14, "fallback"))
}

// =============================================================================
// NUMERIC TESTS
// =============================================================================

func TestSafeInt(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		wantInt  int
		wantBool bool
	}{
		{name: "int", input: 7, wantInt: 7, wantBool: true},
		{name: "int64", input: int64(7), wantInt: 7, wantBool: true},
		{name: "float64 from JSON", input: float64(7), wantInt: 7, wantBool: true},
		{name: "json.Number", input: json.Number("7"), wantInt: 7, wantBool: true},
		{name: "json.Number non-integer", input: json.Number("x"), wantInt: 0, wantBool: false},
		{name: "nil", input: nil, wantInt: 0, wantBool: false},
		{name: "string", input: "7", wantInt: 0, wantBool: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeInt(tt.input)
			assert.Equal(t, tt.wantBool, ok)
			assert.Equal(t, tt.wantInt, got)
		})
	}
}

func TestSafeFloat64(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantFloat float64
		wantBool  bool
	}{
		{name: "float64", input: 8.2, wantFloat: 8.2, wantBool: true},
		{name: "float32", input: float32(2), wantFloat: 2, wantBool: true},
		{name: "int", input: 12, wantFloat: 12, wantBool: true},
		{name: "int64", input: int64(12), wantFloat: 12, wantBool: true},
		{name: "json.Number", input: json.Number("8.2"), wantFloat: 8.2, wantBool: true},
		{name: "numeric string", input: "8.2", wantFloat: 8.2, wantBool: true},
		{name: "non-numeric string", input: "grade", wantFloat: 0, wantBool: false},
		{name: "nil", input: nil, wantFloat: 0, wantBool: false},
		{name: "bool", input: true, wantFloat: 0, wantBool: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeFloat64(tt.input)
			assert.Equal(t, tt.wantBool, ok)
			assert.InDelta(t, tt.wantFloat, got, 1e-9)
		})
	}
}

func TestSafeFloat64Default(t *testing.T) {
	assert.Equal(t, 8.2, SafeFloat64Default(8.2, -1))
	assert.Equal(t, -1.0, SafeFloat64Default(nil, -1))
	assert.Equal(t, -1.0, SafeFloat64Default("n/a", -1))
}

// =============================================================================
// MAP TESTS
// =============================================================================

func TestSafeMapStringAny(t *testing.T) {
	m, ok := SafeMapStringAny(map[string]any{"key": "value"})
	assert.True(t, ok)
	assert.Equal(t, "value", m["key"])

	m, ok = SafeMapStringAny("not a map")
	assert.False(t, ok)
	assert.Nil(t, m)

	m, ok = SafeMapStringAny(nil)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestSafeMapStringAnyDefault(t *testing.T) {
	defaultVal := map[string]any{"default": true}

	result := SafeMapStringAnyDefault(map[string]any{"key": "value"}, defaultVal)
	assert.Equal(t, "value", result["key"])

	result = SafeMapStringAnyDefault(42, defaultVal)
	assert.Equal(t, defaultVal, result)
}

// =============================================================================
// NESTED PATH TESTS
// =============================================================================

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"data": map[string]any{"text": "nested content"},
		"meta": map[string]any{"language": "ru"},
	}

	v, ok := GetNestedValue(data, "data.text")
	assert.True(t, ok)
	assert.Equal(t, "nested content", v)

	_, ok = GetNestedValue(data, "data.missing")
	assert.False(t, ok)

	_, ok = GetNestedValue(data, "meta.language.code")
	assert.False(t, ok)

	_, ok = GetNestedValue(nil, "data.text")
	assert.False(t, ok)

	_, ok = GetNestedValue(data, "")
	assert.False(t, ok)
}

func TestGetNestedString(t *testing.T) {
	data := map[string]any{
		"meta": map[string]any{"language": "ru", "attempts": 3},
	}

	s, ok := GetNestedString(data, "meta.language")
	assert.True(t, ok)
	assert.Equal(t, "ru", s)

	_, ok = GetNestedString(data, "meta.attempts")
	assert.False(t, ok)
}

func TestGetNestedFloat64(t *testing.T) {
	data := map[string]any{
		"metrics": map[string]any{"flesch_kincaid_grade": 9.8},
	}

	f, ok := GetNestedFloat64(data, "metrics.flesch_kincaid_grade")
	assert.True(t, ok)
	assert.Equal(t, 9.8, f)

	_, ok = GetNestedFloat64(data, "metrics.missing")
	assert.False(t, ok)
}
