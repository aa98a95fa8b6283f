package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{"empty", "", map[string]any{}},
		{"whitespace", "  ", map[string]any{}},
		{"malformed", `{"task": "buy milk"`, map[string]any{}},
		{"not an object", `["a"]`, map[string]any{}},
		{"null", `null`, map[string]any{}},
		{"object", `{"task":"buy milk","priority":"high"}`, map[string]any{"task": "buy milk", "priority": "high"}},
		{"number", `{"todoNumber":2}`, map[string]any{"todoNumber": float64(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArguments(tt.raw))
		})
	}
}

func TestEncodeArguments(t *testing.T) {
	assert.Equal(t, "", EncodeArguments(nil))
	assert.Equal(t, "", EncodeArguments(map[string]any{}))
	assert.Equal(t, `{"task":"buy milk"}`, EncodeArguments(map[string]any{"task": "buy milk"}))
	assert.Equal(t, "{}", encodeArgumentsObject(nil))
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{"task"}, requiredFields(map[string]any{"required": []string{"task"}}))
	assert.Equal(t, []string{"a", "b"}, requiredFields(map[string]any{"required": []any{"a", 3, "b"}}))
	assert.Nil(t, requiredFields(map[string]any{}))
}

func TestObjectSchema(t *testing.T) {
	assert.Equal(t, "object", objectSchema(nil)["type"])
	assert.Equal(t, "object", objectSchema(map[string]any{"properties": map[string]any{}})["type"])
}

func TestCallID(t *testing.T) {
	assert.Equal(t, "abc", callID("abc"))
	generated := callID("")
	assert.Contains(t, generated, "call_")
	assert.NotEqual(t, generated, callID(""))
}
