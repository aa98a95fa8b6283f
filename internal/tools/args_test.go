package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgsFloat(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want float64
		ok   bool
	}{
		{"float64", float64(2.5), 2.5, true},
		{"int", 3, 3, true},
		{"json number", json.Number("7"), 7, true},
		{"numeric string", " 30 ", 30, true},
		{"word", "thirty", 0, false},
		{"bool", true, 0, false},
		{"missing", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Args{"n": tt.v}.Float("n")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgsInt(t *testing.T) {
	n, ok := Args{"n": float64(2)}.Int("n")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = Args{"n": 2.25}.Int("n")
	assert.False(t, ok)
}

func TestArgsBool(t *testing.T) {
	assert.True(t, Args{"b": true}.Bool("b"))
	assert.True(t, Args{"b": "TRUE"}.Bool("b"))
	assert.False(t, Args{"b": "yes please"}.Bool("b"))
	assert.False(t, Args{}.Bool("b"))
}

func TestArgsStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Args{"t": []any{"a", 1, " b "}}.Strings("t"))
	assert.Equal(t, []string{"a", "b"}, Args{"t": "a, ,b"}.Strings("t"))
	assert.Equal(t, []string{}, Args{}.Strings("t"))
}

func TestArgsString(t *testing.T) {
	assert.Equal(t, "milk", Args{"s": "  milk "}.String("s"))
	assert.Equal(t, "42", Args{"s": 42}.String("s"))
	assert.Equal(t, "", Args{}.String("s"))

	_, err := Args{}.RequireString("task")
	assert.EqualError(t, err, "task is required")
}
