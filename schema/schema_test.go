package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var positionSchema = Object(map[string]*Property{
	"offset": Integer("Byte offset").Min(0),
	"line":   Integer("Line").Min(1),
	"column": Integer("Column").Min(1),
}, "offset", "line", "column")

var taskSchema = MustCompile(Object(map[string]*Property{
	"version":    Integer("Layout version").Min(1),
	"status":     String("Lifecycle status").Enum("created", "waiting", "eating", "completed"),
	"eating_end": Nested("End of the text to eat", positionSchema),
	"author":     String("Who completed the task").Nullable(),
	"tags":       Array("Free form tags", map[string]any{"type": "string"}),
	"uuid":       String("Directive id").Pattern(`^[0-9a-f-]{36}$`),
	"extra":      Any("Anything"),
}, "status"))

func TestCompile(t *testing.T) {
	s, err := Compile(nil)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Nil(t, s.Raw())
	assert.NoError(t, s.ValidateJSON([]byte(`"anything"`)))

	_, err = Compile(map[string]any{"type": 12})
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile(map[string]any{"type": "no-such-type"}) })
	assert.Equal(t, "object", taskSchema.Raw()["type"])
}

func TestSchema_ValidateJSON(t *testing.T) {
	type input struct {
		data string
	}

	type expected struct {
		valid bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "minimal",
			input:    input{data: `{"status": "created"}`},
			expected: expected{valid: true},
		},
		{
			name: "full",
			input: input{data: `{
				"version": 1,
				"status": "eating",
				"eating_end": {"offset": 10, "line": 2, "column": 1},
				"author": null,
				"tags": ["a"],
				"uuid": "1b4e28ba-2fa1-4d2b-a3c2-6a1f9e3b5c70",
				"extra": {"x": [1, true]}
			}`},
			expected: expected{valid: true},
		},
		{
			name:     "unknown fields are accepted",
			input:    input{data: `{"status": "waiting", "added_later": 3}`},
			expected: expected{valid: true},
		},
		{
			name:     "missing status",
			input:    input{data: `{"version": 1}`},
			expected: expected{valid: false},
		},
		{
			name:     "unknown status",
			input:    input{data: `{"status": "sleeping"}`},
			expected: expected{valid: false},
		},
		{
			name:     "bad nested position",
			input:    input{data: `{"status": "eating", "eating_end": {"offset": -1, "line": 1, "column": 1}}`},
			expected: expected{valid: false},
		},
		{
			name:     "not json",
			input:    input{data: `{"status": `},
			expected: expected{valid: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := taskSchema.ValidateJSON([]byte(tt.input.data))
			if tt.expected.valid {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}
