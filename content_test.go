package agentdoc

import (
	"testing"

	"github.com/rickchristie/agentdoc/jsonplus"
	"github.com/stretchr/testify/assert"
)

func TestModelContent_Substitute(t *testing.T) {
	type input struct {
		content     ModelContent
		placeholder string
	}
	type expected struct {
		content ModelContent
		ok      bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "last marker is replaced",
			input: input{
				content: ModelContent{
					MergeDownstream(TaskAnchorPlaceholder),
					User("between\n"),
					MergeDownstream(TaskAnchorPlaceholder),
					MergeDownstream("other"),
					User("after\n"),
				},
				placeholder: TaskAnchorPlaceholder,
			},
			expected: expected{
				content: ModelContent{
					MergeDownstream(TaskAnchorPlaceholder),
					User("between\n"),
					Agent("bot", "done"),
					MergeDownstream("other"),
					User("after\n"),
				},
				ok: true,
			},
		},
		{
			name: "no marker",
			input: input{
				content:     ModelContent{User("before\n"), MergeDownstream("other")},
				placeholder: TaskAnchorPlaceholder,
			},
			expected: expected{
				content: ModelContent{User("before\n"), MergeDownstream("other")},
				ok:      false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.input.content.Clone()
			result, ok := tt.input.content.Substitute(tt.input.placeholder, ModelContent{Agent("bot", "done")})
			assert.Equal(t, tt.expected.ok, ok)
			assert.Equal(t, tt.expected.content, result)
			assert.Equal(t, original, tt.input.content)
		})
	}
}

func TestModelContent_CloneIsIndependent(t *testing.T) {
	content := make(ModelContent, 1, 4)
	content[0] = User("a")

	clone := content.Clone()
	_ = append(content, User("b"))
	clone = append(clone, User("c"))

	assert.Equal(t, ModelContent{User("a"), User("c")}, clone)
	assert.Nil(t, ModelContent(nil).Clone())
}

func TestVariables_MergeAndForget(t *testing.T) {
	vars := NewVariables("openai")

	merged := vars.Merge(jsonplus.NewObject().
		Set("provider", jsonplus.Nude("claude")).
		Set("tone", jsonplus.SingleQuoted("formal")))
	assert.Equal(t, "openai", vars.Provider)
	assert.False(t, vars.Extra.Has("tone"))
	assert.Equal(t, "claude", merged.Provider)
	tone, ok := merged.Get("tone")
	assert.True(t, ok)
	assert.Equal(t, "formal", jsonplus.Text(tone))

	forgotten := merged.Forget("tone", "provider", "missing")
	assert.Equal(t, "", forgotten.Provider)
	assert.False(t, forgotten.Extra.Has("tone"))
	assert.True(t, merged.Extra.Has("tone"))

	assert.Equal(t, map[string]any{"provider": "claude", "tone": "formal"}, merged.Map())
}
