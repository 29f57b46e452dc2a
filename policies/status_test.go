package policies_test

import (
	"encoding/json"
	"testing"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/policies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	type input struct {
		parse func(string) (string, error)
		text  string
	}
	type expected struct {
		err bool
	}

	answer := func(s string) (string, error) { v, err := policies.ParseAnswerStatus(s); return string(v), err }
	task := func(s string) (string, error) { v, err := policies.ParseTaskStatus(s); return string(v), err }
	repeat := func(s string) (string, error) { v, err := policies.ParseRepeatStatus(s); return string(v), err }

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{name: "answer processing", input: input{parse: answer, text: "processing"}},
		{name: "answer repeat", input: input{parse: answer, text: "repeat"}},
		{name: "task eating", input: input{parse: task, text: "eating"}},
		{name: "repeat completed", input: input{parse: repeat, text: "completed"}},
		{name: "task has no repeat", input: input{parse: task, text: "repeat"}, expected: expected{err: true}},
		{name: "case matters", input: input{parse: answer, text: "Completed"}, expected: expected{err: true}},
		{name: "empty", input: input{parse: repeat, text: ""}, expected: expected{err: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.parse(tt.input.text)
			if tt.expected.err {
				require.Error(t, err)
				assert.ErrorIs(t, err, agentdoc.ErrState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input.text, got)
		})
	}
}

func TestAnswerState_RejectsUnknownStatus(t *testing.T) {
	var s policies.AnswerState
	err := json.Unmarshal([]byte(`{"version":1,"status":"thinking"}`), &s)
	require.Error(t, err)
	assert.ErrorIs(t, err, agentdoc.ErrState)
}
