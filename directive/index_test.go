package directive

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const otherUUID = "9a7d3c1e-5b2f-4e8a-9c6d-0f1e2d3c4b5a"

func anchorLine(command, id string, kind AnchorKind) string {
	return "<!-- " + command + "-" + id + ":" + string(kind) + "+created+ -->\n"
}

func TestAnchorIndex_Pairs(t *testing.T) {
	text := "intro\n" +
		anchorLine("task", testUUID, Begin) +
		anchorLine("answer", otherUUID, Begin) +
		"reply\n" +
		anchorLine("answer", otherUUID, End) +
		anchorLine("task", testUUID, End)

	doc, err := Parse(text)
	require.NoError(t, err)
	idx, err := NewAnchorIndex(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	outer, ok := idx.Pair(uuid.MustParse(testUUID))
	require.True(t, ok)
	assert.Equal(t, 1, outer.BeginIndex)
	assert.Equal(t, 5, outer.EndIndex)

	end, ok := idx.GetEnd(uuid.MustParse(otherUUID))
	require.True(t, ok)
	inner, _ := idx.Pair(uuid.MustParse(otherUUID))
	assert.Equal(t, inner.End.Range.Begin, end)
	assert.Equal(t, "reply\n", doc.Slice(inner.Body()))

	enclosing := idx.Enclosing(3)
	require.Len(t, enclosing, 2)
	assert.Equal(t, "task", enclosing[0].Begin.Command)
	assert.Equal(t, "answer", enclosing[1].Begin.Command)

	_, ok = idx.GetEnd(uuid.New())
	assert.False(t, ok)
}

func TestAnchorIndex_Errors(t *testing.T) {
	type input struct {
		text string
	}

	type expected struct {
		kind       source.ErrorKind
		firstLine  int
		secondLine int
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "interleaved",
			input: input{text: anchorLine("task", testUUID, Begin) +
				anchorLine("answer", otherUUID, Begin) +
				anchorLine("task", testUUID, End) +
				anchorLine("answer", otherUUID, End)},
			expected: expected{kind: InterleavedAnchors, firstLine: 2, secondLine: 3},
		},
		{
			name:     "unmatched begin",
			input:    input{text: "x\n" + anchorLine("answer", testUUID, Begin)},
			expected: expected{kind: UnmatchedBegin, firstLine: 2, secondLine: 2},
		},
		{
			name:     "end without begin",
			input:    input{text: anchorLine("answer", testUUID, End)},
			expected: expected{kind: UnmatchedEnd, firstLine: 1, secondLine: 1},
		},
		{
			name: "end before begin",
			input: input{text: anchorLine("answer", testUUID, End) +
				anchorLine("answer", testUUID, Begin)},
			expected: expected{kind: UnmatchedEnd, firstLine: 1, secondLine: 1},
		},
		{
			name: "duplicate begin",
			input: input{text: anchorLine("answer", testUUID, Begin) +
				anchorLine("answer", testUUID, Begin) +
				anchorLine("answer", testUUID, End)},
			expected: expected{kind: DuplicateAnchor, firstLine: 1, secondLine: 2},
		},
		{
			name: "duplicate end",
			input: input{text: anchorLine("answer", testUUID, Begin) +
				anchorLine("answer", testUUID, End) +
				anchorLine("answer", testUUID, End)},
			expected: expected{kind: DuplicateAnchor, firstLine: 2, secondLine: 3},
		},
		{
			name: "command mismatch",
			input: input{text: anchorLine("answer", testUUID, Begin) +
				anchorLine("inline", testUUID, End)},
			expected: expected{kind: CommandMismatch, firstLine: 1, secondLine: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input.text)
			require.NoError(t, err)

			_, err = NewAnchorIndex(doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, source.ErrSyntax)

			var pairingErr *PairingError
			require.ErrorAs(t, err, &pairingErr)
			assert.Equal(t, tt.expected.kind, pairingErr.Kind)
			assert.Equal(t, tt.expected.firstLine, pairingErr.First.Begin.Line)
			assert.Equal(t, tt.expected.secondLine, pairingErr.Second.Begin.Line)
			assert.Equal(t, pairingErr.Second.Begin, pairingErr.Position())
		})
	}
}

func TestRenderPair(t *testing.T) {
	id := uuid.MustParse(testUUID)

	doc, err := Parse("Q?\n@answer\n")
	require.NoError(t, err)
	tag := doc.Content[1].(*Tag)
	assert.Equal(t,
		"<!-- answer-"+testUUID+":begin+created+ -->\n<!-- answer-"+testUUID+":end+created+ -->\n",
		RenderPair(tag, id, "created", "", doc.Indentation(1)))

	doc, err = Parse("  @inline[data={name: Ada}] greeting")
	require.NoError(t, err)
	tag = doc.Content[1].(*Tag)
	rendered := RenderPair(tag, id, "completed", "Hi Ada", doc.Indentation(1))
	assert.Equal(t,
		"<!-- inline-"+testUUID+":begin+completed+[data={name: Ada}] greeting -->\nHi Ada\n"+
			"  <!-- inline-"+testUUID+":end+completed+ -->",
		rendered)

	reparsed, err := Parse("  " + rendered)
	require.NoError(t, err)
	idx, err := NewAnchorIndex(reparsed)
	require.NoError(t, err)
	pair, ok := idx.Pair(id)
	require.True(t, ok)
	name, _ := pair.Begin.Parameters.Get("data")
	assert.Equal(t, "{name: Ada}", name.String())
	assert.Equal(t, "Hi Ada\n  ", reparsed.Slice(pair.Body()))
}
