package directive

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc/jsonplus"
	"github.com/rickchristie/agentdoc/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUUID = "1b4e28ba-2fa1-4d2b-a3c2-6a1f9e3b5c70"

// shape is a compact description of a node used to compare parse results.
type shape struct {
	Kind    string
	Text    string
	Command string
	Status  string
	Args    []string
}

func shapes(doc *Document) []shape {
	out := make([]shape, 0, len(doc.Content))
	for _, node := range doc.Content {
		s := shape{Text: doc.Slice(node.Span())}
		switch n := node.(type) {
		case *Text:
			s.Kind = "text"
		case *Tag:
			s.Kind = "tag"
			s.Command = n.Command
			for _, a := range n.Arguments {
				s.Args = append(s.Args, jsonplus.Text(a))
			}
		case *Anchor:
			s.Kind = string(n.Kind)
			s.Command = n.Command
			s.Status = n.Status
			for _, a := range n.Arguments {
				s.Args = append(s.Args, jsonplus.Text(a))
			}
		}
		out = append(out, s)
	}
	return out
}

func TestParse(t *testing.T) {
	type input struct {
		text string
	}

	type expected struct {
		shapes []shape
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "plain lines",
			input: input{text: "Hello\nWorld\n"},
			expected: expected{shapes: []shape{
				{Kind: "text", Text: "Hello\n"},
				{Kind: "text", Text: "World\n"},
			}},
		},
		{
			name:  "last line without newline",
			input: input{text: "A\nB"},
			expected: expected{shapes: []shape{
				{Kind: "text", Text: "A\n"},
				{Kind: "text", Text: "B"},
			}},
		},
		{
			name:  "include tag",
			input: input{text: "A\n@include b\nC\n"},
			expected: expected{shapes: []shape{
				{Kind: "text", Text: "A\n"},
				{Kind: "tag", Text: "@include b\n", Command: "include", Args: []string{"b"}},
				{Kind: "text", Text: "C\n"},
			}},
		},
		{
			name:  "tag at end of document",
			input: input{text: "@include b"},
			expected: expected{shapes: []shape{
				{Kind: "tag", Text: "@include b", Command: "include", Args: []string{"b"}},
			}},
		},
		{
			name:  "indented tag keeps indentation as text",
			input: input{text: "  @answer\n"},
			expected: expected{shapes: []shape{
				{Kind: "text", Text: "  "},
				{Kind: "tag", Text: "@answer\n", Command: "answer"},
			}},
		},
		{
			name:  "tag in the middle of a line is text",
			input: input{text: "mail me @answer\n"},
			expected: expected{shapes: []shape{
				{Kind: "text", Text: "mail me @answer\n"},
			}},
		},
		{
			name:  "unknown command backs off",
			input: input{text: "@mention someone\n@answers\n"},
			expected: expected{shapes: []shape{
				{Kind: "text", Text: "@mention someone\n"},
				{Kind: "text", Text: "@answers\n"},
			}},
		},
		{
			name:  "plain html comment is text",
			input: input{text: "<!-- just a note -->\n"},
			expected: expected{shapes: []shape{
				{Kind: "text", Text: "<!-- just a note -->\n"},
			}},
		},
		{
			name: "anchor pair",
			input: input{text: "<!-- answer-" + testUUID + ":begin+completed+ -->\nR.\n" +
				"<!-- answer-" + testUUID + ":end+completed+ -->\n"},
			expected: expected{shapes: []shape{
				{
					Kind:    "begin",
					Text:    "<!-- answer-" + testUUID + ":begin+completed+ -->\n",
					Command: "answer",
					Status:  "completed",
				},
				{Kind: "text", Text: "R.\n"},
				{
					Kind:    "end",
					Text:    "<!-- answer-" + testUUID + ":end+completed+ -->\n",
					Command: "answer",
					Status:  "completed",
				},
			}},
		},
		{
			name:  "anchor with arguments and no status",
			input: input{text: "<!-- inline-" + testUUID + ":begin[data={a: 1}] intro 'x y' -->"},
			expected: expected{shapes: []shape{
				{
					Kind:    "begin",
					Text:    "<!-- inline-" + testUUID + ":begin[data={a: 1}] intro 'x y' -->",
					Command: "inline",
					Args:    []string{"intro", "x y"},
				},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input.text)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected.shapes, shapes(doc)); diff != "" {
				t.Errorf("parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_TagFields(t *testing.T) {
	doc, err := Parse("@answer[provider=claude,\n  verbose] \"What changed?\" 3\n")
	require.NoError(t, err)
	require.Len(t, doc.Content, 1)

	tag, ok := doc.Content[0].(*Tag)
	require.True(t, ok)
	assert.Equal(t, "answer", tag.Command)
	assert.Equal(t, "[provider=claude,\n  verbose]", tag.RawParameters)
	assert.Equal(t, `"What changed?" 3`, tag.RawArguments)
	assert.Equal(t, "\n", tag.EOL)

	provider, ok := tag.Parameters.GetString("provider")
	require.True(t, ok)
	assert.Equal(t, "claude", provider)
	assert.True(t, tag.Parameters.Has("verbose"))

	require.Len(t, tag.Arguments, 2)
	assert.Equal(t, jsonplus.DoubleQuoted("What changed?"), tag.Arguments[0])
	assert.Equal(t, jsonplus.Integer(3), tag.Arguments[1])
	assert.Equal(t, source.Position{Offset: 0, Line: 1, Column: 1}, tag.Range.Begin)
	assert.Equal(t, 3, tag.Range.End.Line)
}

func TestParse_AnchorFields(t *testing.T) {
	text := "<!-- task-" + testUUID + ":end+waiting+ -->\r\n"
	doc, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, doc.Content, 1)

	a := doc.Content[0].(*Anchor)
	assert.Equal(t, uuid.MustParse(testUUID), a.UUID)
	assert.Equal(t, End, a.Kind)
	assert.True(t, a.HasStatus)
	assert.Equal(t, "waiting", doc.Slice(a.StatusRange))
	assert.Equal(t, "\r\n", a.EOL)

	r, replacement := a.StatusPatch("eating")
	assert.Equal(t, a.StatusRange, r)
	assert.Equal(t, "eating", replacement)
}

func TestParse_AnchorParametersAfterSpace(t *testing.T) {
	text := "<!-- answer-" + testUUID + ":begin+created+  [provider=x] -->\n"
	doc, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, doc.Content, 1)

	a := doc.Content[0].(*Anchor)
	v, ok := a.Parameters.Get("provider")
	require.True(t, ok)
	assert.Equal(t, "x", jsonplus.Text(v))
	assert.Equal(t, "[provider=x]", a.RawParameters)
	assert.Empty(t, a.Arguments)
	assert.Equal(t, "created", doc.Slice(a.StatusRange))
}

func TestParse_StatusPatchWithoutStatus(t *testing.T) {
	text := "<!-- task-" + testUUID + ":begin -->\n"
	doc, err := Parse(text)
	require.NoError(t, err)

	a := doc.Content[0].(*Anchor)
	assert.False(t, a.HasStatus)
	r, replacement := a.StatusPatch("waiting")
	assert.True(t, r.IsEmpty())
	assert.Equal(t, "+waiting+", replacement)
	patched := text[:r.Begin.Offset] + replacement + text[r.End.Offset:]
	assert.Equal(t, "<!-- task-"+testUUID+":begin+waiting+ -->\n", patched)
}

func TestParse_Errors(t *testing.T) {
	type input struct {
		text string
	}

	type expected struct {
		kind   source.ErrorKind
		offset int
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "unterminated parameters point at bracket",
			input:    input{text: "@answer[unterminated"},
			expected: expected{kind: jsonplus.UnterminatedObject, offset: 7},
		},
		{
			name:     "invalid uuid",
			input:    input{text: "x\n<!-- answer-not-a-uuid:begin -->\n"},
			expected: expected{kind: InvalidUuid, offset: 14},
		},
		{
			name:     "version 1 uuid is rejected",
			input:    input{text: "<!-- answer-1b4e28ba-2fa1-11d2-883f-0016d3cca427:begin -->\n"},
			expected: expected{kind: InvalidUuid, offset: 12},
		},
		{
			name:     "missing comment terminator",
			input:    input{text: "<!-- answer-" + testUUID + ":begin+created+\nmore\n"},
			expected: expected{kind: UnterminatedAnchor, offset: 0},
		},
		{
			name:     "unknown anchor kind",
			input:    input{text: "<!-- answer-" + testUUID + ":middle -->\n"},
			expected: expected{kind: MalformedAnchor, offset: 49},
		},
		{
			name:     "bad argument",
			input:    input{text: "@include 'open\n"},
			expected: expected{kind: jsonplus.UnterminatedString, offset: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, source.ErrSyntax)
			var syntaxErr *source.SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.expected.kind, syntaxErr.Kind)
			assert.Equal(t, tt.expected.offset, syntaxErr.Pos.Offset)
		})
	}
}

func TestParse_ChildrenCoverDocument(t *testing.T) {
	inputs := []string{
		"",
		"Hello\nWorld\n",
		"  @include a\n\t<!-- note -->\n@set[x=1]",
		"<!-- answer-" + testUUID + ":begin+created+ -->\n  body\n<!-- answer-" + testUUID +
			":end+created+ -->",
		"é\n@task\n\n\n",
	}

	for _, text := range inputs {
		doc, err := Parse(text)
		require.NoError(t, err)

		offset := 0
		var rebuilt strings.Builder
		for _, node := range doc.Content {
			r := node.Span()
			assert.Equal(t, offset, r.Begin.Offset, "gap or overlap in %q", text)
			assert.False(t, r.IsEmpty())
			offset = r.End.Offset
			rebuilt.WriteString(doc.Slice(r))
		}
		assert.Equal(t, len(text), offset)
		assert.Equal(t, text, rebuilt.String())
		assert.Equal(t, len(text), doc.Range.End.Offset)
	}
}

func TestParser_CustomCommands(t *testing.T) {
	doc, err := NewParser("note").Parse("@note hi\n@include x\n")
	require.NoError(t, err)
	require.Len(t, doc.Content, 2)
	_, isTag := doc.Content[0].(*Tag)
	assert.True(t, isTag)
	_, isText := doc.Content[1].(*Text)
	assert.True(t, isText)
}
