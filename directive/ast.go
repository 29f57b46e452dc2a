package directive

import (
	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc/jsonplus"
	"github.com/rickchristie/agentdoc/source"
)

// AnchorKind tells opening and closing anchors apart.
type AnchorKind string

const (
	Begin AnchorKind = "begin"
	End   AnchorKind = "end"
)

// Node is one of *Text, *Tag or *Anchor.
type Node interface {
	Span() source.Range
}

// Text is a run of plain bytes. Its content is obtained by slicing the document.
type Text struct {
	Range source.Range
}

// Tag is an unexecuted directive such as "@include notes".
type Tag struct {
	Command    string
	Parameters *jsonplus.Object
	Arguments  []jsonplus.Value

	// RawParameters and RawArguments keep the source text of the parameter list (brackets
	// included) and of the arguments, so an anchor header can reproduce them verbatim.
	RawParameters string
	RawArguments  string

	// Range covers the tag and its line break, if any.
	Range source.Range
	// EOL is the line break that terminated the tag, empty at end of document.
	EOL string
}

// Anchor is one half of a begin/end pair delimiting a region owned by a directive instance.
type Anchor struct {
	Command string
	UUID    uuid.UUID
	Kind    AnchorKind
	Status  string

	// HasStatus reports whether the header carried a "+status+" segment. StatusRange covers
	// the status text between the plus signs, or is empty right after the kind when absent.
	HasStatus   bool
	StatusRange source.Range

	Parameters    *jsonplus.Object
	Arguments     []jsonplus.Value
	RawParameters string
	RawArguments  string

	// Range covers the whole comment and its line break, if any.
	Range source.Range
	EOL   string
}

func (t *Text) Span() source.Range   { return t.Range }
func (t *Tag) Span() source.Range    { return t.Range }
func (a *Anchor) Span() source.Range { return a.Range }

// Content returns the text of the node inside document.
func (t *Text) Content(document string) string {
	return t.Range.Slice(document)
}

// StatusPatch returns the range to replace and the replacement that make the header show
// status.
func (a *Anchor) StatusPatch(status string) (source.Range, string) {
	if a.HasStatus {
		return a.StatusRange, status
	}
	return a.StatusRange, "+" + status + "+"
}

// Argument returns the i-th argument.
func (t *Tag) Argument(i int) (jsonplus.Value, bool) {
	return argument(t.Arguments, i)
}

// Argument returns the i-th argument.
func (a *Anchor) Argument(i int) (jsonplus.Value, bool) {
	return argument(a.Arguments, i)
}

func argument(args []jsonplus.Value, i int) (jsonplus.Value, bool) {
	if i < 0 || i >= len(args) {
		return nil, false
	}
	return args[i], true
}

// Document is the parsed form of a file.
type Document struct {
	Source  string
	Content []Node
	Range   source.Range
}

// Slice returns the document text covered by r.
func (d *Document) Slice(r source.Range) string {
	return r.Slice(d.Source)
}

// Anchors returns the anchors of the document in source order.
func (d *Document) Anchors() []*Anchor {
	var anchors []*Anchor
	for _, node := range d.Content {
		if a, ok := node.(*Anchor); ok {
			anchors = append(anchors, a)
		}
	}
	return anchors
}

// HasDirectives reports whether the document contains at least one tag or anchor.
func (d *Document) HasDirectives() bool {
	for _, node := range d.Content {
		if _, ok := node.(*Text); !ok {
			return true
		}
	}
	return false
}
