package directive

import (
	"strings"

	"github.com/google/uuid"
)

// Header describes an anchor header to render.
type Header struct {
	Command string
	UUID    uuid.UUID
	Kind    AnchorKind
	Status  string
	// Parameters and Arguments are raw source text, written verbatim.
	Parameters string
	Arguments  string
}

// String renders "<!-- cmd-uuid:kind+status+[params] args -->".
func (h Header) String() string {
	var b strings.Builder
	b.WriteString(anchorOpen)
	b.WriteByte(' ')
	b.WriteString(h.Command)
	b.WriteByte('-')
	b.WriteString(h.UUID.String())
	b.WriteByte(':')
	b.WriteString(string(h.Kind))
	b.WriteByte('+')
	b.WriteString(h.Status)
	b.WriteByte('+')
	b.WriteString(h.Parameters)
	if h.Arguments != "" {
		b.WriteByte(' ')
		b.WriteString(h.Arguments)
	}
	b.WriteByte(' ')
	b.WriteString(anchorClose)
	return b.String()
}

// RenderPair returns the text replacing tag: a begin anchor carrying the tag's parameters and
// arguments, the inner text, and an end anchor. indent is written before the end anchor so it
// lines up with the begin anchor, which keeps the indentation preceding the tag.
func RenderPair(tag *Tag, id uuid.UUID, status string, inner string, indent string) string {
	begin := Header{
		Command:    tag.Command,
		UUID:       id,
		Kind:       Begin,
		Status:     status,
		Parameters: tag.RawParameters,
		Arguments:  tag.RawArguments,
	}
	end := Header{Command: tag.Command, UUID: id, Kind: End, Status: status}

	var b strings.Builder
	b.WriteString(begin.String())
	b.WriteByte('\n')
	b.WriteString(inner)
	if inner != "" && !strings.HasSuffix(inner, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(indent)
	b.WriteString(end.String())
	b.WriteString(tag.EOL)
	return b.String()
}

// Indentation returns the horizontal whitespace that precedes the node at index on its line.
func (d *Document) Indentation(index int) string {
	if index <= 0 || index >= len(d.Content) {
		return ""
	}
	prev, ok := d.Content[index-1].(*Text)
	if !ok {
		return ""
	}
	text := prev.Content(d.Source)
	if strings.TrimLeft(text, " \t") != "" {
		return ""
	}
	return text
}
