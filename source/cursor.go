package source

import (
	"strings"
	"unicode/utf8"
)

// Cursor is an immutable reading head over a document.
type Cursor struct {
	input string
	pos   Position
}

// NewCursor returns a cursor at the start of input.
func NewCursor(input string) Cursor {
	return Cursor{input: input, pos: Start()}
}

// Position returns the position of the next unread character.
func (c Cursor) Position() Position {
	return c.pos
}

// Offset is shorthand for Position().Offset.
func (c Cursor) Offset() int {
	return c.pos.Offset
}

// Input returns the whole document the cursor reads from.
func (c Cursor) Input() string {
	return c.input
}

// Rest returns the unread part of the document.
func (c Cursor) Rest() string {
	return c.input[c.pos.Offset:]
}

// Since returns the text between start and c. start must not be after c.
func (c Cursor) Since(start Cursor) string {
	return c.input[start.pos.Offset:c.pos.Offset]
}

// RangeFrom returns the range between start and c.
func (c Cursor) RangeFrom(start Cursor) Range {
	return Range{Begin: start.pos, End: c.pos}
}

// Peek returns the next character without consuming it.
func (c Cursor) Peek() (rune, bool) {
	if c.IsEOD() {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(c.Rest())
	return r, true
}

// Advance consumes one character.
func (c Cursor) Advance() (Cursor, bool) {
	if c.IsEOD() {
		return c, false
	}
	r, size := utf8.DecodeRuneInString(c.Rest())
	return Cursor{input: c.input, pos: c.pos.Next(r, size)}, true
}

// ConsumeCharIf consumes the next character when pred accepts it.
func (c Cursor) ConsumeCharIf(pred func(rune) bool) (rune, Cursor, bool) {
	r, ok := c.Peek()
	if !ok || !pred(r) {
		return 0, c, false
	}
	next, _ := c.Advance()
	return r, next, true
}

// ConsumeMatchingChar consumes want if it is the next character.
func (c Cursor) ConsumeMatchingChar(want rune) (Cursor, bool) {
	_, next, ok := c.ConsumeCharIf(func(r rune) bool { return r == want })
	return next, ok
}

// ConsumeMatchingString consumes s if the unread input starts with it.
func (c Cursor) ConsumeMatchingString(s string) (Cursor, bool) {
	if !strings.HasPrefix(c.Rest(), s) {
		return c, false
	}
	return Cursor{input: c.input, pos: c.pos.Advance(s)}, true
}

// ConsumeManyIf greedily consumes characters accepted by pred. The consumed text may be
// empty.
func (c Cursor) ConsumeManyIf(pred func(rune) bool) (string, Cursor) {
	cur := c
	for {
		_, next, ok := cur.ConsumeCharIf(pred)
		if !ok {
			return cur.Since(c), cur
		}
		cur = next
	}
}

// SkipWhitespace skips spaces and tabs.
func (c Cursor) SkipWhitespace() Cursor {
	_, next := c.ConsumeManyIf(IsHorizontalSpace)
	return next
}

// SkipWhitespaceOrEOL skips spaces, tabs and line breaks.
func (c Cursor) SkipWhitespaceOrEOL() Cursor {
	_, next := c.ConsumeManyIf(func(r rune) bool {
		return IsHorizontalSpace(r) || r == '\n' || r == '\r'
	})
	return next
}

// ConsumeEOL consumes a single "\n" or "\r\n".
func (c Cursor) ConsumeEOL() (Cursor, bool) {
	if next, ok := c.ConsumeMatchingString("\r\n"); ok {
		return next, true
	}
	return c.ConsumeMatchingChar('\n')
}

// ConsumeLine consumes everything up to and including the next line break.
func (c Cursor) ConsumeLine() (string, Cursor) {
	idx := strings.IndexByte(c.Rest(), '\n')
	if idx < 0 {
		end := Cursor{input: c.input, pos: c.pos.Advance(c.Rest())}
		return c.Rest(), end
	}
	line := c.Rest()[:idx+1]
	return line, Cursor{input: c.input, pos: c.pos.Advance(line)}
}

// IsBeginOfLine reports whether the cursor sits at the start of the document or right after
// a line break.
func (c Cursor) IsBeginOfLine() bool {
	return c.pos.Offset == 0 || c.input[c.pos.Offset-1] == '\n'
}

// IsEOD reports whether the whole document has been consumed.
func (c Cursor) IsEOD() bool {
	return c.pos.Offset >= len(c.input)
}

// IsEOL reports whether the cursor sits on a line break.
func (c Cursor) IsEOL() bool {
	rest := c.Rest()
	return strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\r\n")
}

// Error builds a SyntaxError at the cursor position.
func (c Cursor) Error(kind ErrorKind, detail string) *SyntaxError {
	return NewSyntaxError(c.pos, kind, detail)
}

// IsHorizontalSpace reports whether r is a space or a tab.
func IsHorizontalSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
