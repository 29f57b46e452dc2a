package source

import (
	"fmt"
	"unicode/utf8"
)

// Position is a location inside a document. Offset is a byte offset, Line and Column are
// 1-based and Column counts code points on the current line.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Start is the position of the first byte of any document.
func Start() Position {
	return Position{Offset: 0, Line: 1, Column: 1}
}

// Next returns the position after consuming r, whose UTF-8 encoding is size bytes long.
func (p Position) Next(r rune, size int) Position {
	if r == '\n' {
		return Position{Offset: p.Offset + size, Line: p.Line + 1, Column: 1}
	}
	return Position{Offset: p.Offset + size, Line: p.Line, Column: p.Column + 1}
}

// Advance returns the position after consuming all of s.
func (p Position) Advance(s string) Position {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		p = p.Next(r, size)
		s = s[size:]
	}
	return p
}

// Before reports whether p is located strictly before other.
func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// String renders the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range is the half-open interval [Begin, End).
type Range struct {
	Begin Position `json:"begin"`
	End   Position `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End.Offset - r.Begin.Offset
}

// IsEmpty reports whether the range covers no bytes.
func (r Range) IsEmpty() bool {
	return r.Len() == 0
}

// Contains reports whether other lies entirely inside r.
func (r Range) Contains(other Range) bool {
	return r.Begin.Offset <= other.Begin.Offset && other.End.Offset <= r.End.Offset
}

// Overlaps reports whether the two ranges share at least one byte.
func (r Range) Overlaps(other Range) bool {
	return r.Begin.Offset < other.End.Offset && other.Begin.Offset < r.End.Offset
}

// Slice returns the bytes of text covered by the range.
func (r Range) Slice(text string) string {
	return text[r.Begin.Offset:r.End.Offset]
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Begin, r.End)
}
