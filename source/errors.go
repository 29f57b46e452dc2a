package source

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every *SyntaxError.
var ErrSyntax = errors.New("syntax error")

// ErrorKind names the category of a syntax error. Parsers built on this package declare
// their own kinds.
type ErrorKind string

// SyntaxError is a lexical or structural violation detected at Pos.
type SyntaxError struct {
	Pos    Position
	Kind   ErrorKind
	Detail string
}

// NewSyntaxError creates a SyntaxError. Detail is optional free text.
func NewSyntaxError(pos Position, kind ErrorKind, detail string) *SyntaxError {
	return &SyntaxError{Pos: pos, Kind: kind, Detail: detail}
}

func (e *SyntaxError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Detail)
}

// Is makes SyntaxError match ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Position returns where the error was detected.
func (e *SyntaxError) Position() Position {
	return e.Pos
}

// IsKind reports whether err carries a *SyntaxError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Kind == kind
	}
	return false
}
