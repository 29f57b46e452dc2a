package engine

import (
	"errors"
	"fmt"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/source"
)

// ErrMissingArgument is wrapped when a directive lacks a required argument.
var ErrMissingArgument = fmt.Errorf("%w: missing argument", agentdoc.ErrParse)

// DirectiveError attaches the directive being evaluated to an error.
type DirectiveError struct {
	Command string
	Pos     source.Position
	Err     error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s: @%s: %v", e.Pos, e.Command, e.Err)
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}

// Position implements agentdoc.Positioned.
func (e *DirectiveError) Position() source.Position {
	return e.Pos
}

// IsDirectiveError reports whether err was raised while evaluating a directive.
func IsDirectiveError(err error) bool {
	var de *DirectiveError
	return errors.As(err, &de)
}
