package agentdoc

import (
	"context"
	"errors"
	"fmt"

	"github.com/rickchristie/agentdoc/source"
)

// Error sentinels. Errors returned by the engine wrap exactly one of them.
var (
	// ErrParse matches structural or lexical violations in a document.
	ErrParse = source.ErrSyntax
	// ErrPathResolution matches context or metadata paths that cannot be resolved.
	ErrPathResolution = errors.New("path resolution error")
	// ErrIO matches read, write and lock failures.
	ErrIO = errors.New("i/o error")
	// ErrState matches undecodable state files and invalid status transitions.
	ErrState = errors.New("state error")
	// ErrModel matches failures reported by the model adapter.
	ErrModel = errors.New("model error")
	// ErrPolicyInvariant matches directives used in a way their policy forbids.
	ErrPolicyInvariant = errors.New("policy invariant violated")
	// ErrCanceled matches executions aborted through their context.
	ErrCanceled = errors.New("execution canceled")
	// ErrLimitExceeded matches executions stopped by a configured limit.
	ErrLimitExceeded = errors.New("limit exceeded")
)

// Exit codes of the command line front end.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitParse   = 2
	ExitState   = 3
	ExitIO      = 4
	ExitModel   = 5
)

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrParse):
		return ExitParse
	case errors.Is(err, ErrState), errors.Is(err, ErrPolicyInvariant):
		return ExitState
	case errors.Is(err, ErrIO), errors.Is(err, ErrPathResolution):
		return ExitIO
	case errors.Is(err, ErrModel):
		return ExitModel
	default:
		return ExitFailure
	}
}

// Positioned is implemented by errors that know where in a document they occurred.
type Positioned interface {
	Position() source.Position
}

// PathError attaches the document being executed to an error.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// WrapPath attaches path to err unless err already carries a path.
func WrapPath(path string, err error) error {
	if err == nil {
		return nil
	}
	var pathErr *PathError
	if errors.As(err, &pathErr) {
		return err
	}
	return &PathError{Path: path, Err: err}
}

// Canceled converts a context error into an error matching ErrCanceled.
func Canceled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCanceled, context.Cause(ctx))
}

// Describe renders err as a single line "path:line:column: message", omitting the parts err
// does not carry.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var prefix string
	var pathErr *PathError
	if errors.As(err, &pathErr) {
		prefix = pathErr.Path + ":"
		err = pathErr.Err
	}
	var positioned Positioned
	if errors.As(err, &positioned) {
		msg := err.Error()
		pos := positioned.Position().String() + ": "
		if len(msg) >= len(pos) && msg[:len(pos)] == pos {
			msg = msg[len(pos):]
		}
		return prefix + pos + msg
	}
	if prefix != "" {
		return prefix + " " + err.Error()
	}
	return err.Error()
}
