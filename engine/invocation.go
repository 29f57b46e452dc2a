package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/jsonplus"
	"github.com/rickchristie/agentdoc/project"
	"github.com/rickchristie/agentdoc/source"
	"github.com/rickchristie/agentdoc/state"
)

// Invocation is what a hook sees of the directive it evaluates.
type Invocation struct {
	worker *Worker
	step   *step

	// Path is the absolute path of the document.
	Path     string
	Document *directive.Document
	Index    *directive.AnchorIndex
	// NodeIndex is the index of the tag, or of the begin anchor, in Document.Content.
	NodeIndex int

	// Collector is owned by the hook. For anchors it holds the content preceding the pair.
	Collector *Collector

	// Tag is set for tag hooks.
	Tag *directive.Tag

	// Pair and Input are set for anchor hooks. Input is the content of the body.
	Pair  *directive.Pair
	Input agentdoc.ModelContent
}

// step gathers what happened during one step, for the commit message.
type step struct {
	transitions []string
}

// Readonly reports whether the walk is a collect walk.
func (inv *Invocation) Readonly() bool {
	return !inv.Collector.CanExecute
}

// Command returns the command of the directive.
func (inv *Invocation) Command() string {
	if inv.Tag != nil {
		return inv.Tag.Command
	}
	return inv.Pair.Begin.Command
}

// UUID returns the id of the anchor pair, or uuid.Nil for tags.
func (inv *Invocation) UUID() uuid.UUID {
	if inv.Pair == nil {
		return uuid.Nil
	}
	return inv.Pair.Begin.UUID
}

// Parameters returns the parameters of the directive, never nil.
func (inv *Invocation) Parameters() *jsonplus.Object {
	var params *jsonplus.Object
	if inv.Tag != nil {
		params = inv.Tag.Parameters
	} else {
		params = inv.Pair.Begin.Parameters
	}
	if params == nil {
		return jsonplus.NewObject()
	}
	return params
}

// Parameter returns the text of the parameter key.
func (inv *Invocation) Parameter(key string) (string, bool) {
	v, ok := inv.Parameters().Get(key)
	if !ok {
		return "", false
	}
	return jsonplus.Text(v), true
}

// Arguments returns the arguments of the directive.
func (inv *Invocation) Arguments() []jsonplus.Value {
	if inv.Tag != nil {
		return inv.Tag.Arguments
	}
	return inv.Pair.Begin.Arguments
}

// Argument returns the text of the i-th argument, or an error naming it when it is missing.
func (inv *Invocation) Argument(i int, name string) (string, error) {
	args := inv.Arguments()
	if i >= len(args) {
		return "", inv.Errorf(fmt.Errorf("%w: %s", ErrMissingArgument, name))
	}
	text := jsonplus.Text(args[i])
	if text == "" {
		return "", inv.Errorf(fmt.Errorf("%w: %s", ErrMissingArgument, name))
	}
	return text, nil
}

// Position returns where the directive starts.
func (inv *Invocation) Position() source.Position {
	if inv.Tag != nil {
		return inv.Tag.Range.Begin
	}
	return inv.Pair.Begin.Range.Begin
}

// Errorf attaches the directive to err.
func (inv *Invocation) Errorf(err error) error {
	return &DirectiveError{Command: inv.Command(), Pos: inv.Position(), Err: err}
}

// Inner returns the current body of the anchor pair.
func (inv *Invocation) Inner() string {
	if inv.Pair == nil {
		return ""
	}
	return inv.Document.Slice(inv.Pair.Body())
}

// Indentation returns the whitespace preceding the directive on its line.
func (inv *Invocation) Indentation() string {
	return inv.Document.Indentation(inv.NodeIndex)
}

// Store returns the state store.
func (inv *Invocation) Store() *state.Store {
	return inv.worker.store
}

// Resolver returns the project resolver.
func (inv *Invocation) Resolver() *project.Resolver {
	return inv.worker.resolver
}

// Time returns the time provider.
func (inv *Invocation) Time() agentdoc.TimeProvider {
	return inv.worker.time
}

// Relative returns the document path relative to the project root.
func (inv *Invocation) Relative() string {
	return inv.worker.relative(inv.Path)
}

// ReadContext returns the content of the context document name.
func (inv *Invocation) ReadContext(name string) (string, error) {
	path, err := inv.worker.resolver.ResolveContext(name)
	if err != nil {
		return "", inv.Errorf(err)
	}
	text, err := inv.worker.accessor.ReadFile(path)
	if err != nil {
		return "", inv.Errorf(err)
	}
	return text, nil
}

// Include walks the context document name with a collector descending from inv.Collector:
// executed to convergence when the walk may execute, collected otherwise. It returns false
// when the document is already being walked further up the stack.
func (inv *Invocation) Include(ctx context.Context, name string) (*Collector, bool, error) {
	path, err := inv.worker.resolver.ResolveContext(name)
	if err != nil {
		return nil, false, inv.Errorf(err)
	}
	if inv.Collector.Visiting(path) {
		inv.worker.cycleSkipped(ctx, inv.Collector, path)
		return nil, false, nil
	}
	var child *Collector
	if inv.Collector.CanExecute {
		child, err = inv.worker.ExecutePath(ctx, inv.Collector, path)
	} else {
		child, err = inv.worker.CollectPath(ctx, inv.Collector, path)
	}
	if err != nil {
		return nil, false, err
	}
	return child, true, nil
}

// CallModel flattens content for provider and sends it to the model.
func (inv *Invocation) CallModel(ctx context.Context, provider string, content agentdoc.ModelContent) (string, error) {
	reply, err := inv.worker.callModel(ctx, inv.Collector, provider, content)
	if err != nil {
		return "", inv.Errorf(err)
	}
	return reply, nil
}

// Transition records that the state of the instance command/id moved from one status to
// another.
func (inv *Invocation) Transition(ctx context.Context, command string, id uuid.UUID, from, to string) {
	inv.worker.transition(ctx, inv, command, id, from, to)
}
