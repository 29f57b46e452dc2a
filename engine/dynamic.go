package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/state"
)

// MonoInput is what a dynamic policy sees of the instance it evaluates.
type MonoInput[S any] struct {
	*Invocation
	// State is the persisted state, or the initial one when no file exists yet.
	State *S
}

// MonoResult is the outcome of one evaluation of a dynamic instance.
type MonoResult[S any] struct {
	// State is persisted when non-nil.
	State *S
	// Inner replaces the body of the pair when non-nil.
	Inner *string
	// Patches are applied along with the body replacement.
	Patches []Patch
	// NextPass asks for another step even when nothing is patched.
	NextPass bool
	// Collector continues the walk. Nil keeps the collector preceding the pair.
	Collector *Collector
}

// Mono evaluates one instance of a dynamic command.
type Mono[S any] func(ctx context.Context, in *MonoInput[S]) (*MonoResult[S], error)

// Dynamic builds the registry entry of a command whose instances persist a state of type S.
//
// A tag is expanded into an anchor pair with a fresh uuid and the initial state. An anchor
// pair loads its state and hands it to mono. The persisted status is what the anchor headers
// show: the worker rewrites headers that disagree with it.
func Dynamic[S any, P state.Initializer[S]](command string, mono Mono[S]) Entry {
	return Entry{
		Command: command,
		Tag: func(ctx context.Context, inv *Invocation) (*Collector, []Patch, error) {
			return expand[S, P](ctx, inv)
		},
		Anchor: func(ctx context.Context, inv *Invocation) (*Collector, []Patch, error) {
			return evaluate[S, P](ctx, inv, mono)
		},
		Indicator: func(store *state.Store, id uuid.UUID) (string, error) {
			s, err := state.Load[S, P](store, command, id)
			if err != nil {
				return "", err
			}
			return P(s).StatusIndicator(), nil
		},
	}
}

func expand[S any, P state.Initializer[S]](ctx context.Context, inv *Invocation) (*Collector, []Patch, error) {
	if inv.Readonly() {
		return inv.Collector, nil, nil
	}
	id := inv.worker.newID()
	initial := P(new(S))
	initial.Init()
	if err := state.Save(inv.Store(), inv.Tag.Command, id, initial); err != nil {
		return nil, nil, inv.Errorf(err)
	}
	status := initial.StatusIndicator()
	inv.Transition(ctx, inv.Tag.Command, id, "", status)
	text := directive.RenderPair(inv.Tag, id, status, "", inv.Indentation())
	return nil, []Patch{{Range: inv.Tag.Range, Text: text}}, nil
}

func evaluate[S any, P state.Initializer[S]](ctx context.Context, inv *Invocation, mono Mono[S]) (*Collector, []Patch, error) {
	command, id := inv.Command(), inv.UUID()
	current, err := state.Load[S, P](inv.Store(), command, id)
	if err != nil {
		return nil, nil, inv.Errorf(err)
	}
	before := P(current).StatusIndicator()

	res, err := mono(ctx, &MonoInput[S]{Invocation: inv, State: current})
	if err != nil {
		return nil, nil, err
	}
	if res == nil {
		return inv.Collector, nil, nil
	}
	if inv.Readonly() {
		if res.State != nil || res.Inner != nil || len(res.Patches) > 0 {
			panic(fmt.Errorf("%w: @%s %s changed during a collect walk",
				agentdoc.ErrPolicyInvariant, command, id))
		}
		if res.Collector == nil {
			return inv.Collector, nil, nil
		}
		return res.Collector, nil, nil
	}

	if res.State != nil {
		if err := state.Save(inv.Store(), command, id, P(res.State)); err != nil {
			return nil, nil, inv.Errorf(err)
		}
		if after := P(res.State).StatusIndicator(); after != before {
			inv.Transition(ctx, command, id, before, after)
		}
	}

	patches := res.Patches
	if res.Inner != nil {
		indent := inv.Document.Indentation(inv.Pair.EndIndex)
		patches = append(patches, Patch{Range: inv.Pair.Body(), Text: renderInner(*res.Inner, indent)})
	}
	if res.NextPass || len(patches) > 0 {
		return nil, patches, nil
	}
	if res.Collector == nil {
		return inv.Collector, nil, nil
	}
	return res.Collector, nil, nil
}

// renderInner terminates inner with a line break and indents the end anchor that follows.
func renderInner(inner, indent string) string {
	if inner != "" && !strings.HasSuffix(inner, "\n") {
		inner += "\n"
	}
	return inner + indent
}

// Ptr returns a pointer to v, for MonoResult.Inner.
func Ptr[T any](v T) *T {
	return &v
}
