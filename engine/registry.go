package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc/state"
)

// Hook evaluates one directive. It returns the collector to continue the walk with, and the
// patches to apply to the document. A nil collector means the document is not stable yet:
// the walk carries on so that other directives get their turn, and a new step follows.
type Hook func(ctx context.Context, inv *Invocation) (*Collector, []Patch, error)

// Indicator returns the status an anchor header of a dynamic directive should show.
type Indicator func(store *state.Store, id uuid.UUID) (string, error)

// Entry binds a command to its policy.
type Entry struct {
	Command string
	// Tag evaluates "@command" tags.
	Tag Hook
	// Anchor evaluates anchor pairs. Nil for static commands, which never own a region.
	Anchor Hook
	// Indicator is set for dynamic commands.
	Indicator Indicator
}

// Dynamic reports whether the command owns anchor pairs.
func (e Entry) Dynamic() bool {
	return e.Anchor != nil
}

// Registry maps command names to policies.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds or replaces the policy of entry.Command. Returns the registry for chaining.
func (r *Registry) Register(entry Entry) *Registry {
	if entry.Command == "" || entry.Tag == nil {
		panic(fmt.Sprintf("engine: incomplete registry entry %q", entry.Command))
	}
	r.entries[entry.Command] = entry
	return r
}

// Lookup returns the policy of command.
func (r *Registry) Lookup(command string) (Entry, bool) {
	e, ok := r.entries[command]
	return e, ok
}

// Commands returns the registered command names, sorted.
func (r *Registry) Commands() []string {
	out := make([]string, 0, len(r.entries))
	for cmd := range r.entries {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}
