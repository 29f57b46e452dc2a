package engine

import (
	"slices"
	"sync"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/jsonplus"
)

// Collector accumulates the model content of a walk. A fresh collector is created for every
// document entered and for the body of every anchor pair, so content never leaks between
// siblings. Variables flow forward through the walk of one document and are copied into
// included documents, never back.
type Collector struct {
	// VisitStack holds the absolute paths of the documents being walked, outermost first.
	VisitStack []string
	// AnchorStack holds the begin anchors enclosing the current node, outermost first.
	AnchorStack []*directive.Anchor

	Context   agentdoc.ModelContent
	Variables agentdoc.Variables

	// CanExecute is false for collect walks, which must not change anything.
	CanExecute bool

	run *run
}

// run is shared by every collector of one top-level execution.
type run struct {
	stats *agentdoc.ExecutionStats

	mu sync.Mutex
	// generation counts state transitions. A converged document is reused only while no
	// state changed since it converged: a transition may target an instance it contains.
	generation uint64
	converged  map[string]memo
}

type memo struct {
	collector  *Collector
	generation uint64
}

func newRun(limits []agentdoc.Limit) *run {
	return &run{
		stats:     agentdoc.NewExecutionStats(limits...),
		converged: make(map[string]memo),
	}
}

// remember records the collector of a converged document.
func (r *run) remember(path string, c *Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converged[path] = memo{collector: c.Clone(), generation: r.generation}
}

// recall returns the collector of path if it converged after the last state transition.
func (r *run) recall(path string) (*Collector, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.converged[path]
	if !ok || m.generation != r.generation {
		return nil, false
	}
	return m.collector.Clone(), true
}

// transitioned invalidates every converged document.
func (r *run) transitioned() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
}

// NewCollector creates an empty root collector with default limits.
func NewCollector(canExecute bool) *Collector {
	return newCollector(newRun(agentdoc.DefaultLimits()), canExecute, agentdoc.NewVariables(""))
}

func newCollector(r *run, canExecute bool, vars agentdoc.Variables) *Collector {
	return &Collector{Variables: vars, CanExecute: canExecute, run: r}
}

// Stats returns the counters of the execution the collector belongs to.
func (c *Collector) Stats() *agentdoc.ExecutionStats {
	return c.run.stats
}

// Clone returns a copy sharing nothing mutable with c.
func (c *Collector) Clone() *Collector {
	return &Collector{
		VisitStack:  slices.Clone(c.VisitStack),
		AnchorStack: slices.Clone(c.AnchorStack),
		Context:     c.Context.Clone(),
		Variables:   c.Variables.Clone(),
		CanExecute:  c.CanExecute,
		run:         c.run,
	}
}

// Visiting reports whether path is on the visit stack.
func (c *Collector) Visiting(path string) bool {
	return slices.Contains(c.VisitStack, path)
}

// Descent returns the collector used to walk path from inside c: empty content, a copy of
// the variables and path pushed on the visit stack. It returns false when path is already
// being walked.
func (c *Collector) Descent(path string) (*Collector, bool) {
	if c.Visiting(path) {
		return nil, false
	}
	return &Collector{
		VisitStack: append(slices.Clone(c.VisitStack), path),
		Variables:  c.Variables.Clone(),
		CanExecute: c.CanExecute,
		run:        c.run,
	}, true
}

// Body returns the collector used to walk the body of the pair opened by begin.
func (c *Collector) Body(begin *directive.Anchor) *Collector {
	body := c.Clone()
	body.Context = nil
	return body.Enter(begin)
}

// Enter pushes begin on the anchor stack.
func (c *Collector) Enter(begin *directive.Anchor) *Collector {
	c.AnchorStack = append(c.AnchorStack, begin)
	return c
}

// Exit pops the innermost anchor.
func (c *Collector) Exit() *Collector {
	if len(c.AnchorStack) > 0 {
		c.AnchorStack = c.AnchorStack[:len(c.AnchorStack)-1]
	}
	return c
}

// Update merges params into the variables.
func (c *Collector) Update(params *jsonplus.Object) *Collector {
	c.Variables = c.Variables.Merge(params)
	return c
}

// Forget removes keys from the variables.
func (c *Collector) Forget(keys ...string) *Collector {
	c.Variables = c.Variables.Forget(keys...)
	return c
}

// PushItem appends items to the content.
func (c *Collector) PushItem(items ...agentdoc.ModelContentItem) *Collector {
	c.Context = append(c.Context, items...)
	return c
}

// Provider returns the provider selected by the variables, empty for the default one.
func (c *Collector) Provider() string {
	return c.Variables.Provider
}

// Path returns the document being walked.
func (c *Collector) Path() string {
	if len(c.VisitStack) == 0 {
		return ""
	}
	return c.VisitStack[len(c.VisitStack)-1]
}
