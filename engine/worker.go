package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/fileio"
	"github.com/rickchristie/agentdoc/project"
	"github.com/rickchristie/agentdoc/state"
)

// Worker runs steps over documents. It is safe for concurrent use: steps on the same document
// are serialized by the file lock.
type Worker struct {
	resolver  *project.Resolver
	accessor  *fileio.Accessor
	store     *state.Store
	registry  *Registry
	parser    *directive.Parser
	model     agentdoc.Model
	flattener agentdoc.Flattener
	publisher agentdoc.Publisher
	time      agentdoc.TimeProvider
	newID     func() uuid.UUID
}

// Execute resolves the context name and executes it to convergence from c.
func (w *Worker) Execute(ctx context.Context, c *Collector, name string) (*Collector, error) {
	path, err := w.resolver.ResolveContext(name)
	if err != nil {
		return nil, err
	}
	return w.ExecutePath(ctx, c, path)
}

// ExecutePath runs steps over path until one produces no patch, and returns the collector
// of that last step. A document that already converged during the current execution is not
// walked again unless a state transition happened since.
func (w *Worker) ExecutePath(ctx context.Context, c *Collector, path string) (*Collector, error) {
	if cached, ok := c.run.recall(path); ok {
		return cached, nil
	}
	child, ok := c.Descent(path)
	if !ok {
		return nil, w.fail(ctx, path, fmt.Errorf("%w: document is already being executed",
			agentdoc.ErrPolicyInvariant))
	}
	for {
		if ctx.Err() != nil {
			return nil, w.fail(ctx, path, agentdoc.Canceled(ctx))
		}
		result, err := w.ExecuteStep(ctx, child, path)
		if err != nil {
			return nil, w.fail(ctx, path, err)
		}
		if result != nil {
			c.run.remember(path, result)
			return result, nil
		}
	}
}

// ExecuteStep performs one step over path with the collector c, which must already have path
// on its visit stack. It returns the resulting collector when the document is stable, or nil
// after writing patches or when another step is needed.
func (w *Worker) ExecuteStep(ctx context.Context, c *Collector, path string) (*Collector, error) {
	rel := w.relative(path)
	stats := c.run.stats
	if ev := stats.IncrCounter(agentdoc.SCSteps, 1); ev != nil {
		return nil, w.limitExceeded(ctx, ev)
	}
	if ev := stats.IncrCounter(agentdoc.SCStepsFor.For(rel), 1); ev != nil {
		return nil, w.limitExceeded(ctx, ev)
	}
	n := int(stats.GetCounter(agentdoc.SCStepsFor.For(rel)))
	w.publish(ctx, &agentdoc.BeforeStepEvent{Path: path, Step: n, Execute: true})
	start := time.Now()

	lock, err := w.accessor.Lock(ctx, path)
	if err != nil {
		return nil, err
	}
	result, err := w.step(ctx, c, path, n, start)
	if releaseErr := lock.Release(); err == nil && releaseErr != nil {
		return nil, releaseErr
	}
	return result, err
}

func (w *Worker) step(ctx context.Context, c *Collector, path string, n int, start time.Time) (*Collector, error) {
	before, err := w.accessor.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, index, err := w.parse(before)
	if err != nil {
		return nil, err
	}

	st := &step{}
	result, patches, complete, err := w.walk(ctx, c, path, doc, index, st)
	if err != nil {
		return nil, err
	}
	headers, err := w.reconcile(index, patches)
	if err != nil {
		return nil, err
	}
	patches = append(patches, headers...)

	if len(patches) == 0 {
		w.publish(ctx, &agentdoc.AfterStepEvent{
			Path: path, Step: n, Execute: true, Duration: time.Since(start),
		})
		if !complete {
			return nil, nil
		}
		return result, nil
	}

	after := ApplyPatches(before, patches)
	if err := w.accessor.WriteFile(path, after, w.comment(path, n, st)); err != nil {
		return nil, err
	}
	if ev := c.run.stats.IncrCounter(agentdoc.SCPatches, int64(len(patches))); ev != nil {
		return nil, w.limitExceeded(ctx, ev)
	}
	w.publish(ctx, &agentdoc.AfterStepEvent{
		Path:     path,
		Step:     n,
		Execute:  true,
		Patches:  len(patches),
		Before:   before,
		After:    after,
		Duration: time.Since(start),
	})
	return nil, nil
}

// Collect resolves the context name and collects it from c.
func (w *Worker) Collect(ctx context.Context, c *Collector, name string) (*Collector, error) {
	path, err := w.resolver.ResolveContext(name)
	if err != nil {
		return nil, err
	}
	return w.CollectPath(ctx, c, path)
}

// CollectPath walks path once without executing anything. No lock is taken and nothing is
// written.
func (w *Worker) CollectPath(ctx context.Context, c *Collector, path string) (*Collector, error) {
	child, ok := c.Descent(path)
	if !ok {
		return nil, w.fail(ctx, path, fmt.Errorf("%w: document is already being collected",
			agentdoc.ErrPolicyInvariant))
	}
	child.CanExecute = false

	w.publish(ctx, &agentdoc.BeforeStepEvent{Path: path, Step: 1})
	start := time.Now()
	text, err := w.accessor.ReadFile(path)
	if err != nil {
		return nil, w.fail(ctx, path, err)
	}
	doc, index, err := w.parse(text)
	if err != nil {
		return nil, w.fail(ctx, path, err)
	}
	result, patches, _, err := w.walk(ctx, child, path, doc, index, &step{})
	if err != nil {
		return nil, w.fail(ctx, path, err)
	}
	if len(patches) > 0 {
		panic(fmt.Errorf("%w: %d patches produced while collecting %s",
			agentdoc.ErrPolicyInvariant, len(patches), path))
	}
	w.publish(ctx, &agentdoc.AfterStepEvent{Path: path, Step: 1, Duration: time.Since(start)})
	return result, nil
}

// frame is an anchor pair whose body is being walked.
type frame struct {
	pair  directive.Pair
	outer *Collector
}

// walk evaluates the nodes of doc in order. The body of a pair is walked before its anchor
// hook runs, with a collector of its own. The walk stops at the first hook that patches or
// asks for another step: directives below it would otherwise see content that is about to
// change. complete reports whether the walk reached the end of the document.
func (w *Worker) walk(
	ctx context.Context,
	c *Collector,
	path string,
	doc *directive.Document,
	index *directive.AnchorIndex,
	st *step,
) (*Collector, []Patch, bool, error) {
	cur := c
	var frames []frame

	for i, node := range doc.Content {
		if ctx.Err() != nil {
			return nil, nil, false, agentdoc.Canceled(ctx)
		}
		switch n := node.(type) {
		case *directive.Text:
			cur.PushItem(agentdoc.User(n.Content(doc.Source)))

		case *directive.Tag:
			entry, ok := w.registry.Lookup(n.Command)
			if !ok {
				return nil, nil, false, &DirectiveError{Command: n.Command, Pos: n.Range.Begin,
					Err: fmt.Errorf("%w: unknown command", agentdoc.ErrParse)}
			}
			inv := &Invocation{
				worker: w, step: st, Path: path, Document: doc, Index: index,
				NodeIndex: i, Collector: cur.Clone(), Tag: n,
			}
			next, patches, err := entry.Tag(ctx, inv)
			if err != nil {
				return nil, nil, false, err
			}
			if next == nil || len(patches) > 0 {
				return nil, patches, false, nil
			}
			cur = next

		case *directive.Anchor:
			if n.Kind == directive.Begin {
				pair, _ := index.Pair(n.UUID)
				frames = append(frames, frame{pair: pair, outer: cur})
				cur = cur.Body(n)
				continue
			}

			f := frames[len(frames)-1]
			frames = frames[:len(frames)-1]
			pair := f.pair
			entry, ok := w.registry.Lookup(n.Command)
			if !ok {
				return nil, nil, false, &DirectiveError{Command: n.Command, Pos: pair.Begin.Range.Begin,
					Err: fmt.Errorf("%w: unknown command", agentdoc.ErrParse)}
			}
			if !entry.Dynamic() {
				return nil, nil, false, &DirectiveError{Command: n.Command, Pos: pair.Begin.Range.Begin,
					Err: fmt.Errorf("%w: @%s cannot own an anchor pair", agentdoc.ErrPolicyInvariant, n.Command)}
			}
			inv := &Invocation{
				worker: w, step: st, Path: path, Document: doc, Index: index,
				NodeIndex: pair.BeginIndex, Collector: f.outer.Clone(), Pair: &pair, Input: cur.Context,
			}
			next, patches, err := entry.Anchor(ctx, inv)
			if err != nil {
				return nil, nil, false, err
			}
			if next == nil || len(patches) > 0 {
				return nil, patches, false, nil
			}
			cur = next
		}
	}
	return cur, nil, true, nil
}

// reconcile returns the patches making every anchor header show the persisted status of its
// instance. Headers already covered by a patch are left alone.
func (w *Worker) reconcile(index *directive.AnchorIndex, patches []Patch) ([]Patch, error) {
	var out []Patch
	for _, pair := range index.Pairs() {
		entry, ok := w.registry.Lookup(pair.Begin.Command)
		if !ok || entry.Indicator == nil {
			continue
		}
		status, err := entry.Indicator(w.store, pair.Begin.UUID)
		if err != nil {
			return nil, &DirectiveError{Command: pair.Begin.Command, Pos: pair.Begin.Range.Begin, Err: err}
		}
		for _, a := range []*directive.Anchor{pair.Begin, pair.End} {
			if a.HasStatus && a.Status == status {
				continue
			}
			r, text := a.StatusPatch(status)
			if covered(patches, a.Range) {
				continue
			}
			out = append(out, Patch{Range: r, Text: text})
		}
	}
	return out, nil
}

func (w *Worker) parse(text string) (*directive.Document, *directive.AnchorIndex, error) {
	doc, err := w.parser.Parse(text)
	if err != nil {
		return nil, nil, err
	}
	index, err := directive.NewAnchorIndex(doc)
	if err != nil {
		return nil, nil, err
	}
	return doc, index, nil
}

func (w *Worker) callModel(
	ctx context.Context,
	c *Collector,
	provider string,
	content agentdoc.ModelContent,
) (string, error) {
	stats := c.run.stats
	if ev := stats.IncrCounter(agentdoc.SCModelCalls, 1); ev != nil {
		return "", w.limitExceeded(ctx, ev)
	}
	key := provider
	if key == "" {
		key = "default"
	}
	stats.IncrCounter(agentdoc.SCModelCallsFor.For(key), 1)
	if w.model == nil {
		return "", fmt.Errorf("%w: no model configured", agentdoc.ErrModel)
	}

	query := w.flattener.Flatten(provider, content)
	w.publish(ctx, &agentdoc.BeforeModelCallEvent{Provider: provider, Query: query})
	start := time.Now()
	reply, err := w.model.Call(ctx, provider, query)
	w.publish(ctx, &agentdoc.AfterModelCallEvent{
		Provider: provider,
		Query:    query,
		Reply:    reply,
		Duration: time.Since(start),
		Error:    err,
	})
	if err != nil {
		stats.IncrCounter(agentdoc.SCModelCallErrors, 1)
		if ctx.Err() != nil {
			return "", agentdoc.Canceled(ctx)
		}
		if !errors.Is(err, agentdoc.ErrModel) {
			err = fmt.Errorf("%w: %w", agentdoc.ErrModel, err)
		}
		return "", err
	}
	return reply, nil
}

func (w *Worker) transition(ctx context.Context, inv *Invocation, command string, id uuid.UUID, from, to string) {
	inv.Collector.run.stats.IncrCounter(agentdoc.SCStateTransitions, 1)
	inv.Collector.run.transitioned()
	if inv.step != nil {
		inv.step.transitions = append(inv.step.transitions,
			fmt.Sprintf("@%s %s %s -> %s", command, shortID(id), orNone(from), to))
	}
	w.publish(ctx, &agentdoc.StateTransitionEvent{
		Path:    inv.Path,
		Command: command,
		UUID:    id.String(),
		From:    from,
		To:      to,
	})
}

func (w *Worker) cycleSkipped(ctx context.Context, c *Collector, path string) {
	c.run.stats.IncrCounter(agentdoc.SCCyclesSkipped, 1)
	w.publish(ctx, &agentdoc.CycleSkippedEvent{Path: path, Stack: append([]string(nil), c.VisitStack...)})
}

func (w *Worker) limitExceeded(ctx context.Context, ev *agentdoc.LimitExceededEvent) error {
	w.publish(ctx, &agentdoc.LimitExceededEvent{Limit: ev.Limit, Key: ev.Key, Value: ev.Value})
	return fmt.Errorf("%w: %s = %v > %v", agentdoc.ErrLimitExceeded, ev.Key, ev.Value, ev.Limit.MaxValue)
}

// fail attaches path to err. The error event is published by the innermost document only.
func (w *Worker) fail(ctx context.Context, path string, err error) error {
	var pathErr *agentdoc.PathError
	if errors.As(err, &pathErr) {
		return err
	}
	w.publish(ctx, &agentdoc.ErrorEvent{Path: path, Err: err})
	return agentdoc.WrapPath(w.relative(path), err)
}

func (w *Worker) publish(ctx context.Context, event agentdoc.Event) {
	if w.publisher != nil {
		w.publisher.Dispatch(ctx, event)
	}
}

func (w *Worker) relative(path string) string {
	rel, err := w.resolver.Relative(path)
	if err != nil {
		return path
	}
	return rel
}

// comment summarizes a step for the commit message.
func (w *Worker) comment(path string, n int, st *step) string {
	rel := w.relative(path)
	if len(st.transitions) == 0 {
		return fmt.Sprintf("%s: step %d", rel, n)
	}
	return fmt.Sprintf("%s: %s", rel, strings.Join(st.transitions, ", "))
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func orNone(status string) string {
	if status == "" {
		return "none"
	}
	return status
}
