package policies

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/engine"
	"github.com/rickchristie/agentdoc/schema"
	"github.com/rickchristie/agentdoc/state"
)

// DoneStatus is the lifecycle of @done.
type DoneStatus string

const (
	DoneCreated   DoneStatus = state.StatusCreated
	DoneCompleted DoneStatus = state.StatusCompleted
)

var doneStatuses = []DoneStatus{DoneCreated, DoneCompleted}

// ParseDoneStatus parses a status written by String.
func ParseDoneStatus(text string) (DoneStatus, error) {
	return parseStatus(directive.CommandDone, text, doneStatuses)
}

func (s DoneStatus) String() string { return string(s) }

func (s *DoneStatus) UnmarshalText(text []byte) error {
	v, err := ParseDoneStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// DoneState is persisted by every @done.
type DoneState struct {
	Version int        `json:"version"`
	Status  DoneStatus `json:"status"`
	// Task is the task that was completed.
	Task string `json:"task"`
}

func (s *DoneState) Init() {
	*s = DoneState{Version: state.CurrentVersion, Status: DoneCreated}
}

func (s *DoneState) StatusIndicator() string { return s.Status.String() }

var doneSchema = schema.MustCompile(schema.Object(map[string]*schema.Property{
	"version": schema.Integer("State layout version").Min(1),
	"status":  schema.String("Lifecycle status").Enum(statusNames(doneStatuses)...),
	"task":    schema.String("Completed task"),
}, "status"))

// Parameters of @done.
const (
	AuthorParameter = "author"
	DefaultAuthor   = "user"
)

// done completes a task: the one named by its argument, else the innermost task enclosing it,
// else the nearest task above it. Its body is contributed as written by the author.
func done(ctx context.Context, in *engine.MonoInput[DoneState]) (*engine.MonoResult[DoneState], error) {
	s := *in.State
	who, ok := in.Parameter(AuthorParameter)
	if !ok || who == "" {
		who = DefaultAuthor
	}
	if s.Status == DoneCompleted {
		text := in.Input.Text()
		if text == "" {
			return nil, nil
		}
		return &engine.MonoResult[DoneState]{Collector: in.Collector.PushItem(agentdoc.Agent(who, text))}, nil
	}
	if in.Readonly() {
		return nil, nil
	}

	target, err := doneTarget(in.Invocation)
	if err != nil {
		return nil, err
	}
	store := in.Store()
	t, err := state.Load[TaskState](store, directive.CommandTask, target)
	if err != nil {
		return nil, in.Errorf(err)
	}
	if t.Status != TaskCompleted {
		from := t.Status.String()
		t.Status = TaskCompleted
		t.EatingLength = nil
		t.CompletedBy = who
		if err := state.Save(store, directive.CommandTask, target, t); err != nil {
			return nil, in.Errorf(err)
		}
		in.Transition(ctx, directive.CommandTask, target, from, t.Status.String())
	}

	s.Status = DoneCompleted
	s.Task = target.String()
	return &engine.MonoResult[DoneState]{State: &s, NextPass: true}, nil
}

func doneTarget(inv *engine.Invocation) (uuid.UUID, error) {
	if args := inv.Arguments(); len(args) > 0 {
		arg, err := inv.Argument(0, "task uuid")
		if err != nil {
			return uuid.Nil, err
		}
		id, err := uuid.Parse(arg)
		if err != nil {
			return uuid.Nil, inv.Errorf(fmt.Errorf("%w: invalid task uuid %q", agentdoc.ErrParse, arg))
		}
		command, err := targetCommand(inv, id)
		if err != nil {
			return uuid.Nil, err
		}
		if command != directive.CommandTask {
			return uuid.Nil, inv.Errorf(fmt.Errorf("%w: %s is an @%s, not an @task",
				agentdoc.ErrPolicyInvariant, id, command))
		}
		return id, nil
	}

	enclosing := inv.Index.Enclosing(inv.Pair.BeginIndex)
	for i := len(enclosing) - 1; i >= 0; i-- {
		if enclosing[i].Begin.Command == directive.CommandTask {
			return enclosing[i].Begin.UUID, nil
		}
	}
	nearest, found := directive.Pair{}, false
	for _, p := range inv.Index.Pairs() {
		if p.Begin.Command != directive.CommandTask || p.EndIndex >= inv.Pair.BeginIndex {
			continue
		}
		if !found || p.EndIndex > nearest.EndIndex {
			nearest, found = p, true
		}
	}
	if !found {
		return uuid.Nil, inv.Errorf(fmt.Errorf("%w: no task to complete", agentdoc.ErrPolicyInvariant))
	}
	return nearest.Begin.UUID, nil
}
