package policies

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/engine"
	"github.com/rickchristie/agentdoc/schema"
	"github.com/rickchristie/agentdoc/source"
	"github.com/rickchristie/agentdoc/state"
)

// TaskStatus is the lifecycle of @task.
type TaskStatus string

const (
	TaskCreated   TaskStatus = state.StatusCreated
	TaskWaiting   TaskStatus = "waiting"
	TaskEating    TaskStatus = "eating"
	TaskCompleted TaskStatus = state.StatusCompleted
)

var taskStatuses = []TaskStatus{TaskCreated, TaskWaiting, TaskEating, TaskCompleted}

// ParseTaskStatus parses a status written by String.
func ParseTaskStatus(text string) (TaskStatus, error) {
	return parseStatus(directive.CommandTask, text, taskStatuses)
}

func (s TaskStatus) String() string { return string(s) }

func (s *TaskStatus) UnmarshalText(text []byte) error {
	v, err := ParseTaskStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// TaskState is persisted by every @task.
type TaskState struct {
	Version int        `json:"version"`
	Status  TaskStatus `json:"status"`

	// EatingLength is the number of bytes after the end anchor to move into the task. Set
	// while eating.
	EatingLength *int `json:"eating_length"`

	// CompletedBy is the author of the @done that closed the task.
	CompletedBy string `json:"completed_by"`
}

func (s *TaskState) Init() {
	*s = TaskState{Version: state.CurrentVersion, Status: TaskCreated}
}

func (s *TaskState) StatusIndicator() string { return s.Status.String() }

var taskSchema = schema.MustCompile(schema.Object(map[string]*schema.Property{
	"version":      schema.Integer("State layout version").Min(1),
	"status":       schema.String("Lifecycle status").Enum(statusNames(taskStatuses)...),
	"eating_length": schema.Integer("Bytes after the end anchor to move into the task").Min(0).Nullable(),
	"completed_by": schema.String("Author of the @done that closed the task"),
}, "status"))

// task collects the text written below it. While waiting it leaves a merge marker after its
// body; a task marked eating moves the eating_length bytes that follow its end anchor inside.
func task(_ context.Context, in *engine.MonoInput[TaskState]) (*engine.MonoResult[TaskState], error) {
	s := *in.State
	if in.Readonly() {
		return &engine.MonoResult[TaskState]{Collector: contributeTask(in, s.Status)}, nil
	}

	switch s.Status {
	case TaskCreated:
		s.Status = TaskWaiting
		return &engine.MonoResult[TaskState]{State: &s, Inner: engine.Ptr(""), NextPass: true}, nil

	case TaskEating:
		inner, patch, err := eat(in.Invocation, s.EatingLength)
		if err != nil {
			return nil, err
		}
		s.Status = TaskWaiting
		s.EatingLength = nil
		return &engine.MonoResult[TaskState]{
			State:   &s,
			Inner:   engine.Ptr(inner),
			Patches: []engine.Patch{patch},
		}, nil

	default:
		return &engine.MonoResult[TaskState]{Collector: contributeTask(in, s.Status)}, nil
	}
}

func contributeTask(in *engine.MonoInput[TaskState], status TaskStatus) *engine.Collector {
	switch status {
	case TaskWaiting, TaskEating:
		return in.Collector.
			PushItem(in.Input...).
			PushItem(agentdoc.MergeDownstream(agentdoc.TaskAnchorPlaceholder))
	case TaskCompleted:
		return in.Collector.PushItem(in.Input...)
	default:
		return in.Collector
	}
}

// eat returns the new body of the task and the patch deleting the eaten text. The eaten
// range starts right after the end anchor and must not contain any directive.
func eat(inv *engine.Invocation, length *int) (string, engine.Patch, error) {
	doc, pair := inv.Document, inv.Pair
	if length == nil {
		return "", engine.Patch{}, inv.Errorf(fmt.Errorf("%w: eating task has no eating_length", agentdoc.ErrState))
	}
	begin := pair.End.Range.End
	if *length < 0 || begin.Offset+*length > doc.Range.End.Offset {
		return "", engine.Patch{}, inv.Errorf(fmt.Errorf("%w: eating_length %d runs past the end of the document",
			agentdoc.ErrState, *length))
	}
	eaten := source.Range{Begin: begin, End: begin.Advance(doc.Source[begin.Offset : begin.Offset+*length])}
	for _, node := range doc.Content[pair.EndIndex+1:] {
		if _, ok := node.(*directive.Text); ok {
			continue
		}
		if eaten.Overlaps(node.Span()) {
			return "", engine.Patch{}, inv.Errorf(fmt.Errorf("%w: eaten text %s crosses the directive at %s",
				agentdoc.ErrState, eaten, node.Span().Begin))
		}
	}

	body := strings.TrimSuffix(inv.Inner(), doc.Indentation(pair.EndIndex))
	text := doc.Slice(eaten)
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return body + text, engine.Patch{Range: eaten, Text: ""}, nil
}

// MarkEating moves the waiting task id of the context name to eating. The text between the
// task and the next directive, or the end of the file, is moved into the task by the next
// execution.
func MarkEating(ctx context.Context, e *engine.Engine, name string, id uuid.UUID) (err error) {
	path, err := e.Resolver().ResolveContext(name)
	if err != nil {
		return err
	}
	lock, err := e.Accessor().Lock(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); err == nil {
			err = releaseErr
		}
	}()

	text, err := e.Accessor().ReadFile(path)
	if err != nil {
		return err
	}
	doc, index, err := e.Parse(text)
	if err != nil {
		return agentdoc.WrapPath(name, err)
	}
	pair, ok := index.Pair(id)
	if !ok {
		return fmt.Errorf("%w: no directive %s in %s", agentdoc.ErrPathResolution, id, name)
	}
	if pair.Begin.Command != directive.CommandTask {
		return fmt.Errorf("%w: %s is an @%s, not an @task", agentdoc.ErrPolicyInvariant, id, pair.Begin.Command)
	}

	s, err := state.Load[TaskState](e.Store(), directive.CommandTask, id)
	if err != nil {
		return err
	}
	if s.Status != TaskWaiting {
		return fmt.Errorf("%w: task %s is %s, not %s", agentdoc.ErrState, id, s.Status, TaskWaiting)
	}
	length := eatingEnd(doc, pair).Offset - pair.End.Range.End.Offset
	s.Status = TaskEating
	s.EatingLength = &length
	return state.Save(e.Store(), directive.CommandTask, id, s)
}

// eatingEnd returns where the next directive after pair starts, indentation included, or
// the end of the document.
func eatingEnd(doc *directive.Document, pair directive.Pair) source.Position {
	for i := pair.EndIndex + 1; i < len(doc.Content); i++ {
		if _, ok := doc.Content[i].(*directive.Text); ok {
			continue
		}
		if doc.Indentation(i) != "" {
			return doc.Content[i-1].Span().Begin
		}
		return doc.Content[i].Span().Begin
	}
	return doc.Range.End
}
