package policies

import (
	"context"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/engine"
	"github.com/rickchristie/agentdoc/schema"
	"github.com/rickchristie/agentdoc/state"
)

// AnswerStatus is the lifecycle of @answer.
type AnswerStatus string

const (
	AnswerCreated    AnswerStatus = state.StatusCreated
	AnswerProcessing AnswerStatus = "processing"
	AnswerInjecting  AnswerStatus = "injecting"
	AnswerCompleted  AnswerStatus = state.StatusCompleted
	AnswerRepeat     AnswerStatus = state.StatusRepeat
)

var answerStatuses = []AnswerStatus{
	AnswerCreated, AnswerProcessing, AnswerInjecting, AnswerCompleted, AnswerRepeat,
}

// ParseAnswerStatus parses a status written by String.
func ParseAnswerStatus(text string) (AnswerStatus, error) {
	return parseStatus(directive.CommandAnswer, text, answerStatuses)
}

func (s AnswerStatus) String() string { return string(s) }

func (s *AnswerStatus) UnmarshalText(text []byte) error {
	v, err := ParseAnswerStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// AnswerState is persisted by every @answer.
type AnswerState struct {
	Version int          `json:"version"`
	Status  AnswerStatus `json:"status"`

	// Provider and Content are snapshotted when the answer leaves created, so a retried call
	// sends exactly the same query.
	Provider  string                `json:"provider"`
	Content   agentdoc.ModelContent `json:"content"`
	Variables map[string]any        `json:"variables"`

	Reply string `json:"reply"`
}

func (s *AnswerState) Init() {
	*s = AnswerState{Version: state.CurrentVersion, Status: AnswerCreated}
}

func (s *AnswerState) StatusIndicator() string { return s.Status.String() }

var answerSchema = schema.MustCompile(schema.Object(map[string]*schema.Property{
	"version":   schema.Integer("State layout version").Min(1),
	"status":    schema.String("Lifecycle status").Enum(statusNames(answerStatuses)...),
	"provider":  schema.String("Provider the query is sent to, empty for the default"),
	"content":   schema.Array("Snapshot of the content preceding the answer", contentItemSchema).Nullable(),
	"variables": schema.Any("Snapshot of the variables"),
	"reply":     schema.String("Model reply"),
}, "status"))

var contentItemSchema = schema.Object(map[string]*schema.Property{
	"kind":   schema.String("Item role").Enum("user", "system", "agent", "merge_downstream"),
	"author": schema.String("Author of agent items"),
	"text":   schema.String("Item text"),
}, "kind", "text")

// answer sends the content preceding it to the model and writes the reply as its body.
func answer(ctx context.Context, in *engine.MonoInput[AnswerState]) (*engine.MonoResult[AnswerState], error) {
	s := *in.State
	if in.Readonly() {
		if s.Status == AnswerCompleted {
			return &engine.MonoResult[AnswerState]{Collector: contributeReply(in, &s)}, nil
		}
		return nil, nil
	}

	switch s.Status {
	case AnswerCreated:
		provider := in.Collector.Provider()
		if p, ok := in.Parameter(agentdoc.ProviderKey); ok {
			provider = p
		}
		s.Status = AnswerProcessing
		s.Provider = provider
		s.Content = in.Collector.Context.Clone()
		s.Variables = in.Collector.Variables.Map()
		s.Reply = ""
		return &engine.MonoResult[AnswerState]{State: &s, Inner: engine.Ptr(""), NextPass: true}, nil

	case AnswerProcessing:
		reply, err := in.CallModel(ctx, s.Provider, s.Content)
		if err != nil {
			return nil, err
		}
		s.Status = AnswerInjecting
		s.Reply = reply
		return &engine.MonoResult[AnswerState]{State: &s, NextPass: true}, nil

	case AnswerInjecting:
		s.Status = AnswerCompleted
		return &engine.MonoResult[AnswerState]{State: &s, Inner: engine.Ptr(s.Reply)}, nil

	case AnswerRepeat:
		s.Status = AnswerCreated
		return &engine.MonoResult[AnswerState]{State: &s, Inner: engine.Ptr(""), NextPass: true}, nil

	default:
		return &engine.MonoResult[AnswerState]{Collector: contributeReply(in, &s)}, nil
	}
}

// contributeReply pushes the body of a completed answer as an agent item. The body is read
// from the document, so edits made by hand are honored. When a waiting task precedes the
// answer, the reply is the work on that task and takes the place of its merge marker.
func contributeReply(in *engine.MonoInput[AnswerState], s *AnswerState) *engine.Collector {
	text := in.Input.Text()
	if text == "" {
		return in.Collector
	}
	reply := agentdoc.ModelContent{agentdoc.Agent(author(s.Provider), text)}
	if merged, ok := in.Collector.Context.Substitute(agentdoc.TaskAnchorPlaceholder, reply); ok {
		in.Collector.Context = merged
		return in.Collector
	}
	return in.Collector.PushItem(reply...)
}

func author(provider string) string {
	if provider == "" {
		return "model"
	}
	return provider
}
