package policies

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/engine"
	"github.com/rickchristie/agentdoc/jsonplus"
	"github.com/rickchristie/agentdoc/schema"
	"github.com/rickchristie/agentdoc/state"
)

// InlineStatus is the lifecycle of @inline.
type InlineStatus string

const (
	InlineCreated   InlineStatus = state.StatusCreated
	InlineCompleted InlineStatus = state.StatusCompleted
	InlineRepeat    InlineStatus = state.StatusRepeat
)

var inlineStatuses = []InlineStatus{InlineCreated, InlineCompleted, InlineRepeat}

// ParseInlineStatus parses a status written by String.
func ParseInlineStatus(text string) (InlineStatus, error) {
	return parseStatus(directive.CommandInline, text, inlineStatuses)
}

func (s InlineStatus) String() string { return string(s) }

func (s *InlineStatus) UnmarshalText(text []byte) error {
	v, err := ParseInlineStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// InlineState is persisted by every @inline.
type InlineState struct {
	Version int          `json:"version"`
	Status  InlineStatus `json:"status"`
	// Source is the context that was copied.
	Source string `json:"source"`
}

func (s *InlineState) Init() {
	*s = InlineState{Version: state.CurrentVersion, Status: InlineCreated}
}

func (s *InlineState) StatusIndicator() string { return s.Status.String() }

var inlineSchema = schema.MustCompile(schema.Object(map[string]*schema.Property{
	"version": schema.Integer("State layout version").Min(1),
	"status":  schema.String("Lifecycle status").Enum(statusNames(inlineStatuses)...),
	"source":  schema.String("Context copied into the body"),
}, "status"))

// DataParameter holds the template data of @inline.
const DataParameter = "data"

// inline copies another context into its body.
func inline(_ context.Context, in *engine.MonoInput[InlineState]) (*engine.MonoResult[InlineState], error) {
	s := *in.State
	if in.Readonly() || s.Status == InlineCompleted {
		return &engine.MonoResult[InlineState]{Collector: in.Collector.PushItem(in.Input...)}, nil
	}

	switch s.Status {
	case InlineRepeat:
		s.Status = InlineCreated
		return &engine.MonoResult[InlineState]{State: &s, Inner: engine.Ptr(""), NextPass: true}, nil

	default:
		name, err := in.Argument(0, "context name")
		if err != nil {
			return nil, err
		}
		text, err := in.ReadContext(name)
		if err != nil {
			return nil, err
		}
		if data, ok := in.Parameters().Get(DataParameter); ok {
			text, err = render(in.Invocation, name, text, data)
			if err != nil {
				return nil, err
			}
		}
		s.Status = InlineCompleted
		s.Source = name
		return &engine.MonoResult[InlineState]{State: &s, Inner: engine.Ptr(text)}, nil
	}
}

// templateData is what inlined templates see.
type templateData struct {
	Data any
	Vars map[string]any
	Time agentdoc.TimeProvider
}

func render(inv *engine.Invocation, name, text string, data jsonplus.Value) (string, error) {
	if data.Kind() != jsonplus.KindObject {
		return "", inv.Errorf(fmt.Errorf("%w: %s must be an object, got %s",
			agentdoc.ErrParse, DataParameter, data.Kind()))
	}
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", inv.Errorf(fmt.Errorf("%w: template %s: %w", agentdoc.ErrParse, name, err))
	}
	var b strings.Builder
	err = tmpl.Execute(&b, templateData{
		Data: jsonplus.ToAny(data),
		Vars: inv.Collector.Variables.Map(),
		Time: inv.Time(),
	})
	if err != nil {
		return "", inv.Errorf(fmt.Errorf("%w: template %s: %w", agentdoc.ErrParse, name, err))
	}
	return b.String(), nil
}
