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

// RepeatStatus is the lifecycle of @repeat.
type RepeatStatus string

const (
	RepeatCreated   RepeatStatus = state.StatusCreated
	RepeatCompleted RepeatStatus = state.StatusCompleted
)

var repeatStatuses = []RepeatStatus{RepeatCreated, RepeatCompleted}

// ParseRepeatStatus parses a status written by String.
func ParseRepeatStatus(text string) (RepeatStatus, error) {
	return parseStatus(directive.CommandRepeat, text, repeatStatuses)
}

func (s RepeatStatus) String() string { return string(s) }

func (s *RepeatStatus) UnmarshalText(text []byte) error {
	v, err := ParseRepeatStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// RepeatState is persisted by every @repeat.
type RepeatState struct {
	Version int          `json:"version"`
	Status  RepeatStatus `json:"status"`
	// Target records the directive that was sent back to work.
	Target  string `json:"target"`
	Command string `json:"command"`
}

func (s *RepeatState) Init() {
	*s = RepeatState{Version: state.CurrentVersion, Status: RepeatCreated}
}

func (s *RepeatState) StatusIndicator() string { return s.Status.String() }

var repeatSchema = schema.MustCompile(schema.Object(map[string]*schema.Property{
	"version": schema.Integer("State layout version").Min(1),
	"status":  schema.String("Lifecycle status").Enum(statusNames(repeatStatuses)...),
	"target":  schema.String("Directive sent back to work"),
	"command": schema.String("Command of the target"),
}, "status"))

// CommandParameter restricts @repeat to targets of one command.
const CommandParameter = "command"

// repeatable lists the commands whose lifecycle has a repeat status.
var repeatable = map[string]bool{
	directive.CommandAnswer: true,
	directive.CommandInline: true,
}

// repeat moves its target to the repeat status once, then stays completed.
func repeat(ctx context.Context, in *engine.MonoInput[RepeatState]) (*engine.MonoResult[RepeatState], error) {
	s := *in.State
	if in.Readonly() || s.Status == RepeatCompleted {
		return nil, nil
	}

	arg, err := in.Argument(0, "target uuid")
	if err != nil {
		return nil, err
	}
	target, err := uuid.Parse(arg)
	if err != nil {
		return nil, in.Errorf(fmt.Errorf("%w: invalid target uuid %q", agentdoc.ErrParse, arg))
	}
	command, err := targetCommand(in.Invocation, target)
	if err != nil {
		return nil, err
	}
	if want, ok := in.Parameter(CommandParameter); ok && want != command {
		return nil, in.Errorf(fmt.Errorf("%w: %s is an @%s, not an @%s",
			agentdoc.ErrPolicyInvariant, target, command, want))
	}
	if !repeatable[command] {
		return nil, in.Errorf(fmt.Errorf("%w: @%s cannot be repeated", agentdoc.ErrPolicyInvariant, command))
	}

	from, err := in.Store().Status(command, target)
	if err != nil {
		return nil, in.Errorf(err)
	}
	if err := in.Store().SetStatus(command, target, state.StatusRepeat); err != nil {
		return nil, in.Errorf(err)
	}
	in.Transition(ctx, command, target, from, state.StatusRepeat)

	s.Status = RepeatCompleted
	s.Target = target.String()
	s.Command = command
	return &engine.MonoResult[RepeatState]{State: &s, NextPass: true}, nil
}

// targetCommand finds the command of the directive id, first in the document and then among
// the recorded states.
func targetCommand(inv *engine.Invocation, id uuid.UUID) (string, error) {
	if pair, ok := inv.Index.Pair(id); ok {
		return pair.Begin.Command, nil
	}
	command, err := inv.Store().FindCommand(id)
	if err != nil {
		return "", inv.Errorf(err)
	}
	return command, nil
}
