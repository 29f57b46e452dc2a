package policies

import (
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/engine"
	"github.com/rickchristie/agentdoc/project"
	"github.com/rickchristie/agentdoc/schema"
	"github.com/rickchristie/agentdoc/state"
)

// NewRegistry returns a registry holding every built-in directive.
func NewRegistry() *engine.Registry {
	return engine.NewRegistry().
		Register(engine.Entry{Command: directive.CommandInclude, Tag: include}).
		Register(engine.Entry{Command: directive.CommandSet, Tag: set}).
		Register(engine.Entry{Command: directive.CommandForget, Tag: forget}).
		Register(engine.Entry{Command: directive.CommandComment, Tag: comment}).
		Register(engine.Dynamic[AnswerState](directive.CommandAnswer, answer)).
		Register(engine.Dynamic[InlineState](directive.CommandInline, inline)).
		Register(engine.Dynamic[RepeatState](directive.CommandRepeat, repeat)).
		Register(engine.Dynamic[TaskState](directive.CommandTask, task)).
		Register(engine.Dynamic[DoneState](directive.CommandDone, done))
}

// Schemas returns the state schema of every dynamic directive.
func Schemas() map[string]*schema.Schema {
	return map[string]*schema.Schema{
		directive.CommandAnswer: answerSchema,
		directive.CommandInline: inlineSchema,
		directive.CommandRepeat: repeatSchema,
		directive.CommandTask:   taskSchema,
		directive.CommandDone:   doneSchema,
	}
}

// NewStore returns a state store validating the states of the built-in directives.
func NewStore(resolver *project.Resolver) *state.Store {
	store := state.NewStore(resolver)
	for command, s := range Schemas() {
		store.WithSchema(command, s)
	}
	return store
}
