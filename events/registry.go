package events

import (
	"context"

	"github.com/rickchristie/agentdoc"
)

// Registry stores subscribers in registration order and dispatches events to those
// implementing the matching subscriber interface.
type Registry struct {
	subscribers []any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{subscribers: make([]any, 0)}
}

// Subscribe adds a subscriber implementing any combination of the subscriber interfaces.
// Subscribers are called in the order they are registered.
func (r *Registry) Subscribe(subscriber any) *Registry {
	r.subscribers = append(r.subscribers, subscriber)
	return r
}

// Dispatch implements agentdoc.Publisher. A nil Registry drops every event.
func (r *Registry) Dispatch(ctx context.Context, event agentdoc.Event) {
	if r == nil {
		return
	}
	switch e := event.(type) {
	case *agentdoc.BeforeStepEvent:
		for _, s := range r.subscribers {
			if sub, ok := s.(agentdoc.BeforeStepSubscriber); ok {
				sub.OnBeforeStep(ctx, e)
			}
		}
	case *agentdoc.AfterStepEvent:
		for _, s := range r.subscribers {
			if sub, ok := s.(agentdoc.AfterStepSubscriber); ok {
				sub.OnAfterStep(ctx, e)
			}
		}
	case *agentdoc.CycleSkippedEvent:
		for _, s := range r.subscribers {
			if sub, ok := s.(agentdoc.CycleSkippedSubscriber); ok {
				sub.OnCycleSkipped(ctx, e)
			}
		}
	case *agentdoc.StateTransitionEvent:
		for _, s := range r.subscribers {
			if sub, ok := s.(agentdoc.StateTransitionSubscriber); ok {
				sub.OnStateTransition(ctx, e)
			}
		}
	case *agentdoc.BeforeModelCallEvent:
		for _, s := range r.subscribers {
			if sub, ok := s.(agentdoc.BeforeModelCallSubscriber); ok {
				sub.OnBeforeModelCall(ctx, e)
			}
		}
	case *agentdoc.AfterModelCallEvent:
		for _, s := range r.subscribers {
			if sub, ok := s.(agentdoc.AfterModelCallSubscriber); ok {
				sub.OnAfterModelCall(ctx, e)
			}
		}
	case *agentdoc.CommitEvent:
		for _, s := range r.subscribers {
			if sub, ok := s.(agentdoc.CommitSubscriber); ok {
				sub.OnCommit(ctx, e)
			}
		}
	case *agentdoc.LimitExceededEvent:
		for _, s := range r.subscribers {
			if sub, ok := s.(agentdoc.LimitExceededSubscriber); ok {
				sub.OnLimitExceeded(ctx, e)
			}
		}
	case *agentdoc.ErrorEvent:
		for _, s := range r.subscribers {
			if sub, ok := s.(agentdoc.ErrorSubscriber); ok {
				sub.OnError(ctx, e)
			}
		}
	}
}

// Len returns the number of registered subscribers.
func (r *Registry) Len() int {
	return len(r.subscribers)
}

// Clear removes all registered subscribers.
func (r *Registry) Clear() {
	r.subscribers = make([]any, 0)
}

var _ agentdoc.Publisher = (*Registry)(nil)
