// Package tt provides test helpers shared by the agentdoc packages.
package tt

import (
	"context"
	"sync"

	"github.com/rickchristie/agentdoc"
)

// -----------------------------------------------------------------------------
// Event Recording
// -----------------------------------------------------------------------------

// EventRecorder subscribes to every engine event and keeps them in order.
type EventRecorder struct {
	mu     sync.Mutex
	events []agentdoc.Event
}

// NewEventRecorder creates an empty recorder.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Dispatch implements agentdoc.Publisher, so a recorder can replace events.Registry.
func (r *EventRecorder) Dispatch(_ context.Context, event agentdoc.Event) {
	r.record(event)
}

func (r *EventRecorder) OnBeforeStep(_ context.Context, e *agentdoc.BeforeStepEvent) { r.record(e) }

func (r *EventRecorder) OnAfterStep(_ context.Context, e *agentdoc.AfterStepEvent) { r.record(e) }

func (r *EventRecorder) OnCycleSkipped(_ context.Context, e *agentdoc.CycleSkippedEvent) {
	r.record(e)
}

func (r *EventRecorder) OnStateTransition(_ context.Context, e *agentdoc.StateTransitionEvent) {
	r.record(e)
}

func (r *EventRecorder) OnBeforeModelCall(_ context.Context, e *agentdoc.BeforeModelCallEvent) {
	r.record(e)
}

func (r *EventRecorder) OnAfterModelCall(_ context.Context, e *agentdoc.AfterModelCallEvent) {
	r.record(e)
}

func (r *EventRecorder) OnCommit(_ context.Context, e *agentdoc.CommitEvent) { r.record(e) }

func (r *EventRecorder) OnLimitExceeded(_ context.Context, e *agentdoc.LimitExceededEvent) {
	r.record(e)
}

func (r *EventRecorder) OnError(_ context.Context, e *agentdoc.ErrorEvent) { r.record(e) }

func (r *EventRecorder) record(e agentdoc.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []agentdoc.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]agentdoc.Event(nil), r.events...)
}

// Transitions returns the recorded transitions as "command:from->to".
func (r *EventRecorder) Transitions() []string {
	var out []string
	for _, e := range r.Events() {
		if t, ok := e.(*agentdoc.StateTransitionEvent); ok {
			out = append(out, t.Command+":"+t.From+"->"+t.To)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Limit Helpers
// -----------------------------------------------------------------------------

// ExactLimit creates a Limit with LimitExactKey type.
func ExactLimit(key agentdoc.StatKey, maxValue float64) agentdoc.Limit {
	return agentdoc.Limit{Type: agentdoc.LimitExactKey, Key: string(key), MaxValue: maxValue}
}

// PrefixLimit creates a Limit with LimitKeyPrefix type.
func PrefixLimit(key agentdoc.StatKey, maxValue float64) agentdoc.Limit {
	return agentdoc.Limit{Type: agentdoc.LimitKeyPrefix, Key: string(key), MaxValue: maxValue}
}
