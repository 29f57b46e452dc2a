package agentdoc

import "context"

// Subscriber interfaces define type-safe event subscriptions.
//
// Implement any combination of these interfaces on a single struct to receive several event
// types. events.Registry detects which interfaces a subscriber implements.
//
//	type StepCounter struct{ steps int }
//
//	func (s *StepCounter) OnAfterStep(ctx context.Context, event *AfterStepEvent) {
//	    s.steps++
//	}
//
//	registry := events.NewRegistry().Subscribe(&StepCounter{})

// BeforeStepSubscriber receives BeforeStepEvent events.
type BeforeStepSubscriber interface {
	OnBeforeStep(ctx context.Context, event *BeforeStepEvent)
}

// AfterStepSubscriber receives AfterStepEvent events.
type AfterStepSubscriber interface {
	OnAfterStep(ctx context.Context, event *AfterStepEvent)
}

// CycleSkippedSubscriber receives CycleSkippedEvent events.
type CycleSkippedSubscriber interface {
	OnCycleSkipped(ctx context.Context, event *CycleSkippedEvent)
}

// StateTransitionSubscriber receives StateTransitionEvent events.
type StateTransitionSubscriber interface {
	OnStateTransition(ctx context.Context, event *StateTransitionEvent)
}

// BeforeModelCallSubscriber receives BeforeModelCallEvent events.
type BeforeModelCallSubscriber interface {
	OnBeforeModelCall(ctx context.Context, event *BeforeModelCallEvent)
}

// AfterModelCallSubscriber receives AfterModelCallEvent events.
type AfterModelCallSubscriber interface {
	OnAfterModelCall(ctx context.Context, event *AfterModelCallEvent)
}

// CommitSubscriber receives CommitEvent events.
type CommitSubscriber interface {
	OnCommit(ctx context.Context, event *CommitEvent)
}

// LimitExceededSubscriber receives LimitExceededEvent events.
type LimitExceededSubscriber interface {
	OnLimitExceeded(ctx context.Context, event *LimitExceededEvent)
}

// ErrorSubscriber receives ErrorEvent events.
type ErrorSubscriber interface {
	OnError(ctx context.Context, event *ErrorEvent)
}

// Publisher dispatches events to subscribers. events.Registry implements it.
type Publisher interface {
	Dispatch(ctx context.Context, event Event)
}
