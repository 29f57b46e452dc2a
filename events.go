package agentdoc

import "time"

// Event is a marker interface for engine events.
type Event interface {
	event()
}

// -----------------------------------------------------------------------------
// Step Events
// -----------------------------------------------------------------------------

// BeforeStepEvent is emitted before each pass over a document.
type BeforeStepEvent struct {
	// Path is the absolute path of the document.
	Path string

	// Step is the 1-indexed step number for this document within the current execution.
	Step int

	// Execute is false for collect passes.
	Execute bool
}

func (BeforeStepEvent) event() {}

// AfterStepEvent is emitted after each pass over a document.
type AfterStepEvent struct {
	Path    string
	Step    int
	Execute bool

	// Patches is the number of patches applied. Zero means the document converged.
	Patches int

	// Before and After hold the document content around the write. Both are empty when
	// nothing was written.
	Before string
	After  string

	Duration time.Duration
}

func (AfterStepEvent) event() {}

// CycleSkippedEvent is emitted when an include is skipped because the document is already
// being executed further up the stack.
type CycleSkippedEvent struct {
	Path  string
	Stack []string
}

func (CycleSkippedEvent) event() {}

// -----------------------------------------------------------------------------
// Directive Events
// -----------------------------------------------------------------------------

// StateTransitionEvent is emitted whenever a dynamic directive persists a new status.
type StateTransitionEvent struct {
	Path    string
	Command string
	UUID    string
	From    string
	To      string
}

func (StateTransitionEvent) event() {}

// -----------------------------------------------------------------------------
// Model Call Events
// -----------------------------------------------------------------------------

// BeforeModelCallEvent is emitted before each model call.
type BeforeModelCallEvent struct {
	Provider string
	Query    string
}

func (BeforeModelCallEvent) event() {}

// AfterModelCallEvent is emitted after each model call completes.
type AfterModelCallEvent struct {
	Provider string
	Query    string
	Reply    string
	Duration time.Duration

	// Error is any error that occurred (nil if successful).
	Error error
}

func (AfterModelCallEvent) event() {}

// -----------------------------------------------------------------------------
// Commit and Error Events
// -----------------------------------------------------------------------------

// CommitEvent is emitted after modified files were flushed to the repository.
type CommitEvent struct {
	Paths   []string
	Title   string
	Message string

	// Hash is empty when nothing was committed, for example outside a repository.
	Hash  string
	Error error
}

func (CommitEvent) event() {}

// LimitExceededEvent is emitted when an execution limit stops the engine.
type LimitExceededEvent struct {
	Limit Limit
	Key   string
	Value float64
}

func (LimitExceededEvent) event() {}

// ErrorEvent is emitted when a step fails.
type ErrorEvent struct {
	Path string
	Err  error
}

func (ErrorEvent) event() {}
