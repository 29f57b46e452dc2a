// Package events provides the subscriber registry for engine events.
//
// # Overview
//
// The engine publishes an event at every observable point of an execution: before and
// after each document step, on directive state transitions, around model calls, on
// commits, skipped include cycles, exceeded limits and errors. Subscribers implement the
// On<Event> interfaces declared in the root package and receive only the events they
// subscribe to.
//
// # Quick Start
//
//	type StepPrinter struct{}
//
//	func (StepPrinter) OnAfterStep(ctx context.Context, e *agentdoc.AfterStepEvent) {
//	    fmt.Printf("%s step %d: %d patch(es)\n", e.Path, e.Step, e.Patches)
//	}
//
//	registry := events.NewRegistry().Subscribe(StepPrinter{})
//	eng := engine.New(resolver, engine.WithEvents(registry))
//
// The logging package ships a subscriber writing every event to a zap logger.
//
// # Thread Safety
//
// Register every subscriber before execution starts. Dispatch may then be called from
// several goroutines; subscribers that keep state must synchronize themselves.
package events
