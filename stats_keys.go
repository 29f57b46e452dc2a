package agentdoc

// StatKey names a counter in ExecutionStats.
type StatKey string

// KeyPrefix is the prefix of every built-in key.
const KeyPrefix = "agentdoc:"

// Step tracking. The "For" variants are suffixed with the document path.
const (
	SCSteps    StatKey = "agentdoc:steps"
	SCStepsFor StatKey = "agentdoc:steps:"
	SCPatches  StatKey = "agentdoc:patches"
)

// Model call tracking. The "For" variants are suffixed with the provider key.
const (
	SCModelCalls       StatKey = "agentdoc:model_calls"
	SCModelCallsFor    StatKey = "agentdoc:model_calls:"
	SCModelCallErrors  StatKey = "agentdoc:model_call_errors"
	SCStateTransitions StatKey = "agentdoc:state_transitions"
	SCCyclesSkipped    StatKey = "agentdoc:cycles_skipped"
)

// For appends a suffix to a "For" key.
func (k StatKey) For(suffix string) StatKey {
	return k + StatKey(suffix)
}
