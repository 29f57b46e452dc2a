package tt

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Event Assertions
// -----------------------------------------------------------------------------

// CountEventTypes counts events by type name.
func CountEventTypes(events []agentdoc.Event) map[string]int {
	counts := make(map[string]int)
	for _, event := range events {
		switch event.(type) {
		case *agentdoc.BeforeStepEvent:
			counts["BeforeStepEvent"]++
		case *agentdoc.AfterStepEvent:
			counts["AfterStepEvent"]++
		case *agentdoc.CycleSkippedEvent:
			counts["CycleSkippedEvent"]++
		case *agentdoc.StateTransitionEvent:
			counts["StateTransitionEvent"]++
		case *agentdoc.BeforeModelCallEvent:
			counts["BeforeModelCallEvent"]++
		case *agentdoc.AfterModelCallEvent:
			counts["AfterModelCallEvent"]++
		case *agentdoc.CommitEvent:
			counts["CommitEvent"]++
		case *agentdoc.LimitExceededEvent:
			counts["LimitExceededEvent"]++
		case *agentdoc.ErrorEvent:
			counts["ErrorEvent"]++
		}
	}
	return counts
}

// -----------------------------------------------------------------------------
// Document Assertions
// -----------------------------------------------------------------------------

var anchorID = regexp.MustCompile(`<!-- ([a-z]+)-([0-9a-f-]{36}):begin`)

// AnchorIDs returns the uuids of the begin anchors of command found in text, in order.
func AnchorIDs(t *testing.T, text string, command string) []uuid.UUID {
	t.Helper()
	var out []uuid.UUID
	for _, m := range anchorID.FindAllStringSubmatch(text, -1) {
		if m[1] != command {
			continue
		}
		id, err := uuid.Parse(m[2])
		require.NoError(t, err)
		out = append(out, id)
	}
	return out
}

// AnchorID returns the single uuid of command found in text.
func AnchorID(t *testing.T, text string, command string) uuid.UUID {
	t.Helper()
	ids := AnchorIDs(t, text, command)
	require.Len(t, ids, 1, "expected exactly one @%s anchor in:\n%s", command, text)
	return ids[0]
}

// Texts returns the text of every item, for compact comparisons.
func Texts(content agentdoc.ModelContent) []string {
	out := make([]string, 0, len(content))
	for _, item := range content {
		out = append(out, item.Text)
	}
	return out
}
