package policies

import (
	"fmt"
	"slices"

	"github.com/rickchristie/agentdoc"
)

// parseStatus returns the status of valid spelled text.
func parseStatus[T ~string](command, text string, valid []T) (T, error) {
	if i := slices.Index(valid, T(text)); i >= 0 {
		return valid[i], nil
	}
	return "", fmt.Errorf("%w: unknown @%s status %q", agentdoc.ErrState, command, text)
}

func statusNames[T ~string](valid []T) []any {
	out := make([]any, len(valid))
	for i, s := range valid {
		out[i] = string(s)
	}
	return out
}
