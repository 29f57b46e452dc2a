package engine

import (
	"fmt"
	"slices"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/source"
)

// Patch replaces the text covered by Range with Text.
type Patch struct {
	Range source.Range
	Text  string
}

func (p Patch) String() string {
	return fmt.Sprintf("%s -> %q", p.Range, p.Text)
}

// ApplyPatches applies patches to content. Ranges refer to the original content, so the
// patches are applied from the end of the document towards its start. Overlapping patches
// are a programming error in a policy and panic.
func ApplyPatches(content string, patches []Patch) string {
	if len(patches) == 0 {
		return content
	}
	sorted := slices.Clone(patches)
	slices.SortStableFunc(sorted, func(a, b Patch) int {
		if a.Range.Begin.Offset != b.Range.Begin.Offset {
			return b.Range.Begin.Offset - a.Range.Begin.Offset
		}
		return b.Range.End.Offset - a.Range.End.Offset
	})
	for i := 1; i < len(sorted); i++ {
		later, earlier := sorted[i-1], sorted[i]
		if earlier.Range.End.Offset > later.Range.Begin.Offset {
			panic(fmt.Errorf("%w: overlapping patches %s and %s",
				agentdoc.ErrPolicyInvariant, earlier, later))
		}
	}

	out := content
	for _, p := range sorted {
		out = out[:p.Range.Begin.Offset] + p.Text + out[p.Range.End.Offset:]
	}
	return out
}

// covered reports whether r lies inside the range of one of patches.
func covered(patches []Patch, r source.Range) bool {
	for _, p := range patches {
		if p.Range.IsEmpty() {
			continue
		}
		if p.Range.Contains(r) {
			return true
		}
	}
	return false
}
