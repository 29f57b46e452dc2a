package directive

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc/source"
)

// Pairing error kinds.
const (
	UnmatchedBegin     source.ErrorKind = "UnmatchedBegin"
	UnmatchedEnd       source.ErrorKind = "UnmatchedEnd"
	DuplicateAnchor    source.ErrorKind = "DuplicateAnchor"
	InterleavedAnchors source.ErrorKind = "InterleavedAnchors"
	CommandMismatch    source.ErrorKind = "CommandMismatch"
)

// PairingError reports anchors that do not pair up 1:1. First and Second are the two
// offending ranges; they are equal when only one anchor is involved.
type PairingError struct {
	Kind   source.ErrorKind
	UUID   uuid.UUID
	First  source.Range
	Second source.Range
}

func (e *PairingError) Error() string {
	if e.First == e.Second {
		return fmt.Sprintf("%s: %s: anchor %s", e.Second.Begin, e.Kind, e.UUID)
	}
	return fmt.Sprintf("%s: %s: anchor %s conflicts with %s",
		e.Second.Begin, e.Kind, e.UUID, e.First.Begin)
}

// Is makes PairingError match source.ErrSyntax.
func (e *PairingError) Is(target error) bool {
	return target == source.ErrSyntax
}

// Position returns the position of the anchor where the problem was detected.
func (e *PairingError) Position() source.Position {
	return e.Second.Begin
}

// Pair is a matched begin/end anchor pair together with their indices in Document.Content.
type Pair struct {
	Begin      *Anchor
	End        *Anchor
	BeginIndex int
	EndIndex   int
}

// Body returns the range between the end of the begin anchor and the start of the end anchor.
func (p Pair) Body() source.Range {
	return source.Range{Begin: p.Begin.Range.End, End: p.End.Range.Begin}
}

// AnchorIndex maps anchor uuids to their pairs.
type AnchorIndex struct {
	pairs map[uuid.UUID]Pair
	order []uuid.UUID
}

// NewAnchorIndex pairs the anchors of doc. Anchors of different uuids may nest, but an end
// must always close the innermost open begin.
func NewAnchorIndex(doc *Document) (*AnchorIndex, error) {
	idx := &AnchorIndex{pairs: make(map[uuid.UUID]Pair)}
	type open struct {
		anchor *Anchor
		index  int
	}
	var stack []open
	seen := make(map[uuid.UUID]*Anchor)

	for i, node := range doc.Content {
		a, ok := node.(*Anchor)
		if !ok {
			continue
		}
		switch a.Kind {
		case Begin:
			if prev, dup := seen[a.UUID]; dup {
				return nil, &PairingError{
					Kind: DuplicateAnchor, UUID: a.UUID, First: prev.Range, Second: a.Range,
				}
			}
			seen[a.UUID] = a
			stack = append(stack, open{anchor: a, index: i})
		case End:
			begin, known := seen[a.UUID]
			if !known {
				return nil, &PairingError{
					Kind: UnmatchedEnd, UUID: a.UUID, First: a.Range, Second: a.Range,
				}
			}
			if len(stack) == 0 || stack[len(stack)-1].anchor.UUID != a.UUID {
				if _, paired := idx.pairs[a.UUID]; paired {
					return nil, &PairingError{
						Kind:  DuplicateAnchor,
						UUID:  a.UUID,
						First: idx.pairs[a.UUID].End.Range, Second: a.Range,
					}
				}
				inner := stack[len(stack)-1].anchor
				return nil, &PairingError{
					Kind: InterleavedAnchors, UUID: a.UUID, First: inner.Range, Second: a.Range,
				}
			}
			if begin.Command != a.Command {
				return nil, &PairingError{
					Kind: CommandMismatch, UUID: a.UUID, First: begin.Range, Second: a.Range,
				}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			idx.pairs[a.UUID] = Pair{Begin: top.anchor, End: a, BeginIndex: top.index, EndIndex: i}
			idx.order = append(idx.order, a.UUID)
		}
	}
	if len(stack) > 0 {
		a := stack[len(stack)-1].anchor
		return nil, &PairingError{Kind: UnmatchedBegin, UUID: a.UUID, First: a.Range, Second: a.Range}
	}
	return idx, nil
}

// GetEnd returns the position where the end anchor of id begins.
func (i *AnchorIndex) GetEnd(id uuid.UUID) (source.Position, bool) {
	p, ok := i.pairs[id]
	if !ok {
		return source.Position{}, false
	}
	return p.End.Range.Begin, true
}

// Pair returns the pair of id.
func (i *AnchorIndex) Pair(id uuid.UUID) (Pair, bool) {
	p, ok := i.pairs[id]
	return p, ok
}

// Len returns the number of pairs.
func (i *AnchorIndex) Len() int {
	return len(i.pairs)
}

// Pairs returns every pair ordered by the position of its end anchor.
func (i *AnchorIndex) Pairs() []Pair {
	out := make([]Pair, 0, len(i.order))
	for _, id := range i.order {
		out = append(out, i.pairs[id])
	}
	return out
}

// Enclosing returns the pairs whose body strictly contains the node at index, innermost last.
func (i *AnchorIndex) Enclosing(index int) []Pair {
	var out []Pair
	for _, id := range i.order {
		p := i.pairs[id]
		if p.BeginIndex < index && index < p.EndIndex {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].BeginIndex < out[b].BeginIndex })
	return out
}
