package agentdoc

import "strings"

// ItemKind identifies the role of a ModelContentItem.
type ItemKind string

const (
	ItemUser   ItemKind = "user"
	ItemSystem ItemKind = "system"
	ItemAgent  ItemKind = "agent"
	// ItemMergeDownstream marks the spot where output produced further down must be merged.
	// Text holds the placeholder.
	ItemMergeDownstream ItemKind = "merge_downstream"
)

// TaskAnchorPlaceholder is the placeholder carried by the merge-downstream item a waiting
// task contributes.
const TaskAnchorPlaceholder = "{{TASK_ANCHOR}}"

// ModelContentItem is a single piece of model input.
type ModelContentItem struct {
	Kind ItemKind `json:"kind"`
	// Author is set for agent items.
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
}

// User creates a user item.
func User(text string) ModelContentItem {
	return ModelContentItem{Kind: ItemUser, Text: text}
}

// System creates a system item.
func System(text string) ModelContentItem {
	return ModelContentItem{Kind: ItemSystem, Text: text}
}

// Agent creates an item produced by author.
func Agent(author, text string) ModelContentItem {
	return ModelContentItem{Kind: ItemAgent, Author: author, Text: text}
}

// MergeDownstream creates a merge marker carrying placeholder.
func MergeDownstream(placeholder string) ModelContentItem {
	return ModelContentItem{Kind: ItemMergeDownstream, Text: placeholder}
}

// ModelContent is the ordered input accumulated while walking documents.
type ModelContent []ModelContentItem

// Clone returns a copy that can be appended to without affecting c.
func (c ModelContent) Clone() ModelContent {
	if c == nil {
		return nil
	}
	return append(ModelContent(nil), c...)
}

// Text concatenates the text of every user, system and agent item.
func (c ModelContent) Text() string {
	var b strings.Builder
	for _, item := range c {
		if item.Kind == ItemMergeDownstream {
			continue
		}
		b.WriteString(item.Text)
	}
	return b.String()
}

// Substitute replaces the last merge marker carrying placeholder with replacement. It
// returns c and false when there is no such marker.
func (c ModelContent) Substitute(placeholder string, replacement ModelContent) (ModelContent, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Kind != ItemMergeDownstream || c[i].Text != placeholder {
			continue
		}
		out := make(ModelContent, 0, len(c)-1+len(replacement))
		out = append(out, c[:i]...)
		out = append(out, replacement...)
		return append(out, c[i+1:]...), true
	}
	return c, false
}
