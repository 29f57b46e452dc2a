package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rickchristie/agentdoc"
)

// ErrNoSectionsFound is returned by Parse when the query carries no role marker.
var ErrNoSectionsFound = errors.New("no role sections found in query")

// Format converts between ModelContent and the flattened query string.
type Format interface {
	Flatten(content agentdoc.ModelContent) string
	Parse(query string) ([]Section, error)
}

// Section is a run of consecutive items sharing a role.
type Section struct {
	Role   agentdoc.ItemKind
	Author string
	Text   string
}

// Names of the formats accepted by ByName.
const (
	NameXML      = "xml"
	NameMarkdown = "markdown"
)

// ByName returns the format called name. An empty name selects XML.
func ByName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", NameXML:
		return NewXML(), nil
	case NameMarkdown, "md":
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

// Sections merges consecutive items of the same role and author. Merge-downstream markers
// are skipped.
func Sections(content agentdoc.ModelContent) []Section {
	var out []Section
	for _, item := range content {
		if item.Kind == agentdoc.ItemMergeDownstream {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == item.Kind && out[n-1].Author == item.Author {
			out[n-1].Text += item.Text
			continue
		}
		out = append(out, Section{Role: item.Kind, Author: item.Author, Text: item.Text})
	}
	return out
}

// body trims the newlines a format adds around a section.
func body(text string) string {
	text = strings.TrimPrefix(text, "\n")
	return strings.TrimSuffix(text, "\n")
}

func withEOL(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}
