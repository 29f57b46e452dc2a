package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rickchristie/agentdoc"
)

// XML marks roles with tags.
//
// Example query:
//
//	<system>
//	You are terse.
//	</system>
//
//	<user>
//	What is 2+2?
//	</user>
//
//	<agent author="reviewer">
//	Four.
//	</agent>
type XML struct{}

// NewXML creates a new XML format.
func NewXML() *XML {
	return &XML{}
}

var xmlSection = regexp.MustCompile(
	`(?s)<system>(.*?)</system>|<user>(.*?)</user>|<agent(?: author="([^"]*)")?>(.*?)</agent>`,
)

// Flatten renders content.
func (f *XML) Flatten(content agentdoc.ModelContent) string {
	var sb strings.Builder
	for i, section := range Sections(content) {
		if i > 0 {
			sb.WriteString("\n")
		}
		tag := string(section.Role)
		if section.Role == agentdoc.ItemAgent && section.Author != "" {
			fmt.Fprintf(&sb, "<%s author=%q>\n", tag, section.Author)
		} else {
			fmt.Fprintf(&sb, "<%s>\n", tag)
		}
		sb.WriteString(withEOL(section.Text))
		fmt.Fprintf(&sb, "</%s>\n", tag)
	}
	return sb.String()
}

// Parse splits a query produced by Flatten.
func (f *XML) Parse(query string) ([]Section, error) {
	matches := xmlSection.FindAllStringSubmatch(query, -1)
	if len(matches) == 0 {
		return nil, ErrNoSectionsFound
	}

	sections := make([]Section, 0, len(matches))
	for _, match := range matches {
		switch {
		case strings.HasPrefix(match[0], "<system>"):
			sections = append(sections, Section{Role: agentdoc.ItemSystem, Text: body(match[1])})
		case strings.HasPrefix(match[0], "<user>"):
			sections = append(sections, Section{Role: agentdoc.ItemUser, Text: body(match[2])})
		default:
			sections = append(sections, Section{Role: agentdoc.ItemAgent, Author: match[3], Text: body(match[4])})
		}
	}
	return sections, nil
}
