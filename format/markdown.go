package format

import (
	"regexp"
	"strings"

	"github.com/rickchristie/agentdoc"
)

// Markdown marks roles with level one headers. Agent headers carry the author after a
// colon.
//
// Example query:
//
//	# System
//	You are terse.
//
//	# User
//	What is 2+2?
//
//	# Agent: reviewer
//	Four.
//
// Documents that contain these exact headers themselves do not survive Parse.
type Markdown struct{}

// NewMarkdown creates a new Markdown format.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

var markdownHeader = regexp.MustCompile(`(?m)^# (System|User|Agent)(?:: (.+?))?[ \t]*$`)

// Flatten renders content.
func (f *Markdown) Flatten(content agentdoc.ModelContent) string {
	var sb strings.Builder
	for i, section := range Sections(content) {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("# ")
		switch section.Role {
		case agentdoc.ItemSystem:
			sb.WriteString("System")
		case agentdoc.ItemAgent:
			sb.WriteString("Agent")
			if section.Author != "" {
				sb.WriteString(": ")
				sb.WriteString(section.Author)
			}
		default:
			sb.WriteString("User")
		}
		sb.WriteString("\n")
		sb.WriteString(withEOL(section.Text))
	}
	return sb.String()
}

// Parse splits a query produced by Flatten.
func (f *Markdown) Parse(query string) ([]Section, error) {
	matches := markdownHeader.FindAllStringSubmatchIndex(query, -1)
	if len(matches) == 0 {
		return nil, ErrNoSectionsFound
	}

	sections := make([]Section, 0, len(matches))
	for i, match := range matches {
		// Content runs from the end of the header line to the next header.
		start := match[1]
		end := len(query)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		text := body(query[start:end])
		if i+1 < len(matches) {
			// Drop the blank separator line Flatten puts before the next header.
			text = strings.TrimSuffix(text, "\n")
		}

		section := Section{Role: agentdoc.ItemUser, Text: text}
		switch query[match[2]:match[3]] {
		case "System":
			section.Role = agentdoc.ItemSystem
		case "Agent":
			section.Role = agentdoc.ItemAgent
			if match[4] >= 0 {
				section.Author = query[match[4]:match[5]]
			}
		}
		sections = append(sections, section)
	}
	return sections, nil
}
