// Package format flattens ModelContent into the single query string handed to a model and
// splits such a query back into role sections.
//
// # Overview
//
// The engine accumulates an ordered list of user, system and agent items while walking a
// document. Models receive one string, so every item is rendered under a role marker the
// provider agrees on. Consecutive items of the same role (and author) are merged into one
// section. Merge-downstream markers are dropped: a parent directive substitutes them before
// the content is flattened.
//
// # Available Formats
//
//   - [XML]: role tags (<user>...</user>), the default
//   - [Markdown]: role headers (# User)
//
// # Example Usage
//
//	f := format.NewXML()
//	query := f.Flatten(content)
//
//	// A backend that speaks chat messages recovers the roles:
//	sections, err := f.Parse(query)
//
// Parse is the inverse of Flatten for text that does not itself contain role markers.
package format
