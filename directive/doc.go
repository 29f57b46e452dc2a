// Package directive parses documents into text, tags and anchors.
//
// A tag is a one-line instruction written by a human:
//
//	@answer[provider=claude] "What changed?"
//
// On first execution the engine replaces a tag with a pair of anchors owning the generated
// region between them:
//
//	<!-- answer-6f1c…:begin+completed+[provider=claude] "What changed?" -->
//	generated text
//	<!-- answer-6f1c…:end+completed+ -->
//
// Both kinds of directive must start a line, optionally after indentation. The indentation is
// reported as a Text node of its own, so the children of a Document always cover the input
// exactly, in order and without overlap. Unknown commands are not directives: the parser
// backs off and reports the line as Text.
package directive
