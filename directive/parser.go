package directive

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc/jsonplus"
	"github.com/rickchristie/agentdoc/source"
)

// Syntax error kinds reported while parsing directives.
const (
	InvalidUuid        source.ErrorKind = "InvalidUuid"
	UnterminatedAnchor source.ErrorKind = "UnterminatedAnchor"
	MalformedAnchor    source.ErrorKind = "MalformedAnchor"
)

// Commands understood by the engine.
const (
	CommandInclude = "include"
	CommandInline  = "inline"
	CommandAnswer  = "answer"
	CommandRepeat  = "repeat"
	CommandSet     = "set"
	CommandForget  = "forget"
	CommandComment = "comment"
	CommandTask    = "task"
	CommandDone    = "done"
)

// DefaultCommands lists every built-in command.
func DefaultCommands() []string {
	return []string{
		CommandInclude, CommandInline, CommandAnswer, CommandRepeat, CommandSet,
		CommandForget, CommandComment, CommandTask, CommandDone,
	}
}

const (
	anchorOpen  = "<!--"
	anchorClose = "-->"
	uuidLength  = 36
)

// Parser turns text into a Document. Only the commands it was created with are recognized.
type Parser struct {
	commands map[string]bool
}

// NewParser creates a parser recognizing the given commands. Without arguments it recognizes
// DefaultCommands.
func NewParser(commands ...string) *Parser {
	if len(commands) == 0 {
		commands = DefaultCommands()
	}
	p := &Parser{commands: make(map[string]bool, len(commands))}
	for _, cmd := range commands {
		p.commands[cmd] = true
	}
	return p
}

// Parse parses text with the default command set.
func Parse(text string) (*Document, error) {
	return NewParser().Parse(text)
}

// Parse parses text. The first syntax error aborts parsing.
func (p *Parser) Parse(text string) (*Document, error) {
	c := source.NewCursor(text)
	doc := &Document{Source: text}
	for !c.IsEOD() {
		lineStart := c
		_, afterIndent := c.ConsumeManyIf(source.IsHorizontalSpace)

		node, next, err := p.tryDirective(afterIndent)
		if err != nil {
			return nil, err
		}
		if node != nil {
			if afterIndent.Offset() > lineStart.Offset() {
				doc.Content = append(doc.Content, &Text{Range: afterIndent.RangeFrom(lineStart)})
			}
			doc.Content = append(doc.Content, node)
			c = next
			continue
		}

		_, next = c.ConsumeLine()
		doc.Content = append(doc.Content, &Text{Range: next.RangeFrom(c)})
		c = next
	}
	doc.Range = c.RangeFrom(source.NewCursor(text))
	return doc, nil
}

func (p *Parser) tryDirective(c source.Cursor) (Node, source.Cursor, error) {
	if tag, next, err := p.tryParseTag(c); tag != nil || err != nil {
		return tag, next, err
	}
	if anchor, next, err := p.tryParseAnchor(c); anchor != nil || err != nil {
		return anchor, next, err
	}
	return nil, c, nil
}

func isCommandChar(r rune) bool {
	return r >= 'a' && r <= 'z' || r == '_'
}

// tryParseTag returns a nil tag without error when the input is not a tag.
func (p *Parser) tryParseTag(start source.Cursor) (*Tag, source.Cursor, error) {
	c, ok := start.ConsumeMatchingChar('@')
	if !ok {
		return nil, start, nil
	}
	command, c := c.ConsumeManyIf(isCommandChar)
	if !p.commands[command] {
		return nil, start, nil
	}
	if r, ok := c.Peek(); ok && r != '[' && !source.IsHorizontalSpace(r) && !c.IsEOL() {
		return nil, start, nil
	}

	tag := &Tag{Command: command, Parameters: jsonplus.NewObject()}
	if r, _ := c.SkipWhitespace().Peek(); r == '[' {
		paramsStart := c.SkipWhitespace()
		params, next, err := jsonplus.ParseParameters(paramsStart)
		if err != nil {
			return nil, start, err
		}
		tag.Parameters = params
		tag.RawParameters = next.Since(paramsStart)
		c = next
	}

	args, raw, c, err := parseArguments(c, func(c source.Cursor) bool {
		return c.IsEOL() || c.IsEOD()
	})
	if err != nil {
		return nil, start, err
	}
	tag.Arguments = args
	tag.RawArguments = raw

	c = c.SkipWhitespace()
	if next, ok := c.ConsumeEOL(); ok {
		tag.EOL = next.Since(c)
		c = next
	}
	tag.Range = c.RangeFrom(start)
	return tag, c, nil
}

// parseArguments reads whitespace separated values until stop reports true. It returns the
// raw source text spanning the first to the last argument.
func parseArguments(
	c source.Cursor,
	stop func(source.Cursor) bool,
) ([]jsonplus.Value, string, source.Cursor, error) {
	var args []jsonplus.Value
	var first, last source.Cursor
	for {
		c = c.SkipWhitespace()
		if stop(c) {
			break
		}
		before := c
		v, next, err := jsonplus.ParseValue(c)
		if err != nil {
			return nil, "", c, err
		}
		if len(args) == 0 {
			first = before
		}
		args = append(args, v)
		c = next
		last = next
	}
	if len(args) == 0 {
		return nil, "", c, nil
	}
	return args, last.Since(first), c, nil
}

// tryParseAnchor returns a nil anchor without error when the input is not an anchor of a
// known command, which covers ordinary HTML comments.
func (p *Parser) tryParseAnchor(start source.Cursor) (*Anchor, source.Cursor, error) {
	c, ok := start.ConsumeMatchingString(anchorOpen)
	if !ok {
		return nil, start, nil
	}
	c = c.SkipWhitespace()
	command, c := c.ConsumeManyIf(isCommandChar)
	if !p.commands[command] {
		return nil, start, nil
	}
	c, ok = c.ConsumeMatchingChar('-')
	if !ok {
		return nil, start, nil
	}

	anchor := &Anchor{Command: command, Parameters: jsonplus.NewObject()}
	id, c, err := parseUUID(c)
	if err != nil {
		return nil, start, err
	}
	anchor.UUID = id

	c, ok = c.ConsumeMatchingChar(':')
	if !ok {
		return nil, start, c.Error(MalformedAnchor, "expected ':' after uuid")
	}
	switch {
	case strings.HasPrefix(c.Rest(), string(Begin)):
		anchor.Kind = Begin
	case strings.HasPrefix(c.Rest(), string(End)):
		anchor.Kind = End
	default:
		return nil, start, c.Error(MalformedAnchor, "expected begin or end")
	}
	c, _ = c.ConsumeMatchingString(string(anchor.Kind))

	anchor.StatusRange = source.Range{Begin: c.Position(), End: c.Position()}
	if next, ok := c.ConsumeMatchingChar('+'); ok {
		status, afterStatus := next.ConsumeManyIf(isCommandChar)
		closing, ok := afterStatus.ConsumeMatchingChar('+')
		if !ok {
			return nil, start, afterStatus.Error(MalformedAnchor, "expected '+' after status")
		}
		anchor.HasStatus = true
		anchor.Status = status
		anchor.StatusRange = afterStatus.RangeFrom(next)
		c = closing
	}

	if r, _ := c.SkipWhitespace().Peek(); r == '[' {
		paramsStart := c.SkipWhitespace()
		params, next, err := jsonplus.ParseParameters(paramsStart)
		if err != nil {
			return nil, start, err
		}
		anchor.Parameters = params
		anchor.RawParameters = next.Since(paramsStart)
		c = next
	}

	var unterminated bool
	args, raw, c, err := parseArguments(c, func(c source.Cursor) bool {
		if strings.HasPrefix(c.Rest(), anchorClose) {
			return true
		}
		unterminated = c.IsEOL() || c.IsEOD()
		return unterminated
	})
	if err != nil {
		return nil, start, err
	}
	if unterminated {
		return nil, start, start.Error(UnterminatedAnchor, "missing "+anchorClose)
	}
	anchor.Arguments = args
	anchor.RawArguments = raw

	c, _ = c.ConsumeMatchingString(anchorClose)
	if next, ok := c.SkipWhitespace().ConsumeEOL(); ok {
		anchor.EOL = next.Since(c.SkipWhitespace())
		c = next
	}
	anchor.Range = c.RangeFrom(start)
	return anchor, c, nil
}

func parseUUID(c source.Cursor) (uuid.UUID, source.Cursor, error) {
	rest := c.Rest()
	if len(rest) < uuidLength {
		return uuid.Nil, c, c.Error(InvalidUuid, "")
	}
	text := rest[:uuidLength]
	id, err := uuid.Parse(text)
	if err != nil || id.Version() != 4 || id.Variant() != uuid.RFC4122 || !isCanonical(text) {
		return uuid.Nil, c, c.Error(InvalidUuid, text)
	}
	next, _ := c.ConsumeMatchingString(text)
	return id, next, nil
}

func isCanonical(text string) bool {
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch i {
		case 8, 13, 18, 23:
			if ch != '-' {
				return false
			}
		default:
			if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F') {
				return false
			}
		}
	}
	return true
}
