package jsonplus

import (
	"strconv"
	"strings"

	"github.com/rickchristie/agentdoc/source"
)

// Syntax error kinds reported by this package.
const (
	UnterminatedString       source.ErrorKind = "UnterminatedString"
	UnterminatedArray        source.ErrorKind = "UnterminatedArray"
	UnterminatedObject       source.ErrorKind = "UnterminatedObject"
	MissingCommaInParameters source.ErrorKind = "MissingCommaInParameters"
	MissingParameterValue    source.ErrorKind = "MissingParameterValue"
	MalformedValue           source.ErrorKind = "MalformedValue"
)

// Parse parses text as a single value. Surrounding whitespace is allowed, anything else after
// the value is rejected.
func Parse(text string) (Value, error) {
	c := source.NewCursor(text).SkipWhitespaceOrEOL()
	v, c, err := ParseValue(c)
	if err != nil {
		return nil, err
	}
	c = c.SkipWhitespaceOrEOL()
	if !c.IsEOD() {
		return nil, c.Error(MalformedValue, "unexpected trailing input")
	}
	return v, nil
}

// ParseValue parses one value at the cursor.
func ParseValue(c source.Cursor) (Value, source.Cursor, error) {
	r, ok := c.Peek()
	if !ok {
		return nil, c, c.Error(MalformedValue, "expected a value")
	}
	switch {
	case r == '"' || r == '\'':
		s, next, err := parseQuoted(c, r)
		if err != nil {
			return nil, c, err
		}
		if r == '"' {
			return DoubleQuoted(s), next, nil
		}
		return SingleQuoted(s), next, nil
	case r == '[':
		return parseArray(c)
	case r == '{':
		return parseObject(c)
	case IsNudeChar(r):
		token, next := c.ConsumeManyIf(IsNudeChar)
		return classifyToken(token), next, nil
	default:
		return nil, c, c.Error(MalformedValue, "unexpected character "+strconv.QuoteRune(r))
	}
}

// ParseParameters parses a bracketed parameter list "[key=value, flag, other: 'x']" starting
// at the opening bracket. Whitespace, including line breaks, is allowed between tokens.
func ParseParameters(c source.Cursor) (*Object, source.Cursor, error) {
	open := c
	c, ok := c.ConsumeMatchingChar('[')
	if !ok {
		return nil, open, c.Error(MalformedValue, "expected '['")
	}
	params, c, err := parseEntries(c, open, ']', MissingCommaInParameters, UnterminatedObject)
	if err != nil {
		return nil, open, err
	}
	return params, c, nil
}

func parseObject(c source.Cursor) (Value, source.Cursor, error) {
	open := c
	c, _ = c.ConsumeMatchingChar('{')
	obj, c, err := parseEntries(c, open, '}', MalformedValue, UnterminatedObject)
	if err != nil {
		return nil, open, err
	}
	return obj, c, nil
}

// parseEntries parses "key (sep value)?" entries up to the closing delimiter. open points at
// the opening delimiter and is where unterminated errors are reported.
func parseEntries(
	c source.Cursor,
	open source.Cursor,
	closing rune,
	missingComma source.ErrorKind,
	unterminated source.ErrorKind,
) (*Object, source.Cursor, error) {
	obj := NewObject()
	c = c.SkipWhitespaceOrEOL()
	if next, ok := c.ConsumeMatchingChar(closing); ok {
		return obj, next, nil
	}
	for {
		if c.IsEOD() {
			return nil, c, open.Error(unterminated, "")
		}
		key, next, err := parseKey(c, closing)
		if err != nil {
			return nil, c, err
		}
		c = next.SkipWhitespaceOrEOL()

		var value Value = Flag{}
		if next, ok := consumeSeparator(c); ok {
			c = next.SkipWhitespaceOrEOL()
			if c.IsEOD() {
				return nil, c, open.Error(unterminated, "")
			}
			if r, _ := c.Peek(); r == ',' || r == closing {
				return nil, c, c.Error(MissingParameterValue, "no value for "+strconv.Quote(key))
			}
			value, c, err = ParseValue(c)
			if err != nil {
				return nil, c, err
			}
			c = c.SkipWhitespaceOrEOL()
		}
		obj.Set(key, value)

		if next, ok := c.ConsumeMatchingChar(closing); ok {
			return obj, next, nil
		}
		if c.IsEOD() {
			return nil, c, open.Error(unterminated, "")
		}
		next, ok := c.ConsumeMatchingChar(',')
		if !ok {
			return nil, c, c.Error(missingComma, "")
		}
		c = next.SkipWhitespaceOrEOL()
		if r, ok := c.Peek(); ok && r == closing {
			return nil, c, c.Error(MalformedValue, "trailing separator")
		}
	}
}

func parseKey(c source.Cursor, closing rune) (string, source.Cursor, error) {
	r, _ := c.Peek()
	switch {
	case r == '"' || r == '\'':
		return parseQuoted(c, r)
	case IsNudeChar(r):
		key, next := c.ConsumeManyIf(IsNudeChar)
		return key, next, nil
	case r == ',' || r == closing:
		return "", c, c.Error(MalformedValue, "expected a key")
	default:
		return "", c, c.Error(MalformedValue, "unexpected character "+strconv.QuoteRune(r))
	}
}

func consumeSeparator(c source.Cursor) (source.Cursor, bool) {
	if next, ok := c.ConsumeMatchingChar('='); ok {
		return next, true
	}
	return c.ConsumeMatchingChar(':')
}

func parseArray(c source.Cursor) (Value, source.Cursor, error) {
	open := c
	c, _ = c.ConsumeMatchingChar('[')
	arr := Array{}
	c = c.SkipWhitespaceOrEOL()
	if next, ok := c.ConsumeMatchingChar(']'); ok {
		return arr, next, nil
	}
	for {
		if c.IsEOD() {
			return nil, open, open.Error(UnterminatedArray, "")
		}
		if r, _ := c.Peek(); r == ']' {
			return nil, open, c.Error(MalformedValue, "trailing separator")
		}
		item, next, err := ParseValue(c)
		if err != nil {
			return nil, open, err
		}
		arr = append(arr, item)
		c = next.SkipWhitespaceOrEOL()
		if next, ok := c.ConsumeMatchingChar(']'); ok {
			return arr, next, nil
		}
		if c.IsEOD() {
			return nil, open, open.Error(UnterminatedArray, "")
		}
		next, ok := c.ConsumeMatchingChar(',')
		if !ok {
			return nil, open, c.Error(MalformedValue, "expected ',' or ']'")
		}
		c = next.SkipWhitespaceOrEOL()
	}
}

func parseQuoted(c source.Cursor, q rune) (string, source.Cursor, error) {
	open := c
	c, _ = c.ConsumeMatchingChar(q)
	var b strings.Builder
	for {
		r, ok := c.Peek()
		if !ok {
			return "", open, open.Error(UnterminatedString, "")
		}
		if r == q {
			next, _ := c.Advance()
			return b.String(), next, nil
		}
		if r != '\\' {
			b.WriteRune(r)
			c, _ = c.Advance()
			continue
		}
		escape := c
		c, _ = c.Advance()
		e, ok := c.Peek()
		if !ok {
			return "", open, open.Error(UnterminatedString, "")
		}
		switch e {
		case '\\', '"', '\'':
			b.WriteRune(e)
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			return "", open, escape.Error(MalformedValue, "unknown escape \\"+string(e))
		}
		c, _ = c.Advance()
	}
}

func classifyToken(token string) Value {
	switch token {
	case "true":
		return Boolean(true)
	case "false":
		return Boolean(false)
	}
	if v, ok := classifyNumber(token); ok {
		return v
	}
	return Nude(token)
}

func classifyNumber(token string) (Value, bool) {
	digits := strings.TrimPrefix(token, "-")
	if digits == "" || digits[0] < '0' || digits[0] > '9' {
		return nil, false
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return Integer(i), true
	}
	if strings.ContainsAny(digits, "-/_") {
		return nil, false
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return Float(f), true
	}
	return nil, false
}
