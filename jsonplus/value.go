package jsonplus

import (
	"strconv"
	"strings"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindFlag Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindSingleQuoted
	KindDoubleQuoted
	KindNude
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindFlag:         "flag",
	KindBoolean:      "boolean",
	KindInteger:      "integer",
	KindFloat:        "float",
	KindSingleQuoted: "single-quoted string",
	KindDoubleQuoted: "double-quoted string",
	KindNude:         "nude string",
	KindArray:        "array",
	KindObject:       "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is one of Flag, Boolean, Integer, Float, SingleQuoted, DoubleQuoted, Nude, Array or
// *Object.
type Value interface {
	Kind() Kind
	// String renders the value in its canonical source form.
	String() string
	pretty(b *strings.Builder, indent string)
}

// Flag is the value of a key written without one.
type Flag struct{}

// Boolean is true or false.
type Boolean bool

// Integer is a 64-bit signed integer literal.
type Integer int64

// Float is a literal with a fraction or exponent.
type Float float64

// SingleQuoted is a string written between single quotes.
type SingleQuoted string

// DoubleQuoted is a string written between double quotes.
type DoubleQuoted string

// Nude is an unquoted string.
type Nude string

// Array is an ordered list of values.
type Array []Value

func (Flag) Kind() Kind         { return KindFlag }
func (Boolean) Kind() Kind      { return KindBoolean }
func (Integer) Kind() Kind      { return KindInteger }
func (Float) Kind() Kind        { return KindFloat }
func (SingleQuoted) Kind() Kind { return KindSingleQuoted }
func (DoubleQuoted) Kind() Kind { return KindDoubleQuoted }
func (Nude) Kind() Kind         { return KindNude }
func (Array) Kind() Kind        { return KindArray }

func (Flag) String() string { return "" }

func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }

func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }

func (v Float) String() string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 64)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}

func (v SingleQuoted) String() string { return quote(string(v), '\'') }

func (v DoubleQuoted) String() string { return quote(string(v), '"') }

func (v Nude) String() string { return string(v) }

func (v Array) String() string {
	var b strings.Builder
	v.pretty(&b, "")
	return b.String()
}

func (v Flag) pretty(b *strings.Builder, _ string)         { b.WriteString(v.String()) }
func (v Boolean) pretty(b *strings.Builder, _ string)      { b.WriteString(v.String()) }
func (v Integer) pretty(b *strings.Builder, _ string)      { b.WriteString(v.String()) }
func (v Float) pretty(b *strings.Builder, _ string)        { b.WriteString(v.String()) }
func (v SingleQuoted) pretty(b *strings.Builder, _ string) { b.WriteString(v.String()) }
func (v DoubleQuoted) pretty(b *strings.Builder, _ string) { b.WriteString(v.String()) }
func (v Nude) pretty(b *strings.Builder, _ string)         { b.WriteString(v.String()) }

func (v Array) pretty(b *strings.Builder, indent string) {
	if len(v) <= 1 {
		b.WriteByte('[')
		for _, item := range v {
			item.pretty(b, indent)
		}
		b.WriteByte(']')
		return
	}
	inner := indent + "  "
	b.WriteString("[\n")
	for i, item := range v {
		b.WriteString(inner)
		item.pretty(b, inner)
		if i < len(v)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(indent)
	b.WriteByte(']')
}

// Text returns the string content of v: quoted and nude strings without their quotes, and
// the canonical rendering of any other value.
func Text(v Value) string {
	if s, ok := AsString(v); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return v.String()
}

// AsString returns the content of string values.
func AsString(v Value) (string, bool) {
	switch s := v.(type) {
	case SingleQuoted:
		return string(s), true
	case DoubleQuoted:
		return string(s), true
	case Nude:
		return string(s), true
	default:
		return "", false
	}
}

// IsTruthy reports whether v enables an option: flags, true booleans and the strings "true"
// and "yes".
func IsTruthy(v Value) bool {
	switch b := v.(type) {
	case Flag:
		return true
	case Boolean:
		return bool(b)
	}
	s, ok := AsString(v)
	return ok && (s == "true" || s == "yes")
}

// ToAny converts v into plain Go values: strings, int64, float64, bool, []any and
// map[string]any. Flags become true.
func ToAny(v Value) any {
	switch t := v.(type) {
	case Flag:
		return true
	case Boolean:
		return bool(t)
	case Integer:
		return int64(t)
	case Float:
		return float64(t)
	case SingleQuoted, DoubleQuoted, Nude:
		return Text(t)
	case Array:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToAny(item)
		}
		return out
	case *Object:
		out := make(map[string]any, t.Len())
		for _, key := range t.Keys() {
			item, _ := t.Get(key)
			out[key] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

func quote(s string, q byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case q:
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// IsNudeChar reports whether r may appear in a nude string.
func IsNudeChar(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '/' || r == '.' || r == '_' || r == '-'
}

// IsNude reports whether s can be written as a nude string without changing its meaning.
func IsNude(s string) bool {
	if s == "" || s == "true" || s == "false" {
		return false
	}
	for _, r := range s {
		if !IsNudeChar(r) {
			return false
		}
	}
	_, isNumber := classifyNumber(s)
	return !isNumber
}
