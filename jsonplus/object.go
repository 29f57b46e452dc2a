package jsonplus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Object is a map from identifiers to values that remembers insertion order. The zero value
// is an empty object ready to use.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{}
}

// Kind implements Value.
func (o *Object) Kind() Kind { return KindObject }

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil || o.values == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// GetString returns the string content stored under key.
func (o *Object) GetString(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	return AsString(v)
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores v under key. A new key is appended, an existing key keeps its place.
func (o *Object) Set(key string, v Value) *Object {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	if o == nil || o.values == nil {
		return false
	}
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Merge copies every entry of other into o, overwriting existing keys.
func (o *Object) Merge(other *Object) *Object {
	for _, key := range other.Keys() {
		v, _ := other.Get(key)
		o.Set(key, v)
	}
	return o
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	out := NewObject()
	for _, key := range o.Keys() {
		v, _ := o.Get(key)
		out.Set(key, cloneValue(v))
	}
	return out
}

// Equal reports whether both objects hold the same keys in the same order with equal values.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	return o.String() == other.String()
}

func (o *Object) String() string {
	var b strings.Builder
	o.pretty(&b, "")
	return b.String()
}

func (o *Object) pretty(b *strings.Builder, indent string) {
	keys := o.Keys()
	if len(keys) <= 1 {
		b.WriteByte('{')
		for _, key := range keys {
			o.prettyEntry(b, key, indent)
		}
		b.WriteByte('}')
		return
	}
	inner := indent + "  "
	b.WriteString("{\n")
	for i, key := range keys {
		b.WriteString(inner)
		o.prettyEntry(b, key, inner)
		if i < len(keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(indent)
	b.WriteByte('}')
}

func (o *Object) prettyEntry(b *strings.Builder, key string, indent string) {
	b.WriteString(formatKey(key))
	v, _ := o.Get(key)
	if _, isFlag := v.(Flag); isFlag {
		return
	}
	b.WriteString(": ")
	v.pretty(b, indent)
}

// MarshalJSON writes the object as a JSON object preserving key order. Flags are written as
// null.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order. Strings become DoubleQuoted,
// integral numbers Integer, other numbers Float and null a Flag.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSON(dec)
	if err != nil {
		return err
	}
	obj, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("jsonplus: expected JSON object, got %s", v.Kind())
	}
	*o = *obj
	return nil
}

// MarshalValue renders any value as JSON.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case Flag, nil:
		buf.WriteString("null")
	case Boolean, Integer:
		buf.WriteString(t.String())
	case Float:
		b, err := json.Marshal(float64(t))
		if err != nil {
			return err
		}
		buf.Write(b)
	case SingleQuoted, DoubleQuoted, Nude:
		b, err := json.Marshal(Text(t))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Array:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Object:
		buf.WriteByte('{')
		for i, key := range t.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, _ := json.Marshal(key)
			buf.Write(k)
			buf.WriteByte(':')
			item, _ := t.Get(key)
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("jsonplus: cannot marshal %T", v)
	}
	return nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return Flag{}, nil
	case bool:
		return Boolean(t), nil
	case string:
		return DoubleQuoted(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Integer(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case json.Delim:
		switch t {
		case '[':
			arr := Array{}
			for dec.More() {
				item, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("jsonplus: unexpected key token %v", keyTok)
				}
				item, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("jsonplus: unexpected JSON token %v", tok)
}

func formatKey(key string) string {
	if IsNude(key) {
		return key
	}
	return quote(key, '"')
}

func cloneValue(v Value) Value {
	switch t := v.(type) {
	case Array:
		out := make(Array, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case *Object:
		return t.Clone()
	default:
		return v
	}
}
