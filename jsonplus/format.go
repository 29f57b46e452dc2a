package jsonplus

import "strings"

// Compact renders v on a single line.
func Compact(v Value) string {
	switch t := v.(type) {
	case Array:
		items := make([]string, len(t))
		for i, item := range t {
			items[i] = Compact(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case *Object:
		return "{" + compactEntries(t, ": ") + "}"
	case nil:
		return ""
	default:
		return t.String()
	}
}

// FormatParameters renders params as a directive parameter list, for example
// "[role=system, verbose]". An empty or nil object renders as the empty string.
func FormatParameters(params *Object) string {
	if params.Len() == 0 {
		return ""
	}
	return "[" + compactEntries(params, "=") + "]"
}

func compactEntries(o *Object, sep string) string {
	keys := o.Keys()
	entries := make([]string, len(keys))
	for i, key := range keys {
		v, _ := o.Get(key)
		if _, isFlag := v.(Flag); isFlag {
			entries[i] = formatKey(key)
			continue
		}
		entries[i] = formatKey(key) + sep + Compact(v)
	}
	return strings.Join(entries, ", ")
}
