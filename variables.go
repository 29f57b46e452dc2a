package agentdoc

import "github.com/rickchristie/agentdoc/jsonplus"

// ProviderKey is the variable selecting the model provider.
const ProviderKey = "provider"

// Variables is the environment threaded through execution. @set merges into it and @forget
// removes keys from it.
type Variables struct {
	Provider string           `json:"provider"`
	Extra    *jsonplus.Object `json:"extra"`
}

// NewVariables creates variables using provider.
func NewVariables(provider string) Variables {
	return Variables{Provider: provider, Extra: jsonplus.NewObject()}
}

// Clone returns a deep copy.
func (v Variables) Clone() Variables {
	return Variables{Provider: v.Provider, Extra: v.Extra.Clone()}
}

// Merge returns a copy with params applied. The "provider" key updates Provider, every
// other key lands in Extra.
func (v Variables) Merge(params *jsonplus.Object) Variables {
	out := v.Clone()
	for _, key := range params.Keys() {
		value, _ := params.Get(key)
		if key == ProviderKey {
			out.Provider = jsonplus.Text(value)
			continue
		}
		out.Extra.Set(key, value)
	}
	return out
}

// Forget returns a copy without keys. Forgetting "provider" clears the provider, so the
// configured default applies again.
func (v Variables) Forget(keys ...string) Variables {
	out := v.Clone()
	for _, key := range keys {
		if key == ProviderKey {
			out.Provider = ""
			continue
		}
		out.Extra.Delete(key)
	}
	return out
}

// Get returns the value of key, including "provider".
func (v Variables) Get(key string) (jsonplus.Value, bool) {
	if key == ProviderKey {
		if v.Provider == "" {
			return nil, false
		}
		return jsonplus.Nude(v.Provider), true
	}
	return v.Extra.Get(key)
}

// Map converts the variables to plain Go values, for templates.
func (v Variables) Map() map[string]any {
	out, _ := jsonplus.ToAny(v.Extra.Clone()).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	if v.Provider != "" {
		out[ProviderKey] = v.Provider
	}
	return out
}
