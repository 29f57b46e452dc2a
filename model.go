package agentdoc

import "context"

// Model is the single call the engine makes to language models. provider selects a
// configured provider, an empty provider selects the default one. Retries, timeouts and
// wire protocols live behind this interface.
type Model interface {
	Call(ctx context.Context, provider string, query string) (string, error)
}

// Flattener renders ModelContent into the single query string sent through Model.Call.
// Providers may mark roles differently, so flattening is keyed by provider too.
type Flattener interface {
	Flatten(provider string, content ModelContent) string
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, provider string, query string) (string, error)

// Call implements Model.
func (f ModelFunc) Call(ctx context.Context, provider string, query string) (string, error) {
	return f(ctx, provider, query)
}
