package models

import (
	"context"
	"fmt"
	"sync"
)

// Backend sends one flattened query to a model.
type Backend interface {
	Generate(ctx context.Context, query string) (*Reply, error)
}

// Reply is the answer of a Backend.
type Reply struct {
	Text  string
	Usage Usage
}

// Usage is the normalized token accounting of one or more calls.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
	Calls        int `json:"calls"`
}

// Add returns the sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
		Calls:        u.Calls + other.Calls,
	}
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, query string) (*Reply, error)

// Generate implements Backend.
func (f BackendFunc) Generate(ctx context.Context, query string) (*Reply, error) {
	return f(ctx, query)
}

// StaticBackend answers every query with the same text. It backs the "static" provider
// type, useful for dry runs and demos.
type StaticBackend struct {
	reply string
}

// NewStaticBackend creates a backend always answering reply.
func NewStaticBackend(reply string) *StaticBackend {
	return &StaticBackend{reply: reply}
}

// Generate implements Backend.
func (b *StaticBackend) Generate(ctx context.Context, query string) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Reply{Text: b.reply}, nil
}

// ScriptedBackend replays queued replies and errors in order, recording every query.
type ScriptedBackend struct {
	mu      sync.Mutex
	steps   []scriptedStep
	queries []string
}

type scriptedStep struct {
	reply string
	err   error
}

// NewScriptedBackend creates a backend answering replies in order.
func NewScriptedBackend(replies ...string) *ScriptedBackend {
	b := &ScriptedBackend{}
	for _, r := range replies {
		b.AddReply(r)
	}
	return b
}

// AddReply queues a reply. Returns the backend for chaining.
func (b *ScriptedBackend) AddReply(reply string) *ScriptedBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = append(b.steps, scriptedStep{reply: reply})
	return b
}

// AddError queues a failure. Returns the backend for chaining.
func (b *ScriptedBackend) AddError(err error) *ScriptedBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = append(b.steps, scriptedStep{err: err})
	return b
}

// Generate implements Backend.
func (b *ScriptedBackend) Generate(ctx context.Context, query string) (*Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.queries = append(b.queries, query)
	if len(b.steps) == 0 {
		return nil, fmt.Errorf("scripted backend: no reply queued for call %d", len(b.queries))
	}
	step := b.steps[0]
	b.steps = b.steps[1:]
	if step.err != nil {
		return nil, step.err
	}
	return &Reply{Text: step.reply, Usage: Usage{Calls: 1}}, nil
}

// Queries returns every query received so far.
func (b *ScriptedBackend) Queries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries...)
}

// CallCount returns the number of calls received.
func (b *ScriptedBackend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queries)
}
