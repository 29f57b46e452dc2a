package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/format"
	"github.com/tmc/langchaingo/llms"
)

// LCGBackend sends queries through a langchaingo llms.Model. The flattened query is split
// back into role sections so chat models receive proper system, human and AI messages.
//
// Example usage:
//
//	llm, _ := openai.New(openai.WithToken(apiKey), openai.WithModel("gpt-4o-mini"))
//	backend := models.NewLCGBackend(llm).WithModelName("gpt-4o-mini")
type LCGBackend struct {
	model     llms.Model
	modelName string
	format    format.Format
	options   []llms.CallOption
}

// NewLCGBackend creates a backend wrapping model. Queries are parsed as XML.
func NewLCGBackend(model llms.Model) *LCGBackend {
	return &LCGBackend{
		model:  model,
		format: format.NewXML(),
	}
}

// WithModelName sets the model name reported in errors.
func (b *LCGBackend) WithModelName(name string) *LCGBackend {
	b.modelName = name
	return b
}

// WithFormat sets the format queries are parsed with. It must match the format the router
// flattens with.
func (b *LCGBackend) WithFormat(f format.Format) *LCGBackend {
	b.format = f
	return b
}

// WithCallOptions appends options passed to every call.
func (b *LCGBackend) WithCallOptions(options ...llms.CallOption) *LCGBackend {
	b.options = append(b.options, options...)
	return b
}

// Unwrap returns the underlying llms.Model.
func (b *LCGBackend) Unwrap() llms.Model {
	return b.model
}

// Generate implements Backend.
func (b *LCGBackend) Generate(ctx context.Context, query string) (*Reply, error) {
	response, err := b.model.GenerateContent(ctx, b.messages(query), b.options...)
	if err != nil {
		return nil, classifyLCGError(err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", b.name())
	}

	choice := response.Choices[0]
	reply := &Reply{Text: choice.Content, Usage: Usage{Calls: 1}}
	if choice.GenerationInfo != nil {
		reply.Usage = usageFromGenerationInfo(choice.GenerationInfo)
	}
	return reply, nil
}

func (b *LCGBackend) name() string {
	if b.modelName != "" {
		return b.modelName
	}
	return "model"
}

// messages converts the query into chat messages. A query without role markers becomes a
// single human message.
func (b *LCGBackend) messages(query string) []llms.MessageContent {
	sections, err := b.format.Parse(query)
	if err != nil {
		return []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, query)}
	}

	messages := make([]llms.MessageContent, 0, len(sections))
	for _, section := range sections {
		role := llms.ChatMessageTypeHuman
		switch section.Role {
		case agentdoc.ItemSystem:
			role = llms.ChatMessageTypeSystem
		case agentdoc.ItemAgent:
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, section.Text))
	}
	return messages
}

// classifyLCGError marks deadline and rate limit failures as transient.
func classifyLCGError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(err)
	}
	var httpErr interface{ StatusCode() int }
	if errors.As(err, &httpErr) {
		if code := httpErr.StatusCode(); code == 429 || code >= 500 {
			return Transient(err)
		}
	}
	return err
}

// usageFromGenerationInfo normalizes the token counts providers report under different
// keys.
func usageFromGenerationInfo(info map[string]any) Usage {
	input := firstInt(info, "PromptTokens", "InputTokens", "input_tokens")
	output := firstInt(info, "CompletionTokens", "OutputTokens", "output_tokens")
	total := firstInt(info, "TotalTokens", "total_tokens")
	if total == 0 {
		total = input + output
	}
	return Usage{InputTokens: input, OutputTokens: output, TotalTokens: total, Calls: 1}
}

func firstInt(info map[string]any, keys ...string) int {
	for _, key := range keys {
		if v := getIntFromMap(info, key); v > 0 {
			return v
		}
	}
	return 0
}

// getIntFromMap extracts an int value from a map, handling various numeric types.
func getIntFromMap(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}

var _ Backend = (*LCGBackend)(nil)
