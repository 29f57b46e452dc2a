package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/format"
	"google.golang.org/genai"
)

// GenAIBackend sends queries to Gemini through the Google GenAI SDK. System sections become
// the system instruction, agent sections become model turns.
type GenAIBackend struct {
	client *genai.Client
	model  string
	format format.Format
}

// NewGenAIBackend creates a Gemini API backend. baseURL may be empty.
func NewGenAIBackend(ctx context.Context, apiKey, model, baseURL string) (*GenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIBackend{client: client, model: model, format: format.NewXML()}, nil
}

// WithFormat sets the format queries are parsed with.
func (b *GenAIBackend) WithFormat(f format.Format) *GenAIBackend {
	b.format = f
	return b
}

// Generate implements Backend.
func (b *GenAIBackend) Generate(ctx context.Context, query string) (*Reply, error) {
	contents, config := b.request(query)
	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, config)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, Transient(err)
		}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 429 || apiErr.Code >= 500) {
			return nil, Transient(err)
		}
		return nil, err
	}

	reply := &Reply{Text: resp.Text(), Usage: Usage{Calls: 1}}
	if meta := resp.UsageMetadata; meta != nil {
		reply.Usage.InputTokens = int(meta.PromptTokenCount)
		reply.Usage.OutputTokens = int(meta.CandidatesTokenCount)
		reply.Usage.TotalTokens = int(meta.TotalTokenCount)
	}
	return reply, nil
}

func (b *GenAIBackend) request(query string) ([]*genai.Content, *genai.GenerateContentConfig) {
	sections, err := b.format.Parse(query)
	if err != nil {
		return genai.Text(query), nil
	}

	var system []string
	var contents []*genai.Content
	for _, section := range sections {
		switch section.Role {
		case agentdoc.ItemSystem:
			system = append(system, section.Text)
		case agentdoc.ItemAgent:
			contents = append(contents, genai.NewContentFromText(section.Text, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(section.Text, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		contents = genai.Text("")
	}

	var config *genai.GenerateContentConfig
	if len(system) > 0 {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(strings.Join(system, "\n"), genai.RoleUser),
		}
	}
	return contents, config
}

var _ Backend = (*GenAIBackend)(nil)
