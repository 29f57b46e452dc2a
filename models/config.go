package models

import (
	"context"
	"fmt"

	"github.com/rickchristie/agentdoc/config"
	"github.com/rickchristie/agentdoc/format"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewRouterFromConfig builds a router with one backend per configured provider. A provider
// whose client cannot be created (a missing API key, typically) is still registered and
// fails when called, so documents that never reach it run fine.
func NewRouterFromConfig(ctx context.Context, cfg *config.Config) (*Router, error) {
	router := NewRouter().
		WithDefault(cfg.DefaultProvider).
		WithTimeout(cfg.GetModelTimeout()).
		WithRetry(cfg.Model.MaxAttempts, cfg.GetModelBackoff())

	for _, name := range cfg.ProviderNames() {
		p := cfg.Providers[name]
		f, err := format.ByName(p.Format)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		backend, err := NewBackend(ctx, p, f)
		if err != nil {
			backend = unavailable(fmt.Errorf("provider %s: %w", name, err))
		}
		router.WithBackend(name, backend, f)
	}
	return router, nil
}

// NewBackend creates the backend described by p, parsing queries with f.
func NewBackend(ctx context.Context, p config.ProviderConfig, f format.Format) (Backend, error) {
	var (
		llm llms.Model
		err error
	)
	switch p.Type {
	case config.ProviderStatic:
		return NewStaticBackend(p.Reply), nil
	case config.ProviderGemini:
		backend, err := NewGenAIBackend(ctx, p.APIKey(), p.Model, p.BaseURL)
		if err != nil {
			return nil, err
		}
		return backend.WithFormat(f), nil
	case config.ProviderGitHub:
		backend, err := NewGitHubBackend(p.Model, p.APIKey())
		if err != nil {
			return nil, err
		}
		return backend.WithFormat(f), nil
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithModel(p.Model), openai.WithToken(p.APIKey())}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		llm, err = openai.New(opts...)
	case config.ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(p.Model), anthropic.WithToken(p.APIKey())}
		if p.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(p.BaseURL))
		}
		llm, err = anthropic.New(opts...)
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(p.Model)}
		if p.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(p.BaseURL))
		}
		llm, err = ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider type %q", p.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", p.Type, err)
	}
	return NewLCGBackend(llm).WithModelName(p.Model).WithFormat(f), nil
}

func unavailable(err error) Backend {
	return BackendFunc(func(context.Context, string) (*Reply, error) {
		return nil, err
	})
}
