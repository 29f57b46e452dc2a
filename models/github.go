package models

import (
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms/openai"
)

// GitHubModelsBaseURL is the OpenAI compatible endpoint of GitHub Models.
const GitHubModelsBaseURL = "https://models.github.ai/inference"

// githubHeaderTransport injects the GitHub API version header into every request.
type githubHeaderTransport struct {
	base http.RoundTripper
}

func (t *githubHeaderTransport) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return t.base.RoundTrip(req)
}

// NewGitHubBackend creates a backend on GitHub Models. The token is a fine-grained personal
// access token with the models:read permission. Model names use the publisher/model form,
// for example "openai/gpt-4.1".
func NewGitHubBackend(model string, token string, opts ...openai.Option) (*LCGBackend, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required: " +
			"create a fine-grained PAT with models:read " +
			"at https://github.com/settings/personal-access-tokens/new")
	}

	// Caller options come last so they can override the defaults.
	allOpts := append([]openai.Option{
		openai.WithBaseURL(GitHubModelsBaseURL),
		openai.WithToken(token),
		openai.WithModel(model),
		openai.WithHTTPClient(&githubHeaderTransport{base: http.DefaultTransport}),
	}, opts...)

	llm, err := openai.New(allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub Models client: %w", err)
	}
	return NewLCGBackend(llm).WithModelName(model), nil
}
